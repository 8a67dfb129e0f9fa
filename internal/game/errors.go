package game

import "errors"

var (
	// ErrInvalidConfiguration is returned for non-positive player or round counts.
	ErrInvalidConfiguration = errors.New("invalid game configuration")

	// ErrGameOver is returned when a finished game is played again.
	ErrGameOver = errors.New("game already played")
)
