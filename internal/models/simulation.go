// internal/models/simulation.go
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// GameRecord holds the final scores of one game within a simulation.
type GameRecord struct {
	SimulationID uuid.UUID `json:"simulation_id"`
	GameNumber   int       `json:"game_number"`
	Players      int       `json:"players"`
	Rounds       int       `json:"rounds"`
	Scores       []int     `json:"scores"`
}

// SimulationSummary accumulates per-player scores across every game of a simulation.
type SimulationSummary struct {
	SimulationID uuid.UUID `json:"simulation_id"`
	NumGames     int       `json:"num_games"`
	Scores       []int     `json:"scores"`

	// Players and Rounds are carried by the directory layout and JSON keys, not by the entry itself.
	Players int `json:"-"`
	Rounds  int `json:"-"`
}

// SimulationMessage is the self-contained wire form of a SimulationSummary, used
// wherever the summary travels without the results directory layout around it.
type SimulationMessage struct {
	SimulationID uuid.UUID `json:"simulation_id"`
	Players      int       `json:"players"`
	Rounds       int       `json:"rounds"`
	NumGames     int       `json:"num_games"`
	Scores       []int     `json:"scores"`
}

// Message converts the summary to its wire form.
func (s SimulationSummary) Message() SimulationMessage {
	return SimulationMessage{
		SimulationID: s.SimulationID,
		Players:      s.Players,
		Rounds:       s.Rounds,
		NumGames:     s.NumGames,
		Scores:       s.Scores,
	}
}

// Summary converts the wire form back to a summary.
func (m SimulationMessage) Summary() SimulationSummary {
	return SimulationSummary{
		SimulationID: m.SimulationID,
		NumGames:     m.NumGames,
		Scores:       m.Scores,
		Players:      m.Players,
		Rounds:       m.Rounds,
	}
}

// PlayersKey returns the results key for a player count, e.g. "3_players".
func PlayersKey(players int) string {
	return fmt.Sprintf("%d_players", players)
}

// RoundsKey returns the results key for a round count, e.g. "3_rounds".
func RoundsKey(rounds int) string {
	return fmt.Sprintf("%d_rounds", rounds)
}
