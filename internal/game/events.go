// internal/game/events.go
package game

// GameEventType is an enum-like type for reporting game progress.
type GameEventType string

const (
	EventIterationStart GameEventType = "iteration_start"
	EventPlayerDraw     GameEventType = "player_draw"
	EventPlayerLoses    GameEventType = "player_loses"
	EventAllSurvive     GameEventType = "all_survive"
	EventIterationEnd   GameEventType = "iteration_end"
)

// GameEvent describes a single step of play. Player is 1-indexed; it is zero for
// events that are not tied to a player.
type GameEvent struct {
	Type       GameEventType `json:"type"`
	Iteration  int           `json:"iteration"`
	DeadlyCard int           `json:"deadly_card"`
	Player     int           `json:"player,omitempty"`
	Card       int           `json:"card,omitempty"`
	DeckSize   int           `json:"deck_size"`
}

// Outcome records how a single iteration ended.
type Outcome struct {
	DeadlyCard     int `json:"deadly_card"`
	StartingPlayer int `json:"starting_player"` // 1-indexed
	Rounds         int `json:"rounds"`
	Draws          int `json:"draws"`
	Eliminated     int `json:"eliminated"` // 0-indexed, -1 when everyone survives
}

// Survived reports whether nobody drew the deadly card.
func (o Outcome) Survived() bool {
	return o.Eliminated < 0
}
