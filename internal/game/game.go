// internal/game/game.go
package game

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// CardRoulette holds the state of a single game: the deck and each player's score.
// A game is not safe for concurrent use; run independent games on separate instances.
type CardRoulette struct {
	NumPlayers int
	NumRounds  int
	NumCards   int

	// OnEvent, if set, receives every draw, elimination and iteration boundary.
	OnEvent func(ev GameEvent)

	// Logger receives debug output for every event. Defaults to the standard logrus logger.
	Logger logrus.FieldLogger

	deck   *Deck
	rng    Source
	scores []int

	iteration  int
	draws      int
	eliminated int
	played     bool
}

// NewCardRoulette builds a game for numPlayers players and numRounds rounds,
// with a deck of numPlayers*numRounds cards. rng drives every draw.
func NewCardRoulette(numPlayers, numRounds int, rng Source) (*CardRoulette, error) {
	if err := ValidateConfig(numPlayers, numRounds); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfiguration)
	}
	numCards := numPlayers * numRounds
	return &CardRoulette{
		NumPlayers: numPlayers,
		NumRounds:  numRounds,
		NumCards:   numCards,
		Logger:     logrus.StandardLogger(),
		deck:       NewDeck(numCards),
		rng:        rng,
		scores:     make([]int, numPlayers),
		eliminated: -1,
	}, nil
}

// MaxCards bounds the deck size, numPlayers*numRounds, of a single game.
const MaxCards = 1 << 20

// ValidateConfig rejects non-positive player or round counts, and configurations
// whose deck would exceed MaxCards, with ErrInvalidConfiguration.
func ValidateConfig(numPlayers, numRounds int) error {
	if numPlayers <= 0 {
		return fmt.Errorf("%w: players must be positive, got %d", ErrInvalidConfiguration, numPlayers)
	}
	if numRounds <= 0 {
		return fmt.Errorf("%w: rounds must be positive, got %d", ErrInvalidConfiguration, numRounds)
	}
	// divide rather than multiply so the check cannot overflow
	if numPlayers > MaxCards || numRounds > MaxCards/numPlayers {
		return fmt.Errorf("%w: %d players x %d rounds exceeds %d cards", ErrInvalidConfiguration, numPlayers, numRounds, MaxCards)
	}
	return nil
}

// Scores returns a copy of the elimination count of each player, indexed by player.
func (g *CardRoulette) Scores() []int {
	out := make([]int, len(g.scores))
	copy(out, g.scores)
	return out
}

// CardsLeft returns the number of cards still in the deck.
func (g *CardRoulette) CardsLeft() int {
	return g.deck.Len()
}

// PlayRound lets each player, starting at startingPlayer (1-indexed), draw one card.
// It returns true when the iteration is over: either someone drew deadlyCard and
// their score went up, or only one card was left and everyone survives.
func (g *CardRoulette) PlayRound(startingPlayer, deadlyCard int) bool {
	current := startingPlayer - 1
	for range g.NumPlayers {
		if g.deck.Len() == 1 {
			g.emit(GameEvent{Type: EventAllSurvive})
			return true
		}
		card, _ := g.deck.Draw(g.rng)
		g.draws++
		g.emit(GameEvent{Type: EventPlayerDraw, Player: current + 1, Card: card})
		if card == deadlyCard {
			g.scores[current]++
			g.eliminated = current
			g.emit(GameEvent{Type: EventPlayerLoses, Player: current + 1, Card: card})
			return true
		}
		current = (current + 1) % g.NumPlayers
	}
	return false
}

// PlayIteration plays rounds with a fixed deadly card until the iteration is over,
// then puts every card back into the deck.
func (g *CardRoulette) PlayIteration(startingPlayer, deadlyCard int) Outcome {
	g.iteration = deadlyCard
	g.draws = 0
	g.eliminated = -1
	g.emit(GameEvent{Type: EventIterationStart, Player: startingPlayer})

	out := Outcome{DeadlyCard: deadlyCard, StartingPlayer: startingPlayer}
	for over := false; !over; {
		over = g.PlayRound(startingPlayer, deadlyCard)
		out.Rounds++
	}
	out.Draws = g.draws
	out.Eliminated = g.eliminated

	g.deck.Reset()
	g.emit(GameEvent{Type: EventIterationEnd, Player: g.eliminated + 1})
	return out
}

// PlayGame runs one iteration per deadly card 1..NumCards, rotating the starting
// player, and returns the outcome of each iteration in order.
func (g *CardRoulette) PlayGame() ([]Outcome, error) {
	if g.played {
		return nil, ErrGameOver
	}
	g.played = true

	outcomes := make([]Outcome, 0, g.NumCards)
	for deadlyCard := 1; deadlyCard <= g.NumCards; deadlyCard++ {
		outcomes = append(outcomes, g.PlayIteration(StartingPlayer(deadlyCard, g.NumPlayers), deadlyCard))
	}
	return outcomes, nil
}

// StartingPlayer returns the 1-indexed player who opens the iteration for deadlyCard.
func StartingPlayer(deadlyCard, numPlayers int) int {
	return (deadlyCard-1)%numPlayers + 1
}

// emit stamps the event with the current iteration state, logs it and forwards it to OnEvent.
func (g *CardRoulette) emit(ev GameEvent) {
	ev.Iteration = g.iteration
	ev.DeadlyCard = g.iteration
	ev.DeckSize = g.deck.Len()

	if g.Logger != nil {
		g.Logger.WithFields(logrus.Fields{
			"event":     ev.Type,
			"iteration": ev.Iteration,
			"player":    ev.Player,
			"card":      ev.Card,
			"deck":      ev.DeckSize,
		}).Debug("card roulette event")
	}
	if g.OnEvent != nil {
		g.OnEvent(ev)
	}
}
