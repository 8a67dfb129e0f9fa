// internal/simulation/runner.go
package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jason-s-yu/card-roulette/internal/game"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Sink receives the results of a simulation: every game in order, then the summary.
type Sink interface {
	RecordGame(ctx context.Context, rec models.GameRecord) error
	RecordSimulation(ctx context.Context, sum models.SimulationSummary) error
}

// Params describes a batch of games sharing one configuration.
type Params struct {
	Games   int
	Players int
	Rounds  int
}

// Runner plays batches of independent games and hands the results to its sinks.
type Runner struct {
	Sinks []Sink

	// Workers bounds how many games are played at once. Values below 1 mean 1.
	Workers int

	// Seed drives the per-game random sources; the same seed yields the same scores
	// regardless of Workers.
	Seed uint64

	// OnGame, if set, is called after each game has been handed to every sink.
	OnGame func(rec models.GameRecord)

	// NewID generates simulation ids. Defaults to uuid.New.
	NewID func() uuid.UUID

	logger logrus.FieldLogger
}

// NewRunner returns a runner with a random seed writing to sinks.
func NewRunner(logger logrus.FieldLogger, sinks ...Sink) *Runner {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		Sinks:   sinks,
		Workers: 1,
		Seed:    rand.Uint64(),
		NewID:   uuid.New,
		logger:  logger,
	}
}

// Run plays p.Games games and records them. The returned summary holds the
// per-player totals across all games.
func (r *Runner) Run(ctx context.Context, p Params) (models.SimulationSummary, error) {
	if p.Games <= 0 {
		return models.SimulationSummary{}, fmt.Errorf("%w: games must be positive, got %d", game.ErrInvalidConfiguration, p.Games)
	}
	if err := game.ValidateConfig(p.Players, p.Rounds); err != nil {
		return models.SimulationSummary{}, err
	}

	sum := models.SimulationSummary{
		SimulationID: r.NewID(),
		Scores:       make([]int, p.Players),
		Players:      p.Players,
		Rounds:       p.Rounds,
	}
	log := r.logger.WithFields(logrus.Fields{
		"simulation": sum.SimulationID,
		"games":      p.Games,
		"players":    p.Players,
		"rounds":     p.Rounds,
	})
	log.WithField("seed", r.Seed).Info("simulation started")

	scores, err := r.play(ctx, p)
	if err != nil {
		return sum, err
	}

	for i, gameScores := range scores {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec := models.GameRecord{
			SimulationID: sum.SimulationID,
			GameNumber:   i + 1,
			Players:      p.Players,
			Rounds:       p.Rounds,
			Scores:       gameScores,
		}
		for _, sink := range r.Sinks {
			if err := sink.RecordGame(ctx, rec); err != nil {
				return sum, fmt.Errorf("record game %d: %w", rec.GameNumber, err)
			}
		}
		for player, score := range gameScores {
			sum.Scores[player] += score
		}
		sum.NumGames++
		if r.OnGame != nil {
			r.OnGame(rec)
		}
	}

	for _, sink := range r.Sinks {
		if err := sink.RecordSimulation(ctx, sum); err != nil {
			return sum, fmt.Errorf("record simulation: %w", err)
		}
	}
	log.WithField("scores", sum.Scores).Info("simulation finished")
	return sum, nil
}

// play runs every game, up to Workers at a time, and returns their scores in game order.
func (r *Runner) play(ctx context.Context, p Params) ([][]int, error) {
	// seeds are drawn up front so the outcome does not depend on scheduling
	master := rand.New(rand.NewPCG(r.Seed, r.Seed^0x9e3779b97f4a7c15))
	seeds := make([]uint64, p.Games)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	scores := make([][]int, p.Games)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range p.Games {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cr, err := game.NewCardRoulette(p.Players, p.Rounds, rand.New(rand.NewPCG(seeds[i], uint64(i))))
			if err != nil {
				return err
			}
			cr.Logger = r.logger
			if _, err := cr.PlayGame(); err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			scores[i] = cr.Scores()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
