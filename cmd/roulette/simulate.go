package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/card-roulette/internal/cache"
	"github.com/jason-s-yu/card-roulette/internal/config"
	"github.com/jason-s-yu/card-roulette/internal/database"
	"github.com/jason-s-yu/card-roulette/internal/game"
	"github.com/jason-s-yu/card-roulette/internal/models"
	"github.com/jason-s-yu/card-roulette/internal/results"
	"github.com/jason-s-yu/card-roulette/internal/simulation"
)

func newSimulateCommand(out io.Writer) *command {
	fs := newFlagSet("simulate", "Simulate multiple card roulette games and save the results.", out)
	games := fs.Int("games", 5, "Number of games to simulate")
	players := fs.Int("players", 3, "Number of players")
	rounds := fs.Int("rounds", 3, "Number of rounds")
	workers := fs.Int("workers", 1, "Number of games played in parallel")
	seed := fs.Uint64("seed", 0, "Random seed (0 picks one)")
	dir := fs.String("results", "", "Results directory (overrides RESULTS_DIR)")

	return &command{
		flags: fs,
		run: func(cfg config.Config, logger *logrus.Logger) error {
			if *dir != "" {
				cfg.ResultsDir = *dir
			}
			p := simulation.Params{Games: *games, Players: *players, Rounds: *rounds}
			return simulate(cfg, logger, p, *workers, *seed, out)
		},
	}
}

func simulate(cfg config.Config, logger *logrus.Logger, p simulation.Params, workers int, seed uint64, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sinks, closeSinks, err := openSinks(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSinks()

	runner := simulation.NewRunner(logger, sinks...)
	runner.Workers = workers
	if seed != 0 {
		runner.Seed = seed
	}

	var bar *pterm.ProgressbarPrinter
	if p.Games > 0 {
		bar, _ = pterm.DefaultProgressbar.WithTotal(p.Games).WithTitle("Playing games").Start()
		runner.OnGame = func(models.GameRecord) { bar.Increment() }
	}
	sum, err := runner.Run(ctx, p)
	if bar != nil {
		bar.Stop()
	}
	if err != nil {
		return err
	}

	pterm.Success.WithWriter(out).Printfln("All games played. Results saved to %s (simulation %s).", cfg.ResultsDir, sum.SimulationID)
	return renderScores(out, sum.Scores)
}

// openSinks always writes to the results directory, and also to Redis and
// PostgreSQL when they are configured.
func openSinks(ctx context.Context, cfg config.Config, logger *logrus.Logger) ([]simulation.Sink, func(), error) {
	sinks := []simulation.Sink{results.NewFileStore(cfg.ResultsDir, logger)}
	var closers []func()
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() { rdb.Close() })
		sinks = append(sinks, cache.NewQueue(rdb, cfg.QueueName, logger))
		logger.WithField("queue", cfg.QueueName).Info("publishing results to Redis")
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, pool.Close)
		if err := database.EnsureSchema(ctx, pool); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		sinks = append(sinks, database.NewStore(pool))
		logger.Info("writing results to PostgreSQL")
	}
	return sinks, closeAll, nil
}

func newSummarizeCommand(out io.Writer) *command {
	fs := newFlagSet("summarize", "Rebuild a simulation summary from its CSV file and store it in total_results.json,\nreplacing any entry with the same simulation id.", out)
	players := fs.Int("players", 3, "Number of players")
	rounds := fs.Int("rounds", 3, "Number of rounds")
	id := fs.String("id", "", "Simulation id")
	dir := fs.String("results", "", "Results directory (overrides RESULTS_DIR)")

	return &command{
		flags: fs,
		run: func(cfg config.Config, logger *logrus.Logger) error {
			if *dir != "" {
				cfg.ResultsDir = *dir
			}
			simID, err := uuid.Parse(*id)
			if err != nil {
				return fmt.Errorf("simulation id %q: %w", *id, err)
			}
			return summarize(cfg, logger, *players, *rounds, simID, out)
		},
	}
}

func summarize(cfg config.Config, logger *logrus.Logger, players, rounds int, id uuid.UUID, out io.Writer) error {
	if err := game.ValidateConfig(players, rounds); err != nil {
		return err
	}
	store := results.NewFileStore(cfg.ResultsDir, logger)
	sum, err := store.ReadSimulation(players, rounds, id)
	if err != nil {
		return err
	}
	if err := store.RecordSimulation(context.Background(), sum); err != nil {
		return err
	}
	pterm.Success.WithWriter(out).Printfln("Summarized %d games of simulation %s.", sum.NumGames, id)
	return renderScores(out, sum.Scores)
}
