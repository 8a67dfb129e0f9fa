package main

import (
	"io"
	"math/rand/v2"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/card-roulette/internal/config"
	"github.com/jason-s-yu/card-roulette/internal/game"
)

func newPlayCommand(out io.Writer) *command {
	fs := newFlagSet("play", "Start a card roulette game.", out)
	players := fs.Int("players", 3, "Number of players")
	rounds := fs.Int("rounds", 3, "Number of rounds")
	seed := fs.Uint64("seed", 0, "Random seed (0 picks one)")

	return &command{
		flags: fs,
		run: func(_ config.Config, logger *logrus.Logger) error {
			return play(*players, *rounds, *seed, logger, out)
		},
	}
}

func play(players, rounds int, seed uint64, logger *logrus.Logger, out io.Writer) error {
	if seed == 0 {
		seed = rand.Uint64()
	}
	g, err := game.NewCardRoulette(players, rounds, newSource(seed))
	if err != nil {
		return err
	}
	g.Logger = logger
	g.OnEvent = transcript{w: out}.printEvent
	logger.WithField("seed", seed).Debug("starting game")

	if _, err := g.PlayGame(); err != nil {
		return err
	}

	pterm.DefaultSection.WithWriter(out).Println("Results")
	return renderScores(out, g.Scores())
}

func newSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
