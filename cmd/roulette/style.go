package main

import (
	"io"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/jason-s-yu/card-roulette/internal/game"
)

// transcript renders game events as the play log.
type transcript struct {
	w io.Writer
}

func (t transcript) printEvent(ev game.GameEvent) {
	switch ev.Type {
	case game.EventIterationStart:
		pterm.DefaultSection.WithLevel(2).WithWriter(t.w).Printfln("Iteration %d", ev.Iteration)
	case game.EventPlayerDraw:
		pterm.Info.WithWriter(t.w).Printfln("Player %d draws %d", ev.Player, ev.Card)
	case game.EventPlayerLoses:
		pterm.Warning.WithWriter(t.w).Printfln("Player %d loses.", ev.Player)
	case game.EventAllSurvive:
		pterm.Success.WithWriter(t.w).Println("Everyone survives!")
	}
}

// renderScores prints one row per player with their elimination count.
func renderScores(w io.Writer, scores []int) error {
	data := pterm.TableData{{"Player", "Points"}}
	for i, score := range scores {
		data = append(data, []string{strconv.Itoa(i + 1), strconv.Itoa(score)})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithWriter(w).WithData(data).Render()
}
