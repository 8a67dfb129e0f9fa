// cmd/roulette/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/card-roulette/internal/config"
)

const version = "1.1.0"

const usage = `usage: roulette <command> [<args>]

Commands:
  play       Start a card roulette game
  simulate   Simulate multiple card roulette games and save the results
  summarize  Rebuild a simulation summary from its CSV file
  help       Show help for a command

Flags:
  --version  Show version information
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// command is a subcommand with its own flag set.
type command struct {
	flags *flag.FlagSet
	run   func(cfg config.Config, logger *logrus.Logger) error
}

func commands(out io.Writer) map[string]*command {
	return map[string]*command{
		"play":      newPlayCommand(out),
		"simulate":  newSimulateCommand(out),
		"summarize": newSummarizeCommand(out),
	}
}

// run executes the CLI and returns the process exit code.
func run(args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return 0
	}

	cmds := commands(out)
	switch name := args[0]; name {
	case "--version", "-version":
		fmt.Fprintf(out, "roulette %s\n", version)
		return 0

	case "help", "-h", "--help":
		return help(args[1:], cmds, out)

	default:
		cmd, ok := cmds[name]
		if !ok {
			fmt.Fprint(out, usage)
			return 0
		}
		if err := cmd.flags.Parse(args[1:]); err != nil {
			return 2
		}

		cfg, err := config.Load()
		if err != nil {
			pterm.Error.Println(err)
			return 1
		}
		logger, err := cfg.NewLogger()
		if err != nil {
			pterm.Error.Println(err)
			return 1
		}
		if err := cmd.run(cfg, logger); err != nil {
			pterm.Error.Println(err)
			return 1
		}
		return 0
	}
}

func help(args []string, cmds map[string]*command, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return 0
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(out, "Unknown command '%s'.\n", args[0])
		return 0
	}
	cmd.flags.Usage()
	return 0
}

func newFlagSet(name, description string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintf(out, "usage: roulette %s [<args>]\n\n%s\n\n", name, description)
		fs.PrintDefaults()
	}
	return fs
}
