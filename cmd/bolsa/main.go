// Command bolsa is the terminal client of the portfolio ledger. It works on
// the same database as the server and prints markdown reports.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"path"

	"github.com/google/subcommands"
)

var verbose = flag.Bool("v", false, "log progress to stderr")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&holdingsCmd{}, "reports")
	commander.Register(&historyCmd{}, "reports")
	commander.Register(&dividendsCmd{}, "reports")
	commander.Register(&txCmd{}, "reports")

	commander.Register(&addCmd{}, "ledger")
	commander.Register(&rmCmd{}, "ledger")
	commander.Register(&importCmd{}, "ledger")

	commander.Register(&refreshCmd{}, "maintenance")
	commander.Register(&syncCmd{}, "maintenance")

	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	os.Exit(int(commander.Execute(context.Background())))
}
