package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"github.com/cobalt-lang/cobalt/config"
	"github.com/cobalt-lang/cobalt/diag"
)

// cfg holds the environment-backed defaults; flags on the individual
// subcommands override it.
var cfg config.Config

func main() {
	cfg, _ = config.Load()
	if cfg.NoColor {
		diag.DisableColor()
	}

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&buildCmd{name: "build"}, "compiler")
	subcommands.Register(&buildCmd{name: "compile"}, "compiler")
	subcommands.Register(&runCmd{}, "vm")
	subcommands.Register(&replCmd{}, "vm")
	subcommands.Register(&initCmd{}, "project")
	subcommands.Register(&versionCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}
