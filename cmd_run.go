package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/cobalt-lang/cobalt/diag"
	"github.com/cobalt-lang/cobalt/vm"
)

// runCmd executes a compiled .bc bytecode file on the virtual machine.
type runCmd struct {
	debug bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "Execute a compiled Cobalt bytecode file" }
func (*runCmd) Usage() string {
	return `run <file.bc> [-debug]:
  Execute Cobalt bytecode.
`
}

func (cmd *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.debug, "debug", cfg.Debug, "print the final stack and variable table when the program halts.")
}

func (cmd *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	filename := args[0]

	bytecode, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	machine := vm.New(cmd.debug)
	if err := machine.Run(ctx, bytecode); err != nil {
		diag.Report(os.Stderr, "run", err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
