package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/cobalt-lang/cobalt/compiler"
	"github.com/cobalt-lang/cobalt/lexer"
	"github.com/cobalt-lang/cobalt/parser"
	"github.com/cobalt-lang/cobalt/vm"
)

// replCmd starts an interactive session over the compiled pipeline. A single
// compiler instance lives for the whole session, so declarations keep their
// slots across lines; every line re-runs the accumulated program on a fresh
// VM and prints the value left on top of the stack, if any.
type replCmd struct {
	debug   bool
	dumpAST bool
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Cobalt session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Type 'exit' to leave.
`
}

func (cmd *replCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.debug, "debug", cfg.Debug, "print the final stack and variable table after every line.")
	f.BoolVar(&cmd.dumpAST, "dumpAST", false, "print each line's AST as JSON before running it.")
}

func (cmd *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("\nWelcome to the Cobalt programming language!")
	fmt.Println("Type 'exit' to leave.")
	fmt.Println("")

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to open the terminal: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	c := compiler.New()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return subcommands.ExitSuccess
		}
		if err != nil {
			return subcommands.ExitFailure
		}
		if line == "exit" {
			return subcommands.ExitSuccess
		}
		if line == "" {
			continue
		}

		lex := lexer.New(line)
		tokens, err := lex.Scan()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		p := parser.Make(tokens)
		statements, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			for _, pErr := range parseErrs {
				fmt.Fprintln(os.Stderr, pErr)
			}
			continue
		}
		if cmd.dumpAST {
			p.Print(statements)
		}

		// Compilation appends to the session's program; remember where the
		// buffer ended so a failed line's instructions can be cut off again.
		checkpoint := len(c.Bytecode())
		bytecode, err := c.Compile(statements)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			c.Truncate(checkpoint)
			continue
		}

		machine := vm.New(cmd.debug)
		if err := machine.Run(ctx, bytecode); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if top, ok := machine.Top(); ok {
			fmt.Println(top)
		}
	}
}
