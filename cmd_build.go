package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/cobalt-lang/cobalt/compiler"
	"github.com/cobalt-lang/cobalt/diag"
	"github.com/cobalt-lang/cobalt/lexer"
	"github.com/cobalt-lang/cobalt/parser"
)

// buildCmd compiles a .src source file into a .bc bytecode file. It is
// registered twice, as `build` and as `compile`.
type buildCmd struct {
	name        string
	output      string
	debug       bool
	disassemble bool
}

func (cmd *buildCmd) Name() string { return cmd.name }
func (cmd *buildCmd) Synopsis() string {
	return "Compile a Cobalt source file into a bytecode file"
}
func (cmd *buildCmd) Usage() string {
	return fmt.Sprintf(`%s <file.src> [-o <output-name>] [-debug] [-disassemble]:
  Compile a .src file into .bc (bytecode).
`, cmd.name)
}

func (cmd *buildCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "the name of the output file, without extension. Defaults to the source file's stem.")
	f.BoolVar(&cmd.debug, "debug", cfg.Debug, "print the tokens, the AST and the bytecode produced by each stage.")
	f.BoolVar(&cmd.disassemble, "disassemble", false, "write a human readable bytecode listing next to the output file.")
}

func (cmd *buildCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "💥 File not provided\n")
		return subcommands.ExitUsageError
	}
	sourceFile := args[0]

	data, err := os.ReadFile(sourceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	tokens, err := lex.Scan()
	if err != nil {
		diag.Report(os.Stderr, "build", err)
		return subcommands.ExitFailure
	}
	if cmd.debug {
		for _, tok := range tokens {
			fmt.Println(tok)
		}
	}

	p := parser.Make(tokens)
	statements, parseErrs := p.Parse()
	if len(parseErrs) > 0 {
		for _, pErr := range parseErrs {
			diag.Report(os.Stderr, "build", pErr)
		}
		return subcommands.ExitFailure
	}
	if cmd.debug {
		p.Print(statements)
	}

	c := compiler.New()
	bytecode, err := c.Compile(statements)
	if err != nil {
		diag.Report(os.Stderr, "build", err)
		return subcommands.ExitFailure
	}

	outputName := cmd.output
	if outputName == "" {
		outputName = strings.TrimSuffix(sourceFile, ".src")
	}

	if cmd.debug {
		listing, dErr := compiler.Disassemble(bytecode)
		if dErr == nil {
			fmt.Print(listing)
		}
	}
	if cmd.disassemble {
		if dErr := compiler.WriteDisassembly(bytecode, outputName); dErr != nil {
			diag.Report(os.Stderr, "build", dErr)
			return subcommands.ExitFailure
		}
	}

	outputFile := outputName + ".bc"
	if err := os.WriteFile(outputFile, bytecode, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to write file: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Successfully wrote %d bytes to '%s'\n", len(bytecode), outputFile)
	return subcommands.ExitSuccess
}
