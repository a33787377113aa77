package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/cobalt-lang/cobalt/manifest"
)

// initCmd scaffolds a cbproj.toml manifest in the current directory by
// prompting for the project metadata. It never touches the compile/run
// pipeline.
type initCmd struct{}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "Initialize a cbproj.toml file" }
func (*initCmd) Usage() string {
	return `init:
  Interactively create a cbproj.toml project manifest.
`
}
func (*initCmd) SetFlags(f *flag.FlagSet) {}

// prompt asks a single question. An empty answer selects the default; when
// allowEmpty is set an empty answer (and an empty default) is accepted as-is.
func prompt(rl *readline.Instance, label string, defaultValue string, allowEmpty bool) (string, error) {
	for {
		if defaultValue != "" {
			rl.SetPrompt(fmt.Sprintf("%s (%s): ", label, defaultValue))
		} else {
			rl.SetPrompt(fmt.Sprintf("%s: ", label))
		}
		line, err := rl.Readline()
		if err != nil {
			return "", err
		}
		answer := strings.TrimSpace(line)
		if answer == "" {
			answer = defaultValue
		}
		if answer != "" || allowEmpty {
			return answer, nil
		}
	}
}

func (*initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	currentDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to find the current working directory: %v\n", err)
		return subcommands.ExitFailure
	}

	rl, err := readline.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 Failed to open the terminal for prompts: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	name, err := prompt(rl, "Project name", filepath.Base(currentDir), false)
	if err != nil {
		return subcommands.ExitFailure
	}
	projectVersion, err := prompt(rl, "Project version", "0.1.0", false)
	if err != nil {
		return subcommands.ExitFailure
	}
	mainFile, err := prompt(rl, "Project's entry file", "main.src", false)
	if err != nil {
		return subcommands.ExitFailure
	}
	repo, err := prompt(rl, "Project repository link", "", true)
	if err != nil {
		return subcommands.ExitFailure
	}
	license, err := prompt(rl, "Project license", "MIT", true)
	if err != nil {
		return subcommands.ExitFailure
	}

	cbproj := manifest.CBProj{
		Project: manifest.Project{
			Name:       name,
			Version:    projectVersion,
			Main:       mainFile,
			Repository: repo,
			License:    license,
			Private:    true,
		},
	}

	path := filepath.Join(currentDir, manifest.FileName)
	if err := cbproj.Write(path); err != nil {
		fmt.Fprintf(os.Stderr, "💥 %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%s file created!\n", manifest.FileName)
	return subcommands.ExitSuccess
}
