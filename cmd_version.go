package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/google/subcommands"
)

// version is the toolchain version reported by `cobalt version`.
const version = "0.1.0"

type versionCmd struct{}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "Print the cobalt version" }
func (*versionCmd) Usage() string            { return "version:\n  Print the cobalt version.\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (*versionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	appName := color.BlueString("cobalt")
	rest := color.New(color.Bold).Sprintf("%s/%s v%s", runtime.GOOS, runtime.GOARCH, version)
	fmt.Printf("%s %s\n", appName, rest)
	return subcommands.ExitSuccess
}
