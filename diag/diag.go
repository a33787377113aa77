// Package diag is the diagnostic reporter shared by the compiler and VM
// command paths. Every stage of the pipeline surfaces its first error as a
// typed value; this package owns how those errors reach the user: a colored
// severity prefix, the error's own message (which carries the position), and
// nothing else. Diagnostics always go to the standard error stream.
package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var errorPrefix = color.New(color.FgRed, color.Bold)

// DisableColor turns off colored output for every diagnostic. Used when the
// user sets COBALT_NO_COLOR.
func DisableColor() {
	color.NoColor = true
}

// Report writes a single diagnostic for err to w. The stage names the
// pipeline phase that failed ("build", "run", ...).
func Report(w io.Writer, stage string, err error) {
	fmt.Fprintf(w, "%s %v\n", errorPrefix.Sprintf("%s error:", stage), err)
}
