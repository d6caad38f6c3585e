// This package implements the "rolldown" command line. It loads the config
// file, turns it into build options and prints a summary of what was written.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kazupon/rolldown/internal/exitcode"
)

// Set by the linker when building a release
var Version = "0.1.0"

// Run executes the command line and returns the exit code
func Run(osArgs []string) int {
	return run(context.Background(), osArgs, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr *os.File) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
	}
	return exitcode.Get(err)
}
