package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/kazupon/rolldown/pkg/cli"
)

func main() {
	osArgs := os.Args[1:]
	traceFile := ""
	cpuprofileFile := ""

	// Profiling flags apply to the whole process, so they are handled here
	// and never reach the command line parser
	argsEnd := 0
	for _, arg := range osArgs {
		switch {
		case strings.HasPrefix(arg, "--trace="):
			traceFile = arg[len("--trace="):]

		case strings.HasPrefix(arg, "--cpuprofile="):
			cpuprofileFile = arg[len("--cpuprofile="):]

		default:
			osArgs[argsEnd] = arg
			argsEnd++
		}
	}
	osArgs = osArgs[:argsEnd]

	// Capture the defer statements below so that profiles are flushed before
	// the process exits
	exitCode := 1
	func() {
		// To view a CPU trace, use "go tool trace [file]"
		if traceFile != "" {
			f, err := os.Create(traceFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to create trace file: %v\n", err)
				return
			}
			defer f.Close()
			if err := trace.Start(f); err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to start trace: %v\n", err)
				return
			}
			defer trace.Stop()
		}

		// To view a CPU profile, drop the file into https://speedscope.app
		if cpuprofileFile != "" {
			f, err := os.Create(cpuprofileFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to create cpuprofile file: %v\n", err)
				return
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "error: failed to start cpu profile: %v\n", err)
				return
			}
			defer pprof.StopCPUProfile()
		} else {
			// The process renders once and exits, so garbage collection only
			// slows it down
			debug.SetGCPercent(-1)
		}

		exitCode = cli.Run(osArgs)
	}()

	os.Exit(exitCode)
}
