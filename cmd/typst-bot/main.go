// Command typst-bot renders Typst sources to PNG images of their first page
// and prints annotated compile-error reports.
package main

import (
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	flags, inputs, err := parseFlags(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitUsage)
	}

	if flags.version {
		fmt.Printf("typst-bot %s\n", Version)
		return
	}

	logger := newLogger(os.Stderr, flags.verbose, flags.quiet)

	// Configure GOMAXPROCS for containers. Error ignored: maxprocs.Set only
	// fails if the GOMAXPROCS env is invalid, in which case Go runtime
	// defaults apply and the program continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(logger.Debugf))

	if err := run(flags, inputs, logger); err != nil {
		logger.Error(err.Error())
		os.Exit(exitCodeFor(err))
	}
}
