package main

import (
	"fmt"
	"time"

	flag "github.com/spf13/pflag"
)

// cliFlags holds all command-line flags.
type cliFlags struct {
	config    string
	output    string
	fill      string
	root      string
	workerBin string
	workers   int
	timeout   time.Duration
	verbose   bool
	quiet     bool
	version   bool
}

// usage is printed by --help and on flag errors.
const usage = `Usage: typst-bot [flags] input.typ [input.typ ...]

Renders the first page of each Typst source to a PNG. Compile errors are
printed as annotated reports against the source.

Flags:
%s
Environment:
  TYPST_BOT_CONFIG      config file path
  TYPST_BOT_WORKER_BIN  compiler worker binary
  TYPST_BOT_ROOT        sandbox root directory
  TYPST_BOT_FILL        background fill (hex)
  TYPST_BOT_TIMEOUT     per-operation timeout (e.g. 30s)
  TYPST_BOT_WORKERS     parallel renderers
`

// parseFlags parses args (including the program name) into flags and the
// positional input paths.
func parseFlags(args []string) (*cliFlags, []string, error) {
	flags := &cliFlags{}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.StringVarP(&flags.config, "config", "c", "", "config file path or name")
	fs.StringVarP(&flags.output, "output", "o", "", "output PNG path (single input only)")
	fs.StringVar(&flags.fill, "fill", "", "background fill as hex, e.g. #ffffff or #ffffff00")
	fs.StringVar(&flags.root, "root", "", "sandbox root for fonts and file references")
	fs.StringVar(&flags.workerBin, "worker-bin", "", "compiler worker binary")
	fs.IntVarP(&flags.workers, "workers", "w", 0, "parallel renderers (0 = auto)")
	fs.DurationVar(&flags.timeout, "timeout", 0, "per-operation worker timeout")
	fs.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&flags.quiet, "quiet", "q", false, "errors only")
	fs.BoolVar(&flags.version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage, fs.FlagUsages())
	}

	if err := fs.Parse(args[1:]); err != nil {
		return nil, nil, err
	}

	return flags, fs.Args(), nil
}
