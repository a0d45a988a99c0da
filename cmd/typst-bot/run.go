package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	typstbot "github.com/pachi/typst-bot"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput          = errors.New("no input specified")
	ErrReadSource       = errors.New("failed to read source file")
	ErrWriteImage       = errors.New("failed to write PNG file")
	ErrInvalidExtension = errors.New("file must have .typ extension")
	ErrInvalidFill      = errors.New("invalid fill color")
	ErrOutputWithMany   = errors.New("--output requires exactly one input")
)

// filePermissions is the mode for written PNG files (rw-r--r--).
const filePermissions = 0o644

// settings is the merged configuration for a run: flag > env > file > default.
type settings struct {
	workerBin string
	root      string
	fill      string
	timeout   time.Duration
	workers   int
}

// resolveSettings merges flags, environment, and file config by precedence.
func resolveSettings(flags *cliFlags, env *envConfig, cfg *Config) (settings, error) {
	cfgTimeout, err := cfg.Worker.ParsedTimeout()
	if err != nil {
		return settings{}, err
	}

	s := settings{
		workerBin: cfg.Worker.Binary,
		root:      cfg.Sandbox.Root,
		fill:      cfg.Render.Fill,
		timeout:   cfgTimeout,
		workers:   cfg.Workers,
	}

	if env.WorkerBin != "" {
		s.workerBin = env.WorkerBin
	}
	if env.Root != "" {
		s.root = env.Root
	}
	if env.Fill != "" {
		s.fill = env.Fill
	}
	if env.Timeout > 0 {
		s.timeout = env.Timeout
	}
	if env.Workers > 0 {
		s.workers = env.Workers
	}

	if flags.workerBin != "" {
		s.workerBin = flags.workerBin
	}
	if flags.root != "" {
		s.root = flags.root
	}
	if flags.fill != "" {
		s.fill = flags.fill
	}
	if flags.timeout > 0 {
		s.timeout = flags.timeout
	}
	if flags.workers > 0 {
		s.workers = flags.workers
	}

	return s, nil
}

// parseFill parses a hex color like #rrggbb or #rrggbbaa. Empty means white.
func parseFill(s string) (color.NRGBA, error) {
	if s == "" {
		return typstbot.White, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}

	v, err := strconv.ParseUint(hex, 16, 64)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}

	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// outputPath derives the PNG path for an input, honoring --output for a
// single input.
func outputPath(input, flagOutput string) string {
	if flagOutput != "" {
		return flagOutput
	}
	return strings.TrimSuffix(input, ".typ") + ".png"
}

// renderResult holds the outcome of rendering a single input.
type renderResult struct {
	input  string
	output string
	more   int
	err    error
}

// run renders every input, in parallel across a renderer pool.
func run(flags *cliFlags, inputs []string, logger *log.Logger) error {
	warnUnknownEnvVars(os.Stderr)
	env := loadEnvConfig()

	cfg := DefaultConfig()
	configPath := flags.config
	if configPath == "" {
		configPath = env.ConfigPath
	}
	if configPath != "" {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}

	s, err := resolveSettings(flags, env, cfg)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		return ErrNoInput
	}
	if flags.output != "" && len(inputs) != 1 {
		return ErrOutputWithMany
	}
	for _, input := range inputs {
		if !strings.HasSuffix(input, ".typ") {
			return fmt.Errorf("%w: %s", ErrInvalidExtension, input)
		}
	}

	fill, err := parseFill(s.fill)
	if err != nil {
		return err
	}

	var opts []typstbot.Option
	if s.workerBin != "" {
		opts = append(opts, typstbot.WithWorkerBinary(s.workerBin))
	}
	if s.root != "" {
		opts = append(opts, typstbot.WithSandboxRoot(s.root))
	}
	if s.timeout > 0 {
		opts = append(opts, typstbot.WithTimeout(s.timeout))
	}

	poolSize := typstbot.ResolvePoolSize(s.workers)
	if poolSize > len(inputs) {
		poolSize = len(inputs)
	}
	logger.Debug("starting renderer pool", "size", poolSize)

	pool := typstbot.NewRendererPool(poolSize, opts...)
	defer pool.Close()

	results := make([]renderResult, len(inputs))
	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(i int, input string) {
			defer wg.Done()
			results[i] = renderOne(context.Background(), pool, fill, input, outputPath(input, flags.output))
		}(i, input)
	}
	wg.Wait()

	var errs []error
	for _, res := range results {
		if res.err != nil {
			reportFailure(logger, res)
			errs = append(errs, fmt.Errorf("%s: %w", res.input, res.err))
			continue
		}
		logger.Info("rendered", "input", res.input, "output", res.output)
		if res.more > 0 {
			logger.Warn(fmt.Sprintf("%d more page(s) were not rendered", res.more), "input", res.input)
		}
	}
	return errors.Join(errs...)
}

// renderOne renders a single input file to its output path.
func renderOne(ctx context.Context, pool *typstbot.RendererPool, fill color.NRGBA, input, output string) renderResult {
	res := renderResult{input: input, output: output}

	source, err := os.ReadFile(input) // #nosec G304 -- input path is user-provided
	if err != nil {
		res.err = fmt.Errorf("%w: %v", ErrReadSource, err)
		return res
	}

	r, err := pool.Acquire()
	if err != nil {
		res.err = err
		return res
	}
	defer pool.Release(r)

	out, err := r.Render(ctx, fill, string(source))
	if err != nil {
		res.err = err
		return res
	}

	if err := os.WriteFile(output, out.Image, filePermissions); err != nil {
		res.err = fmt.Errorf("%w: %v", ErrWriteImage, err)
		return res
	}
	res.more = out.MorePages
	return res
}

// reportFailure prints a failed result. Compile diagnostics go to stderr
// verbatim so the annotated report stays machine-greppable; everything else
// goes through the logger.
func reportFailure(logger *log.Logger, res renderResult) {
	var diagErr *typstbot.DiagnosticsError
	if errors.As(res.err, &diagErr) {
		logger.Error("compilation failed", "input", res.input)
		fmt.Fprint(os.Stderr, diagErr.Error())
		return
	}
	logger.Error("render failed", "input", res.input, "err", res.err)
}
