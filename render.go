package typstbot

import (
	"context"
	"fmt"
	"image/color"
	"time"

	"github.com/pachi/typst-bot/internal/sandbox"
)

// Compile-time interface implementation checks.
// These ensure implementations satisfy their interfaces at compile time,
// catching signature mismatches before runtime.
var (
	_ Compiler   = (*workerClient)(nil)
	_ Rasterizer = (*workerClient)(nil)
	_ Encoder    = pngEncoder{}
)

// White is the default background fill.
var White = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Renderer orchestrates the render pipeline: compile, scale, rasterize,
// encode. Create with NewRenderer, use Render for each source, and Close
// when done. A Renderer is not safe for concurrent use; run one per
// goroutine (see RendererPool).
type Renderer struct {
	cfg        rendererConfig
	compiler   Compiler
	rasterizer Rasterizer
	encoder    Encoder
	worker     *workerClient
}

// rendererConfig holds internal configuration for Renderer.
type rendererConfig struct {
	timeout     time.Duration
	workerBin   string
	sandboxRoot string
}

// defaultTimeout bounds a single compile or rasterize exchange with the
// worker when the caller's context carries no deadline.
const defaultTimeout = 30 * time.Second

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout sets the per-operation worker timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("typstbot: WithTimeout duration must be positive")
	}
	return func(r *Renderer) {
		r.cfg.timeout = d
	}
}

// WithWorkerBinary sets the path of the compiler worker executable used by
// the default backend.
func WithWorkerBinary(path string) Option {
	return func(r *Renderer) {
		r.cfg.workerBin = path
	}
}

// WithSandboxRoot sets the directory the worker may resolve fonts and file
// references from. Empty means the worker runs with no file access beyond
// its bundled fonts.
func WithSandboxRoot(root string) Option {
	return func(r *Renderer) {
		r.cfg.sandboxRoot = root
	}
}

// WithCompiler replaces the default worker-backed compiler.
func WithCompiler(c Compiler) Option {
	return func(r *Renderer) {
		r.compiler = c
	}
}

// WithRasterizer replaces the default worker-backed rasterizer.
func WithRasterizer(rz Rasterizer) Option {
	return func(r *Renderer) {
		r.rasterizer = rz
	}
}

// WithEncoder replaces the default PNG encoder.
func WithEncoder(e Encoder) Option {
	return func(r *Renderer) {
		r.encoder = e
	}
}

// NewRenderer creates a Renderer. Without WithCompiler/WithRasterizer it
// compiles and rasterizes through an external worker process, started lazily
// on first use.
func NewRenderer(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		cfg:     rendererConfig{timeout: defaultTimeout},
		encoder: pngEncoder{},
	}

	for _, opt := range opts {
		opt(r)
	}

	// Validate the sandbox root up front so a bad path fails here with a
	// clear error instead of surfacing later from inside the worker.
	if r.cfg.sandboxRoot != "" {
		sb, err := sandbox.New(r.cfg.sandboxRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSandboxRoot, err)
		}
		r.cfg.sandboxRoot = sb.Root()
	}

	if r.compiler == nil || r.rasterizer == nil {
		w, err := newWorkerClient(r.cfg.workerBin, r.cfg.sandboxRoot, r.cfg.timeout)
		if err != nil {
			return nil, err
		}
		r.worker = w
		if r.compiler == nil {
			r.compiler = w
		}
		if r.rasterizer == nil {
			r.rasterizer = w
		}
	}

	return r, nil
}

// Render compiles source and rasterizes its first page to a PNG filled with
// the given background color.
//
// Failures are reported as exactly one of: *DiagnosticsError (compile
// errors, formats into an annotated report), *TooBigError (a page dimension
// over the limit, X checked before Y), or ErrNoPages. No partial output is
// ever returned. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (r *Renderer) Render(ctx context.Context, fill color.NRGBA, source string) (out *Output, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()

	doc, diags, err := r.compiler.Compile(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("compiling source: %w", err)
	}
	if len(diags) > 0 {
		return nil, &DiagnosticsError{Source: NewSource(source), Diagnostics: diags}
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	page := doc.Pages[0]
	morePages := len(doc.Pages) - 1

	scale, err := pixelsPerPoint(page.Size)
	if err != nil {
		return nil, err
	}

	pixmap, err := r.rasterizer.Rasterize(ctx, page, scale, fill)
	if err != nil {
		return nil, fmt.Errorf("rasterizing page: %w", err)
	}

	image, err := r.encoder.Encode(pixmap)
	if err != nil {
		return nil, err
	}

	return &Output{Image: image, MorePages: morePages}, nil
}

// Close releases the worker process, if one was started.
func (r *Renderer) Close() error {
	if r.worker != nil {
		return r.worker.Close()
	}
	return nil
}
