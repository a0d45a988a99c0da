// Package typstbot renders Typst documents to PNG images and formats
// compile errors as annotated plain-text reports.
//
// # Quick Start
//
// Create a renderer, render a source, and close when done:
//
//	r, err := typstbot.NewRenderer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	out, err := r.Render(ctx, typstbot.White, "= Hello")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("page.png", out.Image, 0644)
//
// Only the first page is rendered; out.MorePages reports how many pages were
// skipped. The rendering scale is chosen so the output pixel count stays
// near-constant regardless of the page's aspect ratio, and either page
// dimension over 1000pt fails the render.
//
// # Errors
//
// Render failures are values, never panics:
//
//   - *DiagnosticsError: the source did not compile. Its Error method (and
//     the Report method) formats each diagnostic as a plain-text block with
//     the offending source line and an underline at the error's position.
//   - *TooBigError: a page dimension exceeds the limit; carries which axis
//     and the measured size.
//   - ErrNoPages: the compiled document has no pages.
//
// # Pipeline
//
// Rendering follows these stages:
//
//  1. Compile the source through the worker process
//  2. Derive the pixels-per-point scale from the first page's size
//  3. Rasterize the first page at that scale over a background fill
//  4. Encode the pixels as an RGBA8 PNG
//
// # Configuration
//
// Use functional options to customize the renderer:
//
//	r, err := typstbot.NewRenderer(
//	    typstbot.WithTimeout(10 * time.Second),
//	    typstbot.WithWorkerBinary("/usr/local/bin/typst-worker"),
//	    typstbot.WithSandboxRoot("/srv/fonts"),
//	)
//
// The compiler, rasterizer, and encoder are injectable interfaces
// (WithCompiler, WithRasterizer, WithEncoder), so the pipeline can run
// against deterministic fakes in tests.
//
// # Parallel Rendering
//
// A Renderer runs one request at a time. For batch rendering, use
// RendererPool to manage multiple worker processes:
//
//	pool := typstbot.NewRendererPool(4)
//	defer pool.Close()
//
//	r, err := pool.Acquire()
//	defer pool.Release(r)
//	out, err := r.Render(ctx, typstbot.White, source)
package typstbot
