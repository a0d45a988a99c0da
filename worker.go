package typstbot

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/pachi/typst-bot/internal/process"
	"github.com/pachi/typst-bot/internal/sandbox"
)

// defaultWorkerBinary is resolved from PATH when neither an explicit path
// nor TYPST_BOT_WORKER_BIN is configured.
const defaultWorkerBinary = "typst-worker"

// maxResponseLine caps a single worker response (a full-page pixel buffer
// is ~5.4MB of base64 at the pixel budget; 64MB leaves ample slack).
const maxResponseLine = 64 << 20

// workerRequest is one line of JSON sent to the worker.
type workerRequest struct {
	Op     string  `json:"op"` // "compile" or "render"
	Source string  `json:"source,omitempty"`
	Page   int     `json:"page,omitempty"`
	Scale  float32 `json:"scale,omitempty"`
	Fill   string  `json:"fill,omitempty"` // #rrggbbaa
}

// workerPage describes one compiled page: its physical size in points and
// the worker-side handle used to rasterize it later.
type workerPage struct {
	ID     int     `json:"id"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// workerDiagnostic is a compile error as reported by the worker.
type workerDiagnostic struct {
	Message string `json:"message"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Pos     string `json:"pos"` // "full", "start", or "end"
}

// workerFileRequest is a worker-initiated request for a file under the
// sandbox root, interleaved on stdout before the response to the operation
// in flight. Ordinary responses carry no "op" field, which is how the two
// are told apart.
type workerFileRequest struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// workerFileReply answers a workerFileRequest on the worker's stdin.
type workerFileReply struct {
	OK    bool   `json:"ok"`
	Data  string `json:"data,omitempty"` // base64 file contents
	Error string `json:"error,omitempty"`
}

// workerResponse is one line of JSON read back from the worker.
type workerResponse struct {
	OK          bool               `json:"ok"`
	Error       string             `json:"error,omitempty"`
	Pages       []workerPage       `json:"pages,omitempty"`
	Diagnostics []workerDiagnostic `json:"diagnostics,omitempty"`
	Width       int                `json:"width,omitempty"`
	Height      int                `json:"height,omitempty"`
	Pixels      string             `json:"pixels,omitempty"` // base64 RGBA8
}

// workerClient speaks newline-delimited JSON to an external compiler worker
// over its stdin/stdout, one request at a time. The worker holds the last
// compiled document so render requests can reference pages by handle.
// The worker is started lazily on first use.
type workerClient struct {
	bin     string
	sb      *sandbox.Sandbox // nil when no root is configured
	timeout time.Duration

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	out   *bufio.Scanner
}

// newWorkerClient configures a client without starting the process. A
// non-empty root confines the files served to the worker's read requests.
func newWorkerClient(bin, root string, timeout time.Duration) (*workerClient, error) {
	if bin == "" {
		bin = os.Getenv("TYPST_BOT_WORKER_BIN")
	}
	if bin == "" {
		bin = defaultWorkerBinary
	}

	var sb *sandbox.Sandbox
	if root != "" {
		var err error
		sb, err = sandbox.New(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSandboxRoot, err)
		}
	}
	return &workerClient{bin: bin, sb: sb, timeout: timeout}, nil
}

// ensureWorker starts the worker process if it is not already running.
// Callers must hold c.mu.
func (c *workerClient) ensureWorker() error {
	if c.cmd != nil {
		return nil
	}

	cmd := exec.Command(c.bin) // #nosec G204 -- binary path is operator-provided
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerStart, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerStart, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrWorkerStart, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxResponseLine)

	c.cmd = cmd
	c.stdin = stdin
	c.out = scanner
	return nil
}

// exchange sends one request and reads one response, enforcing the context
// deadline or the configured timeout, whichever is tighter. A timed-out or
// failed exchange kills the worker; the next call restarts it.
func (c *workerClient) exchange(ctx context.Context, req workerRequest) (*workerResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.ensureWorker(); err != nil {
		return nil, err
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	line, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding request: %v", ErrWorkerProtocol, err)
	}
	line = append(line, '\n')

	type result struct {
		resp *workerResponse
		err  error
	}
	done := make(chan result, 1)
	// The goroutine works on local copies of the pipe handles: kill() resets
	// the fields under c.mu while the goroutine may still be blocked in
	// Scan, and the goroutine must come back with an error, not a panic.
	stdin, out := c.stdin, c.out
	go func() {
		if _, err := stdin.Write(line); err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrCompilerCrash, err)}
			return
		}
		for {
			if !out.Scan() {
				err := out.Err()
				if err == nil {
					err = io.ErrUnexpectedEOF
				}
				done <- result{err: fmt.Errorf("%w: %v", ErrCompilerCrash, err)}
				return
			}

			// The worker may ask for sandboxed files before answering.
			var fileReq workerFileRequest
			if err := json.Unmarshal(out.Bytes(), &fileReq); err == nil && fileReq.Op == "read" {
				reply, err := json.Marshal(c.serveRead(fileReq.Path))
				if err == nil {
					_, err = stdin.Write(append(reply, '\n'))
				}
				if err != nil {
					done <- result{err: fmt.Errorf("%w: %v", ErrCompilerCrash, err)}
					return
				}
				continue
			}

			var resp workerResponse
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				done <- result{err: fmt.Errorf("%w: decoding response: %v", ErrWorkerProtocol, err)}
				return
			}
			done <- result{resp: &resp}
			return
		}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			c.kill()
			return nil, r.err
		}
		return r.resp, nil
	case <-ctx.Done():
		c.kill()
		return nil, ctx.Err()
	case <-time.After(timeout):
		c.kill()
		return nil, context.DeadlineExceeded
	}
}

// Compile submits source to the worker. Compile errors come back as
// diagnostics; anything else is an environment fault.
func (c *workerClient) Compile(ctx context.Context, source string) (*Document, []Diagnostic, error) {
	resp, err := c.exchange(ctx, workerRequest{Op: "compile", Source: source})
	if err != nil {
		return nil, nil, err
	}

	if !resp.OK {
		if len(resp.Diagnostics) == 0 {
			return nil, nil, fmt.Errorf("%w: compile failed without diagnostics: %s", ErrWorkerProtocol, resp.Error)
		}
		diags := make([]Diagnostic, len(resp.Diagnostics))
		for i, d := range resp.Diagnostics {
			diags[i] = Diagnostic{
				Message: d.Message,
				Span:    ByteSpan{Start: d.Start, End: d.End},
				Pos:     parseErrorPos(d.Pos),
			}
		}
		return nil, diags, nil
	}

	doc := &Document{Pages: make([]Page, len(resp.Pages))}
	for i, p := range resp.Pages {
		doc.Pages[i] = Page{
			Size:    Size{Width: p.Width, Height: p.Height},
			Content: p.ID,
		}
	}
	return doc, nil, nil
}

// Rasterize asks the worker to render a page of the last compiled document.
func (c *workerClient) Rasterize(ctx context.Context, page Page, pixelsPerPoint float32, fill color.NRGBA) (*Pixmap, error) {
	id, ok := page.Content.(int)
	if !ok {
		return nil, fmt.Errorf("%w: page content is not a worker page handle", ErrWorkerProtocol)
	}

	resp, err := c.exchange(ctx, workerRequest{
		Op:    "render",
		Page:  id,
		Scale: pixelsPerPoint,
		Fill:  fmt.Sprintf("#%02x%02x%02x%02x", fill.R, fill.G, fill.B, fill.A),
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: render failed: %s", ErrWorkerProtocol, resp.Error)
	}

	pix, err := base64.StdEncoding.DecodeString(resp.Pixels)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding pixels: %v", ErrWorkerProtocol, err)
	}
	pm := PixmapFrom(resp.Width, resp.Height, pix)
	if pm == nil {
		return nil, fmt.Errorf("%w: pixel buffer is %d bytes, want %d for %dx%d",
			ErrWorkerProtocol, len(pix), resp.Width*resp.Height*4, resp.Width, resp.Height)
	}
	return pm, nil
}

// serveRead answers a worker file request from the sandbox. c.sb is set
// once at construction, so this is safe to call off the exchange goroutine.
func (c *workerClient) serveRead(name string) workerFileReply {
	if c.sb == nil {
		return workerFileReply{Error: "no sandbox root configured"}
	}
	data, err := c.sb.ReadFile(name)
	if err != nil {
		return workerFileReply{Error: err.Error()}
	}
	return workerFileReply{OK: true, Data: base64.StdEncoding.EncodeToString(data)}
}

// kill terminates a wedged or broken worker. Callers must hold c.mu.
func (c *workerClient) kill() {
	if c.cmd == nil {
		return
	}
	_ = c.stdin.Close()
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
		// Best-effort cleanup of any children the worker spawned.
		process.KillProcessGroup(c.cmd.Process.Pid)
	}
	_ = c.cmd.Wait()
	c.cmd = nil
	c.stdin = nil
	c.out = nil
}

// Close shuts the worker down. Safe to call when the worker never started.
func (c *workerClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return nil
	}
	// Closing stdin asks the worker to exit; give it a moment before the
	// hard kill. Wait may only be called once per command, so the fallback
	// kills the process and then collects the same pending Wait result.
	_ = c.stdin.Close()
	cmd := c.cmd
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
			process.KillProcessGroup(cmd.Process.Pid)
		}
		<-done
	}
	c.cmd = nil
	c.stdin = nil
	c.out = nil
	return err
}

// parseErrorPos maps the wire position kind onto ErrorPos, defaulting to
// the full span.
func parseErrorPos(s string) ErrorPos {
	switch s {
	case "start":
		return PosStart
	case "end":
		return PosEnd
	default:
		return PosFull
	}
}
