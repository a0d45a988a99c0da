package typstbot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pachi/typst-bot/internal/report"
	"github.com/pachi/typst-bot/internal/span"
)

// Sentinel errors for render operations.
var (
	ErrNoPages     = errors.New("no pages in rendered output")
	ErrEncodeImage = errors.New("PNG encoding failed")

	// Worker backend errors.
	ErrWorkerStart    = errors.New("failed to start compiler worker")
	ErrWorkerProtocol = errors.New("compiler worker protocol error")
	ErrCompilerCrash  = errors.New("compiler worker exited unexpectedly")

	// Sandbox errors.
	ErrInvalidSandboxRoot = errors.New("invalid sandbox root")
)

// Axis names a page dimension for size-limit errors.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "Y"
	}
	return "X"
}

// TooBigError reports a page whose physical size exceeds the rendering
// limit. The X axis is always checked first, so a page oversized on both
// axes reports X.
type TooBigError struct {
	Axis Axis
	Size float32
}

func (e *TooBigError) Error() string {
	return fmt.Sprintf("rendered output was too big: the %s axis was %v pt but the maximum is %v",
		e.Axis, e.Size, float32(maxSize))
}

// DiagnosticsError is a compile failure: the diagnostics together with the
// source text needed to position them.
type DiagnosticsError struct {
	Source      Source
	Diagnostics []Diagnostic
}

// Report renders every diagnostic as an annotated plain-text block, in
// order, concatenated with nothing in between. Rendering is pure and
// repeatable. It fails as a whole when any diagnostic's byte span cannot be
// mapped onto the source text; no partial report is returned.
func (e *DiagnosticsError) Report() (string, error) {
	var b strings.Builder
	for _, d := range e.Diagnostics {
		s := d.Span
		switch d.Pos {
		case PosStart:
			s = ByteSpan{Start: s.Start, End: s.Start}
		case PosEnd:
			s = ByteSpan{Start: s.End, End: s.End}
		}

		cs, ok := span.ByteSpanToCharSpan(e.Source.Text, s.Start, s.End)
		if !ok {
			return "", fmt.Errorf("diagnostic span %d..%d does not map onto the source text", s.Start, s.End)
		}

		rs := report.Span{Start: cs.Start, End: cs.End}
		if err := report.Render(&b, e.Source.ID, e.Source.Text, d.Message, rs); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Error returns the rendered report. When report rendering itself fails the
// failure is surfaced in the message rather than swallowed.
func (e *DiagnosticsError) Error() string {
	s, err := e.Report()
	if err != nil {
		return fmt.Sprintf("compilation failed with %d error(s); report unavailable: %v", len(e.Diagnostics), err)
	}
	return s
}
