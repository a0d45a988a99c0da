package typstbot

import "context"

// Compiler abstracts the external document compiler.
//
// A failed compilation returns the compiler's diagnostics; the error return
// is reserved for environment faults (worker unavailable, protocol
// breakage). Exactly one of document, diagnostics, or err is meaningful.
type Compiler interface {
	Compile(ctx context.Context, source string) (*Document, []Diagnostic, error)
}
