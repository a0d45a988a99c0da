package typstbot

// SourceFileName is the fixed logical file name diagnostics are reported
// against. Sources arrive as strings, not files, so reports never show a
// real filesystem path.
const SourceFileName = "source.typ"

// Source is a UTF-8 source text together with its logical identifier.
type Source struct {
	Text string
	ID   string
}

// NewSource wraps text with the fixed logical file name.
func NewSource(text string) Source {
	return Source{Text: text, ID: SourceFileName}
}

// ByteSpan is a byte-offset range into a source text, as emitted by the
// compiler.
type ByteSpan struct {
	Start int
	End   int
}

// ErrorPos classifies which part of a diagnostic's span is highlighted.
type ErrorPos int

const (
	// PosFull highlights the whole span.
	PosFull ErrorPos = iota
	// PosStart collapses the highlight to the span's start.
	PosStart
	// PosEnd collapses the highlight to the span's end.
	PosEnd
)

// Diagnostic is one compile-time error: a message, a byte span into the
// originating source, and the position kind.
type Diagnostic struct {
	Message string
	Span    ByteSpan
	Pos     ErrorPos
}

// Size is a page's physical size in typographic points.
type Size struct {
	Width  float64
	Height float64
}

// Page is one page of a compiled document. Content is an opaque handle
// understood by the rasterizer paired with the compiler that produced the
// document; this package never inspects it.
type Page struct {
	Size    Size
	Content any
}

// Document is the ordered page sequence produced by a compiler. Immutable
// once produced; consumed within a single render invocation.
type Document struct {
	Pages []Page
}

// Output is a successful render: the encoded PNG of the first page, and the
// count of pages beyond the first that were not rendered (0 means the
// document had exactly one page).
type Output struct {
	Image     []byte
	MorePages int
}
