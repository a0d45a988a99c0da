// Package report renders compiler diagnostics as Rust-style annotated text
// blocks: a severity header, the offending source lines, and an underline
// anchored at a character span. Output is plain text with no ANSI escapes,
// suitable for any terminal or log sink.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// TabWidth is the number of columns a tab occupies in rendered source lines.
const TabWidth = 2

// ErrSpanOutOfRange indicates a span's character offsets lie beyond the
// source text.
var ErrSpanOutOfRange = errors.New("report: span out of range")

// Span is a character-offset range into the source text. A zero-width span
// (Start == End) marks a single position.
type Span struct {
	Start int
	End   int
}

// sourceLine is one line of the source with its character-offset range.
// The range excludes the trailing newline.
type sourceLine struct {
	number int // 1-based
	start  int // char offset of first character
	end    int // char offset one past the last character
	text   string
}

// splitLines breaks source into lines annotated with character offsets.
func splitLines(source string) []sourceLine {
	var lines []sourceLine
	offset := 0
	for i, text := range strings.Split(source, "\n") {
		n := len([]rune(text))
		lines = append(lines, sourceLine{
			number: i + 1,
			start:  offset,
			end:    offset + n,
			text:   text,
		})
		offset += n + 1 // +1 for the newline
	}
	return lines
}

// Render writes one diagnostic block to w: the severity line, a location
// header naming fileName, and each source line the span touches with an
// underline beneath it. Returns ErrSpanOutOfRange when the span does not fit
// the source.
func Render(w io.Writer, fileName, source, message string, span Span) error {
	if span.End < span.Start {
		span.Start, span.End = span.End, span.Start
	}

	total := len([]rune(source))
	if span.Start > total || span.End > total {
		return fmt.Errorf("%w: %d..%d over %d characters", ErrSpanOutOfRange, span.Start, span.End, total)
	}

	lines := splitLines(source)
	touched := touchedLines(lines, span)
	if len(touched) == 0 {
		return fmt.Errorf("%w: %d..%d has no source line", ErrSpanOutOfRange, span.Start, span.End)
	}

	first := touched[0]
	gutter := len(fmt.Sprintf("%d", touched[len(touched)-1].number))

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", message)
	fmt.Fprintf(&b, "%s--> %s:%d:%d\n", strings.Repeat(" ", gutter+1), fileName, first.number, span.Start-first.start+1)
	fmt.Fprintf(&b, "%s |\n", strings.Repeat(" ", gutter))

	for _, line := range touched {
		expanded, cols := expandTabs(line.text)
		fmt.Fprintf(&b, "%*d | %s\n", gutter, line.number, expanded)
		fmt.Fprintf(&b, "%s | %s\n", strings.Repeat(" ", gutter), underline(line, cols, span))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// touchedLines returns the lines the span overlaps. A zero-width span
// touches the line containing its position, including the position just
// past the line's final character.
func touchedLines(lines []sourceLine, span Span) []sourceLine {
	var touched []sourceLine
	for _, line := range lines {
		if span.Start <= line.end && span.End >= line.start {
			touched = append(touched, line)
		}
	}
	return touched
}

// expandTabs replaces tabs with spaces and returns, for each character of
// the original line, the display column it starts at plus a final entry for
// the end-of-line column.
func expandTabs(text string) (string, []int) {
	var b strings.Builder
	runes := []rune(text)
	cols := make([]int, 0, len(runes)+1)
	col := 0
	for _, r := range runes {
		cols = append(cols, col)
		if r == '\t' {
			pad := TabWidth - col%TabWidth
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col++
	}
	cols = append(cols, col)
	return b.String(), cols
}

// underline builds the caret line for one source line. cols maps the line's
// character indices to display columns as produced by expandTabs.
func underline(line sourceLine, cols []int, span Span) string {
	start := span.Start
	if start < line.start {
		start = line.start
	}
	end := span.End
	if end > line.end {
		end = line.end
	}

	fromCol := cols[start-line.start]
	toCol := cols[end-line.start]
	width := toCol - fromCol
	if width < 1 {
		width = 1 // zero-width spans still get a caret
	}
	return strings.Repeat(" ", fromCol) + strings.Repeat("^", width)
}
