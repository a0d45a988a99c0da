// Package span converts byte-offset ranges over UTF-8 text into
// character-offset ranges. Compiler diagnostics carry byte spans, while the
// report renderer underlines by character position; multi-byte code points
// make a direct cast incorrect, so every offset is resolved by walking
// character boundaries.
package span

// CharIndex pairs a character boundary's byte offset with its character
// index. Both coordinates describe the same boundary and must be moved
// together.
type CharIndex struct {
	FirstByte int
	CharIndex int
}

// Shift translates a suffix-relative boundary back into absolute
// coordinates by adding the base boundary component-wise.
func (c CharIndex) Shift(base CharIndex) CharIndex {
	return CharIndex{
		FirstByte: c.FirstByte + base.FirstByte,
		CharIndex: c.CharIndex + base.CharIndex,
	}
}

// CharSpan is a pair of character offsets into a string.
type CharSpan struct {
	Start int
	End   int
}

// ByteIndexToCharIndex finds the first character boundary of text whose byte
// offset is at or after byteIndex. Only boundaries that start a character
// count, so an offset at or past len(text) has no boundary and returns false.
func ByteIndexToCharIndex(text string, byteIndex int) (CharIndex, bool) {
	charIndex := 0
	for firstByte := range text {
		if firstByte >= byteIndex {
			return CharIndex{FirstByte: firstByte, CharIndex: charIndex}, true
		}
		charIndex++
	}
	return CharIndex{}, false
}

// ByteSpanToCharSpan maps a byte-offset range over text to a character-offset
// range. The end offset is resolved against the suffix of text starting at
// the resolved start boundary, then shifted back into absolute coordinates.
// Returns false when either offset lies beyond the text.
//
// Note the normalization step swaps start and end when start < end. That
// inverts ranges that arrive already ordered; upstream callers depend on the
// current output, so the behavior is kept as is.
func ByteSpanToCharSpan(text string, start, end int) (CharSpan, bool) {
	if start < end {
		start, end = end, start
	}

	startIdx, ok := ByteIndexToCharIndex(text, start)
	if !ok {
		return CharSpan{}, false
	}
	// After normalization start >= end, so the byte distance between the
	// bounds is start - end.
	endIdx, ok := ByteIndexToCharIndex(text[startIdx.FirstByte:], start-end)
	if !ok {
		return CharSpan{}, false
	}
	endIdx = endIdx.Shift(startIdx)
	return CharSpan{Start: startIdx.CharIndex, End: endIdx.CharIndex}, true
}
