package typstbot

import (
	"strings"
	"testing"
)

func TestDiagnosticsErrorReportPositionKinds(t *testing.T) {
	source := "héllo world"

	tests := []struct {
		name       string
		diag       Diagnostic
		wantAnchor string
	}{
		{
			name:       "start collapses to span start",
			diag:       Diagnostic{Message: "syntax error", Span: ByteSpan{Start: 5, End: 7}, Pos: PosStart},
			wantAnchor: "source.typ:1:5", // byte 5 is char 4
		},
		{
			name:       "end collapses to span end",
			diag:       Diagnostic{Message: "syntax error", Span: ByteSpan{Start: 5, End: 7}, Pos: PosEnd},
			wantAnchor: "source.typ:1:7", // byte 7 is char 6
		},
		{
			name:       "full keeps the span",
			diag:       Diagnostic{Message: "syntax error", Span: ByteSpan{Start: 7, End: 7}, Pos: PosFull},
			wantAnchor: "source.typ:1:7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &DiagnosticsError{Source: NewSource(source), Diagnostics: []Diagnostic{tt.diag}}
			report, err := e.Report()
			if err != nil {
				t.Fatalf("Report: %v", err)
			}
			if !strings.Contains(report, "Error: syntax error") {
				t.Errorf("report missing severity and message:\n%s", report)
			}
			if !strings.Contains(report, tt.wantAnchor) {
				t.Errorf("report = %q, want anchor %q", report, tt.wantAnchor)
			}
		})
	}
}

func TestDiagnosticsErrorReportConcatenatesBlocks(t *testing.T) {
	e := &DiagnosticsError{
		Source: NewSource("a b c"),
		Diagnostics: []Diagnostic{
			{Message: "first problem", Span: ByteSpan{Start: 0, End: 0}},
			{Message: "second problem", Span: ByteSpan{Start: 2, End: 2}},
		},
	}

	report, err := e.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}

	firstAt := strings.Index(report, "first problem")
	secondAt := strings.Index(report, "second problem")
	if firstAt < 0 || secondAt < 0 {
		t.Fatalf("report missing a block:\n%s", report)
	}
	if firstAt > secondAt {
		t.Error("blocks not emitted in diagnostic order")
	}
}

func TestDiagnosticsErrorReportIsRepeatable(t *testing.T) {
	e := &DiagnosticsError{
		Source:      NewSource("héllo"),
		Diagnostics: []Diagnostic{{Message: "oops", Span: ByteSpan{Start: 3, End: 3}}},
	}

	first, err := e.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	second, err := e.Report()
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if first != second {
		t.Error("Report is not repeatable")
	}
}

func TestDiagnosticsErrorReportFailsWhole(t *testing.T) {
	// The second span is beyond the text; no partial report may survive.
	e := &DiagnosticsError{
		Source: NewSource("short"),
		Diagnostics: []Diagnostic{
			{Message: "fine", Span: ByteSpan{Start: 1, End: 1}},
			{Message: "broken", Span: ByteSpan{Start: 99, End: 99}},
		},
	}

	report, err := e.Report()
	if err == nil {
		t.Fatal("Report succeeded with an unmappable span")
	}
	if report != "" {
		t.Errorf("Report returned partial output: %q", report)
	}
}

func TestDiagnosticsErrorErrorSurfacesFormatFailure(t *testing.T) {
	e := &DiagnosticsError{
		Source:      NewSource("short"),
		Diagnostics: []Diagnostic{{Message: "broken", Span: ByteSpan{Start: 99, End: 99}}},
	}

	msg := e.Error()
	if msg == "" {
		t.Fatal("Error() returned an empty string for an unformattable report")
	}
	if !strings.Contains(msg, "report unavailable") {
		t.Errorf("Error() = %q, want the formatting failure surfaced", msg)
	}
}

func TestTooBigErrorMessage(t *testing.T) {
	e := &TooBigError{Axis: AxisY, Size: 1200.5}
	msg := e.Error()
	for _, fragment := range []string{"too big", "Y", "1200.5", "1000"} {
		if !strings.Contains(msg, fragment) {
			t.Errorf("Error() = %q, want it to mention %q", msg, fragment)
		}
	}
}
