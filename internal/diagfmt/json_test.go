package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"guardlint/internal/diag"
	"guardlint/internal/source"
)

func TestBuildDiagnosticsOutput(t *testing.T) {
	bag, fs := guardBag(t)

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
	})

	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("output = %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "GRD1001" || d.Severity != "WARNING" {
		t.Errorf("diagnostic = %+v", d)
	}
	if d.Location.File != "include/foo/bar.h" {
		t.Errorf("file = %q", d.Location.File)
	}
	if d.Location.StartLine != 1 || d.Location.StartCol != 9 {
		t.Errorf("position = %+v", d.Location)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	if d.Fixes[0].Edits[0].NewText != "FOO_BAR_H" {
		t.Errorf("edit = %+v", d.Fixes[0].Edits[0])
	}
}

func TestBuildDiagnosticsOutputTruncation(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.h", []byte("abc\n"))
	bag := diag.NewBag(10)
	for i := 0; i < 5; i++ {
		bag.Add(diag.NewWarning(diag.GuardMissing, source.At(id, uint32(i)), "m"))
	}

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 2})
	if len(out.Diagnostics) != 2 {
		t.Fatalf("truncated to %d, want 2", len(out.Diagnostics))
	}
	// Count still reflects the whole bag.
	if out.Count != 5 {
		t.Fatalf("count = %d, want 5", out.Count)
	}
}

func TestJSONRoundTrips(t *testing.T) {
	bag, fs := guardBag(t)

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true}); err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Count != 1 {
		t.Fatalf("decoded = %+v", decoded)
	}
}
