package diagfmt

import (
	"strings"
	"testing"

	"guardlint/internal/diag"
	"guardlint/internal/source"
)

func guardBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("include/foo/bar.h", []byte("#ifndef BAR_H\n#define BAR_H\n#endif\n"))

	bag := diag.NewBag(10)
	nameSpan := source.Span{File: id, Start: 8, End: 13}
	d := diag.NewWarning(diag.GuardNonConformingName, nameSpan,
		"header guard does not follow preferred style").
		WithNote(source.Span{File: id, Start: 22, End: 27}, "expected guard name is 'FOO_BAR_H'").
		WithFix("rename guard to FOO_BAR_H",
			diag.TextEdit{Span: nameSpan, NewText: "FOO_BAR_H", OldText: "BAR_H"})
	bag.Add(d)
	return bag, fs
}

func TestPrettyHeadingAndUnderline(t *testing.T) {
	bag, fs := guardBag(t)

	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Context: 1})
	out := sb.String()

	if !strings.Contains(out, "include/foo/bar.h:1:9: WARNING GRD1001: header guard does not follow preferred style") {
		t.Errorf("missing heading:\n%s", out)
	}
	if !strings.Contains(out, "   1 | #ifndef BAR_H") {
		t.Errorf("missing context line:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~") {
		t.Errorf("missing caret underline sized to the span:\n%s", out)
	}
}

func TestPrettyNotesAndFixesToggle(t *testing.T) {
	bag, fs := guardBag(t)

	var quiet strings.Builder
	Pretty(&quiet, bag, fs, PrettyOpts{})
	if strings.Contains(quiet.String(), "note") || strings.Contains(quiet.String(), "fix available") {
		t.Errorf("notes/fixes must be off by default:\n%s", quiet.String())
	}

	var full strings.Builder
	Pretty(&full, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true})
	out := full.String()
	if !strings.Contains(out, "note: expected guard name is 'FOO_BAR_H'") {
		t.Errorf("missing note:\n%s", out)
	}
	if !strings.Contains(out, "fix available: rename guard to FOO_BAR_H") {
		t.Errorf("missing fix line:\n%s", out)
	}
}

func TestPrettyEmptyBag(t *testing.T) {
	fs := source.NewFileSet()
	var sb strings.Builder
	Pretty(&sb, diag.NewBag(10), fs, PrettyOpts{})
	if sb.Len() != 0 {
		t.Errorf("empty bag must render nothing, got %q", sb.String())
	}
}
