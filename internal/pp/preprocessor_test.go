package pp

import (
	"os"
	"path/filepath"
	"testing"

	"guardlint/internal/diag"
	"guardlint/internal/guard"
	"guardlint/internal/source"
)

// recordingSink captures every event in arrival order.
type recordingSink struct {
	entered    []string
	ifndefs    []recordedIfndef
	defines    []recordedDefine
	endifs     []recordedEndif
	endOfUnits int
}

type recordedIfndef struct {
	directive, name source.Span
	macro           source.StringID
	alreadyDefined  bool
}

type recordedDefine struct {
	name  source.Span
	macro source.StringID
	def   guard.DefID
}

type recordedEndif struct {
	endif, opening source.Span
}

func (s *recordingSink) EnterFile(path string, file source.FileID, origin guard.Origin) {
	s.entered = append(s.entered, path)
}

func (s *recordingSink) Ifndef(directive, name source.Span, macro source.StringID, alreadyDefined bool) {
	s.ifndefs = append(s.ifndefs, recordedIfndef{directive, name, macro, alreadyDefined})
}

func (s *recordingSink) MacroDefined(name source.Span, macro source.StringID, def guard.DefID) {
	s.defines = append(s.defines, recordedDefine{name, macro, def})
}

func (s *recordingSink) Endif(endif, opening source.Span) {
	s.endifs = append(s.endifs, recordedEndif{endif, opening})
}

func (s *recordingSink) EndOfUnit() {
	s.endOfUnits++
}

func runVirtual(t *testing.T, files map[string]string, root string) (*recordingSink, *source.FileSet, *source.Interner, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	names := source.NewInterner()
	bag := diag.NewBag(100)

	var rootID source.FileID
	// Add the root last so includes resolve through GetByPath first.
	for path, content := range files {
		id := fs.AddVirtual(path, []byte(content))
		if path == root {
			rootID = id
		}
	}

	sink := &recordingSink{}
	p := New(fs, names, diag.BagReporter{Bag: bag}, Options{})
	p.RunFile(rootID, sink)
	return sink, fs, names, bag
}

func TestPreprocessorGuardEvents(t *testing.T) {
	content := "#ifndef FOO_H\n#define FOO_H\nint x;\n#endif\n"
	sink, fs, names, bag := runVirtual(t, map[string]string{"foo.h": content}, "foo.h")

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if sink.endOfUnits != 1 {
		t.Fatalf("expected exactly one EndOfUnit, got %d", sink.endOfUnits)
	}
	if len(sink.entered) != 1 || sink.entered[0] != "foo.h" {
		t.Fatalf("entered = %v", sink.entered)
	}

	if len(sink.ifndefs) != 1 {
		t.Fatalf("expected 1 ifndef event, got %d", len(sink.ifndefs))
	}
	iv := sink.ifndefs[0]
	if iv.alreadyDefined {
		t.Error("guard test must be live on first inclusion")
	}
	if got := string(fs.Text(iv.name)); got != "FOO_H" {
		t.Errorf("ifndef name text = %q", got)
	}
	if names.MustLookup(iv.macro) != "FOO_H" {
		t.Errorf("interned macro = %q", names.MustLookup(iv.macro))
	}

	if len(sink.defines) != 1 {
		t.Fatalf("expected 1 define event, got %d", len(sink.defines))
	}
	if got := string(fs.Text(sink.defines[0].name)); got != "FOO_H" {
		t.Errorf("define name text = %q", got)
	}

	if len(sink.endifs) != 1 {
		t.Fatalf("expected 1 endif event, got %d", len(sink.endifs))
	}
	if sink.endifs[0].opening != iv.directive {
		t.Error("endif must pair with the opening #ifndef directive span")
	}
	if got := string(fs.Text(sink.endifs[0].endif)); got != "endif" {
		t.Errorf("endif keyword text = %q", got)
	}
}

func TestPreprocessorGuardedReinclusion(t *testing.T) {
	files := map[string]string{
		"unit.c": "#include \"a.h\"\n#include \"a.h\"\n",
		"a.h":    "#ifndef A_H\n#define A_H\n#include \"b.h\"\n#endif\n",
		"b.h":    "#ifndef B_H\n#define B_H\n#endif\n",
	}
	sink, _, names, bag := runVirtual(t, files, "unit.c")

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}

	// unit.c, a.h, b.h, then a.h again through the second include.
	want := []string{"unit.c", "a.h", "b.h", "a.h"}
	if len(sink.entered) != len(want) {
		t.Fatalf("entered = %v, want %v", sink.entered, want)
	}
	for i := range want {
		if sink.entered[i] != want[i] {
			t.Fatalf("entered = %v, want %v", sink.entered, want)
		}
	}

	// The second pass over a.h tests an already-defined macro.
	if len(sink.ifndefs) != 3 {
		t.Fatalf("expected 3 ifndef events, got %d", len(sink.ifndefs))
	}
	last := sink.ifndefs[2]
	if names.MustLookup(last.macro) != "A_H" {
		t.Fatalf("last ifndef macro = %q", names.MustLookup(last.macro))
	}
	if !last.alreadyDefined {
		t.Error("re-inclusion must see the guard macro as already defined")
	}

	// The guarded body is skipped, so each macro is defined exactly once.
	if len(sink.defines) != 2 {
		t.Fatalf("expected 2 define events, got %d", len(sink.defines))
	}
}

func TestPreprocessorInactiveBranchesSkipped(t *testing.T) {
	content := "#ifdef NEVER\n#define HIDDEN\n#ifndef ALSO_HIDDEN\n#endif\n#endif\n#define VISIBLE\n"
	sink, _, names, bag := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(sink.defines) != 1 || names.MustLookup(sink.defines[0].macro) != "VISIBLE" {
		t.Fatalf("defines = %+v, want only VISIBLE", sink.defines)
	}
	if len(sink.ifndefs) != 0 {
		t.Fatalf("ifndef inside a dead branch must not be reported, got %d", len(sink.ifndefs))
	}
	// Only the visible #ifdef closer produces an event.
	if len(sink.endifs) != 1 {
		t.Fatalf("expected 1 endif event, got %d", len(sink.endifs))
	}
}

func TestPreprocessorIfTreatedLive(t *testing.T) {
	content := "#if 0\n#define STILL_SEEN\n#endif\n"
	sink, _, names, _ := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	// Expressions are not evaluated, so the branch body is processed.
	if len(sink.defines) != 1 || names.MustLookup(sink.defines[0].macro) != "STILL_SEEN" {
		t.Fatalf("defines = %+v", sink.defines)
	}
}

func TestPreprocessorElseFlipsBranch(t *testing.T) {
	content := "#ifdef NEVER\n#define A\n#else\n#define B\n#endif\n"
	sink, _, names, _ := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if len(sink.defines) != 1 || names.MustLookup(sink.defines[0].macro) != "B" {
		t.Fatalf("defines = %+v, want only B", sink.defines)
	}
}

func TestPreprocessorUndef(t *testing.T) {
	content := "#define M\n#undef M\n#ifndef M\n#endif\n"
	sink, _, _, _ := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if len(sink.ifndefs) != 1 {
		t.Fatalf("expected 1 ifndef, got %d", len(sink.ifndefs))
	}
	if sink.ifndefs[0].alreadyDefined {
		t.Error("#undef must make the subsequent #ifndef live again")
	}
}

func TestPreprocessorBackslashContinuation(t *testing.T) {
	content := "#define \\\n  JOINED\n#ifndef JOINED\n#endif\n"
	sink, _, names, _ := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if len(sink.defines) != 1 || names.MustLookup(sink.defines[0].macro) != "JOINED" {
		t.Fatalf("defines = %+v, want JOINED", sink.defines)
	}
	if len(sink.ifndefs) != 1 || !sink.ifndefs[0].alreadyDefined {
		t.Fatalf("continued #define must count, ifndefs = %+v", sink.ifndefs)
	}
}

func TestPreprocessorUnterminatedConditional(t *testing.T) {
	content := "#ifndef OPEN_H\n#define OPEN_H\n"
	_, _, _, bag := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", bag.Len())
	}
	if bag.Items()[0].Code != diag.PPUnterminatedConditional {
		t.Fatalf("code = %v, want PPUnterminatedConditional", bag.Items()[0].Code)
	}
}

func TestPreprocessorStrayEndif(t *testing.T) {
	content := "#endif\n"
	_, _, _, bag := runVirtual(t, map[string]string{"x.h": content}, "x.h")

	if bag.Len() != 1 || bag.Items()[0].Code != diag.PPStrayEndif {
		t.Fatalf("diagnostics = %v, want one PPStrayEndif", bag.Items())
	}
}

func TestPreprocessorUnresolvedInclude(t *testing.T) {
	content := "#include \"missing/header.h\"\n"
	_, _, _, bag := runVirtual(t, map[string]string{"x.c": content}, "x.c")

	if bag.Len() != 1 || bag.Items()[0].Code != diag.PPIncludeNotFound {
		t.Fatalf("diagnostics = %v, want one PPIncludeNotFound", bag.Items())
	}
	if bag.Items()[0].Severity != diag.SevInfo {
		t.Error("unresolved includes are advisory, not warnings")
	}
}

func TestPreprocessorAngleIncludesNotEntered(t *testing.T) {
	content := "#include <stdio.h>\nint x;\n"
	sink, _, _, bag := runVirtual(t, map[string]string{"x.c": content}, "x.c")

	if bag.Len() != 0 {
		t.Fatalf("angle includes are silent, got %v", bag.Items())
	}
	if len(sink.entered) != 1 {
		t.Fatalf("entered = %v, system headers must not be walked", sink.entered)
	}
}

func TestPreprocessorIncludeRelativeToIncluder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	unit := filepath.Join(dir, "unit.c")
	if err := os.WriteFile(unit, []byte("#include \"sub/inner.h\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	inner := filepath.Join(sub, "inner.h")
	if err := os.WriteFile(inner, []byte("#include \"sibling.h\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sibling := filepath.Join(sub, "sibling.h")
	if err := os.WriteFile(sibling, []byte("int y;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := source.NewFileSet()
	names := source.NewInterner()
	bag := diag.NewBag(100)
	sink := &recordingSink{}
	p := New(fs, names, diag.BagReporter{Bag: bag}, Options{})
	if err := p.Run(unit, sink); err != nil {
		t.Fatal(err)
	}

	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(sink.entered) != 3 {
		t.Fatalf("entered = %v, want unit, inner and sibling", sink.entered)
	}
}

func TestPreprocessorIncludeDepthCap(t *testing.T) {
	files := map[string]string{
		"self.h": "#include \"self.h\"\n",
	}
	fs := source.NewFileSet()
	names := source.NewInterner()
	bag := diag.NewBag(100)
	var rootID source.FileID
	for path, content := range files {
		rootID = fs.AddVirtual(path, []byte(content))
	}

	sink := &recordingSink{}
	p := New(fs, names, diag.BagReporter{Bag: bag}, Options{MaxIncludeDepth: 4})
	p.RunFile(rootID, sink)

	if len(sink.entered) != 5 {
		t.Fatalf("entered %d times, want root + 4 includes", len(sink.entered))
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.PPIncludeDepthExceeded {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a PPIncludeDepthExceeded diagnostic")
	}
}

func TestPreprocessorRunMissingRoot(t *testing.T) {
	fs := source.NewFileSet()
	p := New(fs, source.NewInterner(), diag.BagReporter{Bag: diag.NewBag(10)}, Options{})
	if err := p.Run(filepath.Join(t.TempDir(), "absent.c"), &recordingSink{}); err == nil {
		t.Fatal("missing root file must be an error")
	}
}
