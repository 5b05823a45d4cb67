package guard

import (
	"testing"

	"guardlint/internal/source"
)

func TestCorrelatorEnterFileCollapsesRoutes(t *testing.T) {
	fs := source.NewFileSet()
	names := source.NewInterner()
	c := NewCorrelator(fs, names)

	id := fs.AddVirtual("include/foo/bar.h", []byte(""))
	c.EnterFile("include/foo/bar.h", id, OriginUser)
	c.EnterFile("include/./foo/bar.h", id, OriginUser)
	c.EnterFile("include/x/../foo/bar.h", id, OriginUser)

	pending := c.PendingFiles()
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending file, got %d", len(pending))
	}
	if pending[0].Path != "include/foo/bar.h" {
		t.Fatalf("expected canonical path, got %q", pending[0].Path)
	}
}

func TestCorrelatorIgnoresSystemFiles(t *testing.T) {
	fs := source.NewFileSet()
	c := NewCorrelator(fs, source.NewInterner())

	id := fs.AddVirtual("/usr/include/stdio.h", []byte(""))
	c.EnterFile("/usr/include/stdio.h", id, OriginSystem)

	if len(c.PendingFiles()) != 0 {
		t.Fatal("system files must not be recorded")
	}
}

func TestCorrelatorFirstEntryWins(t *testing.T) {
	fs := source.NewFileSet()
	c := NewCorrelator(fs, source.NewInterner())

	a := fs.AddVirtual("a.h", []byte("first"))
	b := fs.AddVirtual("b.h", []byte("second"))
	c.EnterFile("same/path.h", a, OriginUser)
	c.EnterFile("same/path.h", b, OriginUser)

	pending := c.PendingFiles()
	if len(pending) != 1 {
		t.Fatalf("expected 1 record, got %d", len(pending))
	}
	if pending[0].Start.File != a {
		t.Fatal("duplicate entry must keep the first record")
	}
}

func TestCorrelatorPendingFilesInsertionOrder(t *testing.T) {
	fs := source.NewFileSet()
	c := NewCorrelator(fs, source.NewInterner())

	paths := []string{"z.h", "a.h", "m.h"}
	for _, p := range paths {
		id := fs.AddVirtual(p, []byte(""))
		c.EnterFile(p, id, OriginUser)
	}

	pending := c.PendingFiles()
	if len(pending) != len(paths) {
		t.Fatalf("expected %d records, got %d", len(paths), len(pending))
	}
	for i, p := range paths {
		if pending[i].Path != p {
			t.Errorf("pending[%d] = %q, want %q", i, pending[i].Path, p)
		}
	}
}

func TestCorrelatorIfndefSkipsAlreadyDefined(t *testing.T) {
	fs := source.NewFileSet()
	names := source.NewInterner()
	c := NewCorrelator(fs, names)

	id := fs.AddVirtual("x.h", []byte("#ifndef X_H"))
	macro := names.Intern("X_H")
	directive := source.Span{File: id, Start: 0, End: 7}
	name := source.Span{File: id, Start: 8, End: 11}

	c.Ifndef(directive, name, macro, true)
	if _, ok := c.lookupIfndef(macro); ok {
		t.Fatal("already-defined test must not be recorded")
	}

	c.Ifndef(directive, name, macro, false)
	if _, ok := c.lookupIfndef(macro); !ok {
		t.Fatal("live test must be recorded")
	}
}

func TestCorrelatorIfndefLastWriteWins(t *testing.T) {
	fs := source.NewFileSet()
	names := source.NewInterner()
	c := NewCorrelator(fs, names)

	id := fs.AddVirtual("x.h", []byte("#ifndef N\n#ifndef N\n"))
	macro := names.Intern("N")
	first := source.Span{File: id, Start: 0, End: 7}
	second := source.Span{File: id, Start: 10, End: 17}

	c.Ifndef(first, source.Span{File: id, Start: 8, End: 9}, macro, false)
	c.Ifndef(second, source.Span{File: id, Start: 18, End: 19}, macro, false)

	cand, ok := c.lookupIfndef(macro)
	if !ok {
		t.Fatal("expected a recorded candidate")
	}
	if cand.directive != second {
		t.Fatal("identifier collision must keep the later record")
	}
}

func TestCorrelatorMacrosAppendOnly(t *testing.T) {
	fs := source.NewFileSet()
	names := source.NewInterner()
	c := NewCorrelator(fs, names)

	id := fs.AddVirtual("x.h", []byte(""))
	macro := names.Intern("M")
	c.MacroDefined(source.At(id, 0), macro, 0)
	c.MacroDefined(source.At(id, 5), macro, 1)

	if len(c.Macros()) != 2 {
		t.Fatalf("expected 2 recorded definitions, got %d", len(c.Macros()))
	}
}

func TestCorrelatorResetClearsEverything(t *testing.T) {
	fs := source.NewFileSet()
	names := source.NewInterner()
	c := NewCorrelator(fs, names)

	id := fs.AddVirtual("x.h", []byte("#ifndef X"))
	macro := names.Intern("X")
	c.EnterFile("x.h", id, OriginUser)
	c.Ifndef(source.At(id, 0), source.At(id, 8), macro, false)
	c.MacroDefined(source.At(id, 8), macro, 0)
	c.Endif(source.At(id, 20), source.At(id, 0))

	if c.Empty() {
		t.Fatal("correlator should hold state before Reset")
	}
	c.Reset()
	if !c.Empty() {
		t.Fatal("Reset must clear all containers")
	}
}
