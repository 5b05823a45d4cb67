package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"guardlint/internal/checkpipeline"
	"guardlint/internal/diag"
	"guardlint/internal/guard"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func codesOf(bag *diag.Bag) []diag.Code {
	codes := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	return codes
}

func TestCheckUnitNonConformingGuard(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"include/foo/bar.h": "#ifndef BAR_H\n#define BAR_H\nvoid f();\n#endif\n",
	})
	chdir(t, dir)

	result, err := CheckUnit("include/foo/bar.h", Config{})
	if err != nil {
		t.Fatalf("CheckUnit: %v", err)
	}

	codes := codesOf(result.Bag)
	if len(codes) != 2 {
		t.Fatalf("codes = %v, want rename + endif comment", codes)
	}
	if codes[0] != diag.GuardNonConformingName || codes[1] != diag.GuardMissingEndifComment {
		t.Fatalf("codes = %v", codes)
	}

	// The rename fix targets the derived FOO_BAR_H spelling.
	fix := result.Bag.Items()[0].Fixes[0]
	if fix.Edits[0].NewText != "FOO_BAR_H" {
		t.Errorf("rename NewText = %q, want FOO_BAR_H", fix.Edits[0].NewText)
	}
}

func TestCheckUnitCleanHeader(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"include/foo/bar.h": "#ifndef FOO_BAR_H\n#define FOO_BAR_H\nvoid f();\n#endif  // FOO_BAR_H\n",
	})
	chdir(t, dir)

	result, err := CheckUnit("include/foo/bar.h", Config{})
	if err != nil {
		t.Fatalf("CheckUnit: %v", err)
	}
	if result.Bag.Len() != 0 {
		t.Fatalf("clean header produced %v", result.Bag.Items())
	}
}

func TestCheckUnitSourceWithGuardlessInclude(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"main.c": "#include \"util.h\"\nint main() { return 0; }\n",
		"util.h": "int util();\n",
	})
	chdir(t, dir)

	result, err := CheckUnit("main.c", Config{})
	if err != nil {
		t.Fatalf("CheckUnit: %v", err)
	}

	codes := codesOf(result.Bag)
	if len(codes) != 1 || codes[0] != diag.GuardMissing {
		t.Fatalf("codes = %v, want one GuardMissing for util.h", codes)
	}
	// The finding points into util.h, not into main.c.
	primary := result.Bag.Items()[0].Primary
	if result.FileSet.Get(primary.File).Path != "util.h" {
		t.Errorf("finding lands in %q", result.FileSet.Get(primary.File).Path)
	}
}

func TestCheckUnitMissingRoot(t *testing.T) {
	if _, err := CheckUnit(filepath.Join(t.TempDir(), "absent.c"), Config{}); err == nil {
		t.Fatal("missing root must be an error")
	}
}

func TestCheckUnitStateDoesNotLeakBetweenUnits(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.h": "#ifndef SHARED\n#define SHARED\n#endif\n",
		"b.h": "#ifndef SHARED\n#define SHARED\n#endif\n",
	})
	chdir(t, dir)

	// The same macro name in two separate units must be live in both.
	ra, err := CheckUnit("a.h", Config{})
	if err != nil {
		t.Fatal(err)
	}
	rb, err := CheckUnit("b.h", Config{})
	if err != nil {
		t.Fatal(err)
	}
	if ra.Bag.Len() != rb.Bag.Len() {
		t.Fatalf("identical units disagree: %d vs %d findings", ra.Bag.Len(), rb.Bag.Len())
	}
}

func TestListUnitRootsPrefersSources(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"b.cpp":  "",
		"a.c":    "",
		"util.h": "",
	})

	roots, err := ListUnitRoots(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 {
		t.Fatalf("roots = %v, want the two sources", roots)
	}
	if filepath.Base(roots[0]) != "a.c" || filepath.Base(roots[1]) != "b.cpp" {
		t.Fatalf("roots = %v, want sorted sources", roots)
	}
}

func TestListUnitRootsHeaderFallback(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.h":       "",
		"sub/y.hpp": "",
		"README.md": "",
		"notes.txt": "",
	})

	roots, err := ListUnitRoots(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 2 {
		t.Fatalf("roots = %v, want the two headers", roots)
	}
}

func TestCheckDir(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"good.h": "#ifndef GOOD_H\n#define GOOD_H\n#endif  // GOOD_H\n",
		"bad.h":  "int x;\n",
	})

	results, err := CheckDir(context.Background(), dir, Config{}, 2, checkpipeline.NopSink{})
	if err != nil {
		t.Fatalf("CheckDir: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	// Root order is sorted: bad.h first.
	if filepath.Base(results[0].Path) != "bad.h" {
		t.Fatalf("results out of order: %s", results[0].Path)
	}
	if results[0].Bag.Len() == 0 {
		t.Error("bad.h must produce a finding")
	}
	if results[1].Bag.Len() != 0 {
		t.Errorf("good.h produced %v", results[1].Bag.Items())
	}
}

func TestCheckDirAbsoluteTargetKeepsRelativeNames(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"include/foo/bar.h": "#ifndef BAR_H\n#define BAR_H\n#endif\n",
	})

	// No chdir: the walk hands absolute paths to the pipeline, and the
	// derived name must still come out path-relative.
	results, err := CheckDir(context.Background(), dir, Config{}, 1, checkpipeline.NopSink{})
	if err != nil {
		t.Fatalf("CheckDir: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	items := results[0].Bag.Items()
	if len(items) == 0 || items[0].Code != diag.GuardNonConformingName {
		t.Fatalf("findings = %v, want a rename", items)
	}
	if got := items[0].Fixes[0].Edits[0].NewText; got != "FOO_BAR_H" {
		t.Fatalf("rename NewText = %q, want FOO_BAR_H", got)
	}
}

func TestCheckDirHonorsCallerNameRoot(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"proj/include/foo/bar.h": "#ifndef FOO_BAR_H\n#define FOO_BAR_H\n#endif  // FOO_BAR_H\n",
	})

	p := guard.DefaultPolicy()
	p.NameRoot = filepath.ToSlash(filepath.Join(dir, "proj"))
	results, err := CheckDir(context.Background(), dir, Config{Policy: p}, 1, checkpipeline.NopSink{})
	if err != nil {
		t.Fatalf("CheckDir: %v", err)
	}
	if results[0].Bag.Len() != 0 {
		t.Fatalf("caller root was not honored: %v", results[0].Bag.Items())
	}
}

func TestCheckDirProgressEvents(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"only.h": "int x;\n",
	})

	events := make(chan checkpipeline.Event, 16)
	_, err := CheckDir(context.Background(), dir, Config{}, 1, checkpipeline.ChannelSink{Ch: events})
	if err != nil {
		t.Fatal(err)
	}
	close(events)

	var statuses []checkpipeline.Status
	for ev := range events {
		statuses = append(statuses, ev.Status)
	}
	want := []checkpipeline.Status{
		checkpipeline.StatusQueued,
		checkpipeline.StatusWorking,
		checkpipeline.StatusDone,
	}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("statuses = %v, want %v", statuses, want)
		}
	}
}

func TestCheckUnitCached(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"clean.h": "#ifndef CLEAN_H\n#define CLEAN_H\n#endif  // CLEAN_H\n",
		"dirty.h": "int x;\n",
	})
	chdir(t, dir)

	cache, err := OpenCacheAt(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Cache: cache}

	first, err := CheckUnitCached("clean.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache {
		t.Fatal("first run cannot come from the cache")
	}

	second, err := CheckUnitCached("clean.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("unchanged clean unit must be served from the cache")
	}
	if second.Bag.Len() != 0 {
		t.Fatalf("cached verdict carries findings: %v", second.Bag.Items())
	}

	// Units with findings are never skipped.
	if _, err := CheckUnitCached("dirty.h", cfg); err != nil {
		t.Fatal(err)
	}
	dirtyAgain, err := CheckUnitCached("dirty.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if dirtyAgain.FromCache {
		t.Fatal("a unit with findings must be re-checked every run")
	}

	// Touching the file invalidates the entry.
	if err := os.WriteFile("clean.h", []byte("#ifndef CLEAN_H\n#define CLEAN_H\nint y;\n#endif  // CLEAN_H\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := CheckUnitCached("clean.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if third.FromCache {
		t.Fatal("changed file must be re-checked")
	}
}

func TestCheckUnitCachedValidatesNormalizedContent(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	// BOM plus CRLF endings: the loader normalizes both, and the cache
	// must validate against the same normalized form.
	content := "\xef\xbb\xbf#ifndef CLEAN_H\r\n#define CLEAN_H\r\n#endif  // CLEAN_H\r\n"
	if err := os.WriteFile("clean.h", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cache, err := OpenCacheAt(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Cache: cache}

	first, err := CheckUnitCached("clean.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if first.FromCache || first.Bag.Len() != 0 {
		t.Fatalf("first run: FromCache=%v findings=%d", first.FromCache, first.Bag.Len())
	}

	second, err := CheckUnitCached("clean.h", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !second.FromCache {
		t.Fatal("unchanged CRLF unit must be served from the cache")
	}
}

func TestCacheSaltSeparatesConfigs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"clean.h": "#ifndef CLEAN_H\n#define CLEAN_H\n#endif  // CLEAN_H\n",
	})
	chdir(t, dir)

	cache, err := OpenCacheAt(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := CheckUnitCached("clean.h", Config{Cache: cache, CacheSalt: "a"}); err != nil {
		t.Fatal(err)
	}
	other, err := CheckUnitCached("clean.h", Config{Cache: cache, CacheSalt: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if other.FromCache {
		t.Fatal("a different salt must miss the cache")
	}
}
