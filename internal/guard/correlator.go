package guard

import (
	"guardlint/internal/source"
)

// Origin classifies an entered file.
type Origin uint8

const (
	// OriginUser marks a user-authored file.
	OriginUser Origin = iota
	// OriginSystem marks a system header; those are never checked.
	OriginSystem
)

// DefID is an opaque handle to one macro definition, assigned by the host
// engine and understood by its Oracle.
type DefID uint32

// MacroDef is one recorded macro definition: the interned spelling, the
// span of the name token, and the engine's definition handle.
type MacroDef struct {
	Name     source.StringID
	NameSpan source.Span
	Def      DefID
}

// FileRecord tracks one user file entered during the unit, keyed by its
// canonical path. Records that survive reconciliation feed the guardless
// reporting pass.
type FileRecord struct {
	Path  string      // canonical
	Start source.Span // zero-length span at start of file
}

type ifndefCandidate struct {
	directive source.Span // span of the #ifndef directive, keys the endif pairing
	name      source.Span // span of the tested macro name token
}

// Correlator accumulates per-unit state from the preprocessing event
// stream. Handlers never emit diagnostics; classification is deferred to
// the end-of-unit reconciliation.
type Correlator struct {
	fset  *source.FileSet
	names *source.Interner

	files   map[string]FileRecord // canonical path -> record
	order   []string              // insertion order of files keys
	ifndefs map[source.StringID]ifndefCandidate
	macros  []MacroDef
	endifs  map[source.Span]source.Span // opening directive -> #endif
}

// NewCorrelator creates an empty correlator over the unit's file set and
// identifier interner.
func NewCorrelator(fset *source.FileSet, names *source.Interner) *Correlator {
	c := &Correlator{fset: fset, names: names}
	c.Reset()
	return c
}

// EnterFile records the first entry of every user file. Different include
// routes that canonicalize to the same path collapse into one record.
func (c *Correlator) EnterFile(path string, file source.FileID, origin Origin) {
	if origin != OriginUser {
		return
	}
	canonical := CleanPath(path)
	if _, ok := c.files[canonical]; ok {
		return
	}
	c.files[canonical] = FileRecord{
		Path:  canonical,
		Start: source.At(file, 0),
	}
	c.order = append(c.order, canonical)
}

// Ifndef records a live #ifndef test. Tests of an already-defined macro are
// no-ops for guard purposes and are ignored. On identifier collision within
// the unit the last write wins.
func (c *Correlator) Ifndef(directive, name source.Span, macro source.StringID, alreadyDefined bool) {
	if alreadyDefined {
		return
	}
	c.ifndefs[macro] = ifndefCandidate{directive: directive, name: name}
}

// MacroDefined appends every definition, guard or not; the guard judgment
// happens at end of unit.
func (c *Correlator) MacroDefined(name source.Span, macro source.StringID, def DefID) {
	c.macros = append(c.macros, MacroDef{Name: macro, NameSpan: name, Def: def})
}

// Endif pairs a closing #endif with its opening conditional directive.
func (c *Correlator) Endif(endif, opening source.Span) {
	c.endifs[opening] = endif
}

// Macros exposes the ordered definition sequence.
func (c *Correlator) Macros() []MacroDef {
	return c.macros
}

// PendingFiles returns the surviving file records in insertion order.
func (c *Correlator) PendingFiles() []FileRecord {
	out := make([]FileRecord, 0, len(c.files))
	for _, key := range c.order {
		if rec, ok := c.files[key]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// removeFile drops the record for a canonical path once a qualifying guard
// has been matched to it.
func (c *Correlator) removeFile(canonical string) {
	delete(c.files, canonical)
}

// lookupIfndef returns the candidate for a macro identifier.
func (c *Correlator) lookupIfndef(macro source.StringID) (ifndefCandidate, bool) {
	cand, ok := c.ifndefs[macro]
	return cand, ok
}

// lookupEndif returns the #endif paired with an opening directive.
func (c *Correlator) lookupEndif(opening source.Span) (source.Span, bool) {
	sp, ok := c.endifs[opening]
	return sp, ok
}

// Empty reports whether all four containers hold nothing. Used by tests and
// as a sanity check after Reset.
func (c *Correlator) Empty() bool {
	return len(c.files) == 0 && len(c.ifndefs) == 0 && len(c.macros) == 0 && len(c.endifs) == 0
}

// Reset drops all per-unit state. It must run between units so stale paths,
// identifiers and locations never leak into the next unit.
func (c *Correlator) Reset() {
	c.files = make(map[string]FileRecord)
	c.order = c.order[:0]
	c.ifndefs = make(map[source.StringID]ifndefCandidate)
	c.macros = c.macros[:0]
	c.endifs = make(map[source.Span]source.Span)
}
