package guard

import (
	"fmt"
	"strings"

	"guardlint/internal/diag"
	"guardlint/internal/source"
)

// Oracle is the external judgment for "this macro definition structurally
// functions as a whole-file inclusion guard". The checker never second-
// guesses it; an indeterminate oracle must answer false, which may skip a
// correction but never mis-fires one on a non-guard macro.
type Oracle interface {
	IsGuardCandidate(def DefID, name source.Span) bool
}

// Checker consumes one unit's preprocessing events and, at end of unit,
// reconciles them into guard diagnostics. It reports through a
// diag.Reporter and resets itself afterwards, ready for the next unit.
type Checker struct {
	fset       *source.FileSet
	names      *source.Interner
	correlator *Correlator
	policy     *Policy
	oracle     Oracle
	reporter   diag.Reporter
}

// NewChecker wires a checker over the unit's file set and interner.
// A nil policy means DefaultPolicy.
func NewChecker(fset *source.FileSet, names *source.Interner, policy *Policy, oracle Oracle, reporter diag.Reporter) *Checker {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Checker{
		fset:       fset,
		names:      names,
		correlator: NewCorrelator(fset, names),
		policy:     policy,
		oracle:     oracle,
		reporter:   reporter,
	}
}

// Correlator exposes the per-unit state, mainly for tests.
func (ch *Checker) Correlator() *Correlator {
	return ch.correlator
}

// EnterFile forwards a file-entry event.
func (ch *Checker) EnterFile(path string, file source.FileID, origin Origin) {
	ch.correlator.EnterFile(path, file, origin)
}

// Ifndef forwards a conditional-test event.
func (ch *Checker) Ifndef(directive, name source.Span, macro source.StringID, alreadyDefined bool) {
	ch.correlator.Ifndef(directive, name, macro, alreadyDefined)
}

// MacroDefined forwards a definition event.
func (ch *Checker) MacroDefined(name source.Span, macro source.StringID, def DefID) {
	ch.correlator.MacroDefined(name, macro, def)
}

// Endif forwards a directive-close event.
func (ch *Checker) Endif(endif, opening source.Span) {
	ch.correlator.Endif(endif, opening)
}

// EndOfUnit runs the reconciliation pass, then guardless reporting, then
// clears all per-unit state. It must be called exactly once per unit.
func (ch *Checker) EndOfUnit() {
	ch.reconcile()
	ch.reportGuardless()
	ch.correlator.Reset()
}

// reconcile joins every oracle-approved macro definition back to its file,
// its #ifndef, and its #endif, checking the guard name and the closing
// comment. Entries are processed in recorded source order so a rename
// always lands before the endif comment that references it.
func (ch *Checker) reconcile() {
	for _, m := range ch.correlator.Macros() {
		if ch.oracle == nil || !ch.oracle.IsGuardCandidate(m.Def, m.NameSpan) {
			continue
		}

		// The oracle says this file is guarded; it is no longer a
		// candidate for missing-guard reporting whatever happens below.
		canonical := CleanPath(ch.fset.Get(m.NameSpan.File).Path)
		ch.correlator.removeFile(canonical)

		if !ch.policy.ShouldFixGuard(canonical) {
			continue
		}

		// Degenerate directive structure (missing candidate or pairing)
		// skips the checks for this entry only.
		cand, ok := ch.correlator.lookupIfndef(m.Name)
		if !ok {
			continue
		}
		endif, ok := ch.correlator.lookupEndif(cand.directive)
		if !ok {
			continue
		}

		effective := ch.checkGuardName(canonical, m, cand)
		if ch.policy.ShouldSuggestEndifComment(canonical) {
			ch.checkEndifComment(endif, effective)
		}
	}
}

// checkGuardName validates the spelling against the derived name and emits
// a rename fix touching both the #ifndef and the #define token. It returns
// the effective guard name for subsequent checks.
func (ch *Checker) checkGuardName(canonical string, m MacroDef, cand ifndefCandidate) string {
	current := ch.names.MustLookup(m.Name)
	derived := ch.policy.GuardName(canonical)
	if AcceptableName(current, derived) {
		return current
	}

	fix := diag.Fix{
		Title:         fmt.Sprintf("rename guard to %s", derived),
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		IsPreferred:   true,
		Edits: []diag.TextEdit{
			{Span: cand.name, NewText: derived, OldText: current},
			{Span: m.NameSpan, NewText: derived, OldText: current},
		},
	}
	diag.ReportWarning(ch.reporter, diag.GuardNonConformingName, cand.name,
		"header guard does not follow preferred style").
		WithNote(m.NameSpan, fmt.Sprintf("expected guard name is '%s'", derived)).
		WithFixSuggestion(fix).
		Emit()
	return derived
}

// checkEndifComment verifies the raw line holding the #endif ends with a
// comment naming the guard, and fixes it at the slightest deviation.
func (ch *Checker) checkEndifComment(endif source.Span, guardName string) {
	lineEnd := ch.lineEndOffset(endif)
	current := string(ch.fset.Text(source.Span{File: endif.File, Start: endif.Start, End: lineEnd}))

	if strings.HasSuffix(current, "// "+guardName) ||
		strings.HasSuffix(current, "/* "+guardName+" */") {
		return
	}

	span := source.Span{File: endif.File, Start: endif.Start, End: lineEnd}
	fix := diag.Fix{
		Title:         fmt.Sprintf("reference %s after #endif", guardName),
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		IsPreferred:   true,
		Edits: []diag.TextEdit{
			{Span: span, NewText: "endif  // " + guardName, OldText: current},
		},
	}
	diag.ReportWarning(ch.reporter, diag.GuardMissingEndifComment, endif,
		"#endif for a header guard should reference the guard macro in a comment").
		WithFixSuggestion(fix).
		Emit()
}

// lineEndOffset finds the end of the line containing the span start.
func (ch *Checker) lineEndOffset(sp source.Span) uint32 {
	content := ch.fset.Get(sp.File).Content
	off := sp.Start
	for int(off) < len(content) && content[off] != '\n' && content[off] != '\r' {
		off++
	}
	return off
}
