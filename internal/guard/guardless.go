package guard

import (
	"fmt"

	"guardlint/internal/diag"
)

// reportGuardless handles the files no qualifying guard was matched to, in
// deterministic insertion order: either the guard exists but sits below
// real content (warning only; relocating it mechanically could change what
// the intervening conditional text means), or the file has no guard at all
// and gets insertion fixes for both ends.
func (ch *Checker) reportGuardless() {
	for _, rec := range ch.correlator.PendingFiles() {
		if !ch.policy.ShouldSuggestAddingGuard(rec.Path) {
			continue
		}

		derived := ch.policy.GuardName(rec.Path)
		if ch.reportNonTopmost(rec, derived) {
			continue
		}
		ch.reportMissing(rec, derived)
	}
}

// reportNonTopmost scans the recorded definitions for a macro spelling the
// derived name (trailing underscore tolerated) defined inside this file.
// Such a macro is a guard that sits after code or includes.
func (ch *Checker) reportNonTopmost(rec FileRecord, derived string) bool {
	for _, m := range ch.correlator.Macros() {
		if m.NameSpan.File != rec.Start.File {
			continue
		}
		name := ch.names.MustLookup(m.Name)
		if name != derived && name != derived+"_" {
			continue
		}
		diag.ReportWarning(ch.reporter, diag.GuardNonTopmost, m.NameSpan,
			"header guard after code/includes, consider moving it up").
			WithNote(rec.Start, "the guard only protects content below its definition").
			Emit()
		return true
	}
	return false
}

// reportMissing emits the missing-guard finding with insertions at both
// ends of the file.
func (ch *Checker) reportMissing(rec FileRecord, derived string) {
	closing := "\n#endif\n"
	if ch.policy.ShouldSuggestEndifComment(rec.Path) {
		closing = "\n#endif  // " + derived + "\n"
	}

	fix := diag.Fix{
		Title:         fmt.Sprintf("add header guard %s", derived),
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		IsPreferred:   true,
		Edits: []diag.TextEdit{
			{Span: rec.Start, NewText: fmt.Sprintf("#ifndef %s\n#define %s\n\n", derived, derived)},
			{Span: ch.fset.EndSpan(rec.Start.File), NewText: closing},
		},
	}
	diag.ReportWarning(ch.reporter, diag.GuardMissing, rec.Start,
		"header is missing header guard").
		WithFixSuggestion(fix).
		Emit()
}
