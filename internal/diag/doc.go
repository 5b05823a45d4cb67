// Package diag defines the diagnostic model shared by the checker phases.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by preprocessing and guard reconciliation.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits the fix engine can validate
//     and apply mechanically.
//
// # Scope
//
// Package diag performs no formatting, IO, or CLI integration. Rendering
// lives in internal/diagfmt; application of fixes lives in internal/fix.
//
// # Data model
//
// Diagnostic is the central record: Severity, a ranged numeric Code with a
// stable string ID, a short Message, a Primary span, optional Notes, and
// optional Fixes. Keep messages short and actionable; notes must add new
// context rather than restate the message.
//
// Fix carries a Title, Kind, Applicability (AlwaysSafe, SafeWithHeuristics,
// ManualReview), an optional preferred marker, and concrete TextEdits.
// TextEdit.OldText acts as an optional guard the fix engine checks against
// the current file content before editing.
//
// # Emitting
//
// Phases report through a diag.Reporter; BagReporter aggregates into a Bag,
// which supports sorting, deduplication, and merging. ReportBuilder chains
// WithNote / WithFixSuggestion before a single Emit.
package diag
