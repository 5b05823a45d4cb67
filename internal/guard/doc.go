// Package guard implements header-guard verification for one translation
// unit at a time.
//
// The host preprocessing engine feeds a Checker the ordered event stream of
// a unit: file entries, live #ifndef tests, macro definitions, and #endif
// pairings. Handlers only record; no judgment happens until EndOfUnit,
// because whether a macro definition is a real whole-file guard can depend
// on content that appears after it.
//
// At end of unit the checker walks the recorded definitions in source
// order, asks the Oracle which of them function as guards, joins each guard
// back to the file it protects, the #ifndef that tested it, and the #endif
// that closes it, and emits diagnostics with mechanical fixes: wrong guard
// names, missing #endif comments, guardless headers, and guards placed
// after real content. All state is scoped to the unit and reset afterwards,
// so one Checker can serve units sequentially without leakage.
package guard
