// Package pp is the preprocessing engine that drives the guard checker.
//
// It walks the directive lines of one translation unit in source order,
// maintaining the unit macro table and conditional nesting, entering quoted
// includes relative to the including file, and emitting the event stream
// (EnterFile, Ifndef, MacroDefined, Endif, EndOfUnit) a Sink consumes.
//
// It is deliberately not a full C preprocessor: #if/#elif expressions are
// not evaluated (both branches are treated as live), macros are tracked by
// name only, and include search paths are out of scope; an unresolvable
// include produces an advisory diagnostic, never an error. That subset is
// exactly what guard semantics need: #ifdef/#ifndef evaluate against the
// macro table, so re-including a guarded header yields a dead #ifndef and a
// skipped body, the same shape a real preprocessor would report.
//
// The package also hosts the guard-classification oracle: a standalone scan
// that recognizes a whole-file guard structurally (only whitespace and
// comments outside a single #ifndef/#define ... #endif span) without
// consulting any recorded events.
package pp
