package pp

import (
	"guardlint/internal/guard"
	"guardlint/internal/source"
)

// Sink receives the preprocessing events of one unit in source order.
// guard.Checker satisfies this interface.
type Sink interface {
	EnterFile(path string, file source.FileID, origin guard.Origin)
	Ifndef(directive, name source.Span, macro source.StringID, alreadyDefined bool)
	MacroDefined(name source.Span, macro source.StringID, def guard.DefID)
	Endif(endif, opening source.Span)
	EndOfUnit()
}
