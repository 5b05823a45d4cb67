package pp

import (
	"bytes"

	"guardlint/internal/guard"
	"guardlint/internal/source"
)

// guardScan is the cached verdict of the whole-file guard scan.
type guardScan struct {
	ok         bool
	defineName source.Span // name token of the guard's #define
}

// IsGuardCandidate implements guard.Oracle: a definition qualifies iff it
// is the #define of a structurally certain whole-file guard: a single
// #ifndef/#define pair at the top and its #endif at the bottom, with
// nothing but whitespace and comments outside that span. Anything less
// certain answers false.
func (p *Preprocessor) IsGuardCandidate(_ guard.DefID, name source.Span) bool {
	sc, ok := p.scans[name.File]
	if !ok {
		sc = scanWholeFileGuard(p.fset.Get(name.File).Content, name.File)
		p.scans[name.File] = sc
	}
	return sc.ok && sc.defineName == name
}

// scanWholeFileGuard runs the standalone structural scan over one file.
// It works on a comment-masked copy so comment text can never be mistaken
// for directives; offsets stay aligned with the original buffer.
func scanWholeFileGuard(content []byte, id source.FileID) guardScan {
	masked := maskComments(content)

	// #ifndef NAME must be the first thing in the file.
	i := skipAllWS(masked, 0)
	kw, j, ok := directiveAt(masked, i)
	if !ok || kw != "ifndef" {
		return guardScan{}
	}
	nameStart, nameEnd, ok := identAt(masked, j)
	if !ok {
		return guardScan{}
	}
	guardName := masked[nameStart:nameEnd]
	_, next := logicalLine(masked, i)

	// Immediately followed by #define of the same macro.
	i = skipAllWS(masked, next)
	kw, j, ok = directiveAt(masked, i)
	if !ok || kw != "define" {
		return guardScan{}
	}
	defStart, defEnd, ok := identAt(masked, j)
	if !ok || !bytes.Equal(masked[defStart:defEnd], guardName) {
		return guardScan{}
	}
	_, next = logicalLine(masked, i)

	// Find the #endif matching the guard's #ifndef, tracking nesting.
	depth := 1
	i = next
	for i < len(masked) {
		lineEnd, nextLine := logicalLine(masked, i)
		if kw, _, ok := directiveAt(masked[:lineEnd], skipHWS(masked, i, lineEnd)); ok {
			switch kw {
			case "if", "ifdef", "ifndef":
				depth++
			case "endif":
				depth--
				if depth == 0 {
					// Only trivia may follow the guard's closer.
					if skipAllWS(masked, nextLine) < len(masked) {
						return guardScan{}
					}
					return guardScan{
						ok:         true,
						defineName: span(id, defStart, defEnd),
					}
				}
			}
		}
		i = nextLine
	}
	return guardScan{}
}

// directiveAt parses "#keyword" starting at i and returns the keyword and
// the offset just past it.
func directiveAt(content []byte, i int) (string, int, bool) {
	if i >= len(content) || content[i] != '#' {
		return "", i, false
	}
	i = skipHWS(content, i+1, len(content))
	start := i
	for i < len(content) && isDirectiveChar(content[i]) {
		i++
	}
	if i == start {
		return "", i, false
	}
	return string(content[start:i]), i, true
}

func identAt(content []byte, i int) (start, end int, ok bool) {
	i = skipHWS(content, i, len(content))
	if i >= len(content) || !isIdentStart(content[i]) {
		return 0, 0, false
	}
	start = i
	for i < len(content) && isIdentContinue(content[i]) {
		i++
	}
	return start, i, true
}

func skipAllWS(content []byte, i int) int {
	for i < len(content) {
		switch content[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// maskComments replaces // and /* */ comment bytes with spaces, keeping
// newlines and all offsets intact so spans computed on the masked buffer
// are valid for the original.
func maskComments(content []byte) []byte {
	out := append([]byte(nil), content...)

	const (
		stateCode = iota
		stateLineComment
		stateBlockComment
		stateString
		stateChar
	)
	state := stateCode

	for i := 0; i < len(out); i++ {
		b := out[i]
		switch state {
		case stateCode:
			switch {
			case b == '/' && i+1 < len(out) && out[i+1] == '/':
				state = stateLineComment
				out[i] = ' '
			case b == '/' && i+1 < len(out) && out[i+1] == '*':
				state = stateBlockComment
				out[i] = ' '
			case b == '"':
				state = stateString
			case b == '\'':
				state = stateChar
			}
		case stateLineComment:
			if b == '\n' {
				state = stateCode
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if b == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i] = ' '
				out[i+1] = ' '
				i++
				state = stateCode
			} else if b != '\n' {
				out[i] = ' '
			}
		case stateString:
			if b == '\\' && i+1 < len(out) {
				i++
			} else if b == '"' || b == '\n' {
				state = stateCode
			}
		case stateChar:
			if b == '\\' && i+1 < len(out) {
				i++
			} else if b == '\'' || b == '\n' {
				state = stateCode
			}
		}
	}
	return out
}
