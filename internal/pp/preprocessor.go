package pp

import (
	"fmt"
	"os"
	"path"

	"guardlint/internal/diag"
	"guardlint/internal/guard"
	"guardlint/internal/source"
)

// Options configures a unit run.
type Options struct {
	// MaxIncludeDepth caps include nesting; 0 means the default of 64.
	MaxIncludeDepth int
}

// DefaultMaxIncludeDepth is the include nesting cap.
const DefaultMaxIncludeDepth = 64

func (o Options) maxDepth() int {
	if o.MaxIncludeDepth > 0 {
		return o.MaxIncludeDepth
	}
	return DefaultMaxIncludeDepth
}

type defRecord struct {
	name     source.StringID
	nameSpan source.Span
}

// Preprocessor walks one translation unit and emits events to a Sink.
// An instance serves exactly one unit; the driver creates a fresh one per
// root file.
type Preprocessor struct {
	fset     *source.FileSet
	names    *source.Interner
	reporter diag.Reporter
	opts     Options

	defined map[source.StringID]struct{}
	defs    []defRecord
	scans   map[source.FileID]guardScan
	sink    Sink
	depth   int
}

// New creates a preprocessor over the unit's file set and interner.
// The reporter receives advisory preprocessing diagnostics only.
func New(fset *source.FileSet, names *source.Interner, reporter diag.Reporter, opts Options) *Preprocessor {
	return &Preprocessor{
		fset:     fset,
		names:    names,
		reporter: reporter,
		opts:     opts,
		defined:  make(map[source.StringID]struct{}),
		scans:    make(map[source.FileID]guardScan),
	}
}

// Run loads the root file and processes the whole unit, finishing with
// exactly one EndOfUnit. Only a failure to load the root is an error;
// everything further degrades to advisory diagnostics.
func (p *Preprocessor) Run(rootPath string, sink Sink) error {
	p.sink = sink

	id, ok := p.lookupOrLoad(rootPath)
	if !ok {
		return fmt.Errorf("pp: load %s: file not found", rootPath)
	}

	p.processFile(id, guard.OriginUser)
	sink.EndOfUnit()
	return nil
}

// RunFile processes an already-added file as the unit root. Used by tests
// driving virtual file sets.
func (p *Preprocessor) RunFile(id source.FileID, sink Sink) {
	p.sink = sink
	p.processFile(id, guard.OriginUser)
	sink.EndOfUnit()
}

func (p *Preprocessor) lookupOrLoad(pathname string) (source.FileID, bool) {
	if f, ok := p.fset.GetByPath(pathname); ok {
		return f.ID, true
	}
	if _, err := os.Stat(pathname); err != nil {
		return 0, false
	}
	id, err := p.fset.Load(pathname)
	if err != nil {
		return 0, false
	}
	return id, true
}

// condState tracks one open conditional directive.
type condState struct {
	opening  source.Span
	visible  bool // the opening directive sat in an active region
	active   bool
	taken    bool
	seenElse bool
}

// processFile scans the directive lines of one file, recursing into quoted
// includes at their point of appearance so events stay in source order.
func (p *Preprocessor) processFile(id source.FileID, origin guard.Origin) {
	file := p.fset.Get(id)
	p.sink.EnterFile(file.Path, id, origin)

	content := file.Content
	stack := make([]condState, 0, 8)

	for lineStart := 0; lineStart < len(content); {
		logicalEnd, nextLine := logicalLine(content, lineStart)
		p.processDirective(id, content, lineStart, logicalEnd, &stack)
		lineStart = nextLine
	}

	// Conditionals cannot legally span files.
	for _, st := range stack {
		if !st.visible {
			continue
		}
		diag.ReportWarning(p.reporter, diag.PPUnterminatedConditional, st.opening,
			"conditional directive is never terminated").Emit()
	}
}

// active reports whether every enclosing conditional branch is live.
func active(stack []condState) bool {
	for i := range stack {
		if !stack[i].active {
			return false
		}
	}
	return true
}

//nolint:gocyclo // one case per directive keyword
func (p *Preprocessor) processDirective(id source.FileID, content []byte, lineStart, lineEnd int, stack *[]condState) {
	i := skipHWS(content, lineStart, lineEnd)
	if i >= lineEnd || content[i] != '#' {
		return
	}
	hashOff := i
	i = skipHWS(content, i+1, lineEnd)
	kwStart := i
	for i < lineEnd && isDirectiveChar(content[i]) {
		i++
	}
	keyword := string(content[kwStart:i])
	directiveSpan := span(id, hashOff, i)
	keywordSpan := span(id, kwStart, i)
	act := active(*stack)

	switch keyword {
	case "ifndef":
		nameSpan, ok := p.scanName(id, content, i, lineEnd)
		if !ok {
			*stack = append(*stack, condState{opening: directiveSpan, visible: act, active: act})
			return
		}
		if !act {
			*stack = append(*stack, condState{opening: directiveSpan})
			return
		}
		macro := p.names.InternBytes(p.fset.Text(nameSpan))
		_, already := p.defined[macro]
		p.sink.Ifndef(directiveSpan, nameSpan, macro, already)
		*stack = append(*stack, condState{
			opening: directiveSpan,
			visible: true,
			active:  !already,
			taken:   !already,
		})

	case "ifdef":
		live := false
		if nameSpan, ok := p.scanName(id, content, i, lineEnd); ok && act {
			macro := p.names.InternBytes(p.fset.Text(nameSpan))
			_, live = p.defined[macro]
		}
		*stack = append(*stack, condState{opening: directiveSpan, visible: act, active: act && live, taken: live})

	case "if":
		// Expressions are not evaluated; the branch counts as live.
		*stack = append(*stack, condState{opening: directiveSpan, visible: act, active: act, taken: true})

	case "elif":
		if len(*stack) == 0 {
			if act {
				diag.ReportWarning(p.reporter, diag.PPStrayElse, directiveSpan,
					"#elif without matching conditional").Emit()
			}
			return
		}
		top := &(*stack)[len(*stack)-1]
		if top.visible && !top.seenElse {
			top.active = !top.taken
			top.taken = true
		}

	case "else":
		if len(*stack) == 0 {
			if act {
				diag.ReportWarning(p.reporter, diag.PPStrayElse, directiveSpan,
					"#else without matching conditional").Emit()
			}
			return
		}
		top := &(*stack)[len(*stack)-1]
		if top.visible && !top.seenElse {
			top.active = !top.taken
			top.taken = true
		}
		top.seenElse = true

	case "endif":
		if len(*stack) == 0 {
			if act {
				diag.ReportWarning(p.reporter, diag.PPStrayEndif, directiveSpan,
					"#endif without matching conditional").Emit()
			}
			return
		}
		entry := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]
		if entry.visible {
			p.sink.Endif(keywordSpan, entry.opening)
		}

	case "define":
		if !act {
			return
		}
		nameSpan, ok := p.scanName(id, content, i, lineEnd)
		if !ok {
			return
		}
		macro := p.names.InternBytes(p.fset.Text(nameSpan))
		defID := guard.DefID(len(p.defs))
		p.defs = append(p.defs, defRecord{name: macro, nameSpan: nameSpan})
		p.defined[macro] = struct{}{}
		p.sink.MacroDefined(nameSpan, macro, defID)

	case "undef":
		if !act {
			return
		}
		if nameSpan, ok := p.scanName(id, content, i, lineEnd); ok {
			delete(p.defined, p.names.InternBytes(p.fset.Text(nameSpan)))
		}

	case "include":
		if !act {
			return
		}
		p.processInclude(id, content, i, lineEnd, directiveSpan)
	}
}

// processInclude resolves a quoted include relative to the including file
// and recurses into it. Angle-bracket includes are system headers and are
// not entered; search paths are out of scope.
func (p *Preprocessor) processInclude(id source.FileID, content []byte, i, lineEnd int, directiveSpan source.Span) {
	i = skipHWS(content, i, lineEnd)
	if i >= lineEnd || content[i] != '"' {
		return
	}
	start := i + 1
	end := start
	for end < lineEnd && content[end] != '"' {
		end++
	}
	if end >= lineEnd {
		return
	}
	target := string(content[start:end])

	if p.depth >= p.opts.maxDepth() {
		diag.ReportWarning(p.reporter, diag.PPIncludeDepthExceeded, directiveSpan,
			"include nesting too deep").Emit()
		return
	}

	includer := p.fset.Get(id)
	candidates := []string{path.Join(path.Dir(includer.Path), target), target}
	for _, cand := range candidates {
		incID, ok := p.lookupOrLoad(cand)
		if !ok {
			continue
		}
		p.depth++
		p.processFile(incID, guard.OriginUser)
		p.depth--
		return
	}

	diag.ReportInfo(p.reporter, diag.PPIncludeNotFound, directiveSpan,
		fmt.Sprintf("included file %q could not be resolved", target)).Emit()
}

// scanName reads the macro identifier following a directive keyword.
func (p *Preprocessor) scanName(id source.FileID, content []byte, i, lineEnd int) (source.Span, bool) {
	i = skipHWS(content, i, lineEnd)
	if i >= lineEnd || !isIdentStart(content[i]) {
		return source.Span{}, false
	}
	start := i
	for i < lineEnd && isIdentContinue(content[i]) {
		i++
	}
	return span(id, start, i), true
}

// logicalLine returns the end of the directive text starting at lineStart
// (with backslash continuations joined) and the offset of the next line.
func logicalLine(content []byte, lineStart int) (logicalEnd, nextLine int) {
	i := lineStart
	for {
		for i < len(content) && content[i] != '\n' {
			i++
		}
		// A trailing backslash continues the line.
		j := i - 1
		for j >= lineStart && (content[j] == ' ' || content[j] == '\t' || content[j] == '\r') {
			j--
		}
		if j >= lineStart && content[j] == '\\' && i < len(content) {
			i++
			continue
		}
		if i < len(content) {
			return i, i + 1
		}
		return i, i
	}
}

func skipHWS(content []byte, i, end int) int {
	for i < end {
		switch content[i] {
		case ' ', '\t', '\r':
			i++
		case '\\':
			// Escaped newline inside a continued directive line.
			if i+1 < end && content[i+1] == '\n' {
				i += 2
			} else {
				return i
			}
		case '\n':
			i++
		default:
			return i
		}
	}
	return i
}

func isDirectiveChar(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func span(id source.FileID, start, end int) source.Span {
	return source.Span{File: id, Start: uint32(start), End: uint32(end)}
}
