package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"guardlint/internal/diag"
	"guardlint/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.Bold)
	noteColor = color.New(color.FgBlue)
)

// Pretty renders diagnostics in a human-readable form, one block per
// diagnostic:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//	  <line text>
//	  ^~~~~~~
//
// followed by notes and fix titles when enabled. Iterates bag.Items();
// callers are expected to Sort() the bag beforehand.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for _, d := range bag.Items() {
		writeHeading(w, fs, d.Primary, d.Severity, d.Code.ID(), d.Message, opts)
		writeContext(w, fs, d.Primary, opts)

		if opts.ShowNotes {
			for _, note := range d.Notes {
				writeNote(w, fs, note, opts)
			}
		}
		if opts.ShowFixes {
			for _, f := range d.Fixes {
				fmt.Fprintf(w, "  fix available: %s [%s]\n", f.Title, f.ID)
			}
		}
	}
}

func writeHeading(w io.Writer, fs *source.FileSet, sp source.Span, sev diag.Severity, code, msg string, opts PrettyOpts) {
	pos := formatPosition(fs, sp, opts.PathMode)
	sevText := sev.String()
	if opts.Color {
		pos = posColor.Sprint(pos)
		sevText = severityColor(sev).Sprint(sevText)
	}
	fmt.Fprintf(w, "%s: %s %s: %s\n", pos, sevText, code, msg)
}

func writeNote(w io.Writer, fs *source.FileSet, note diag.Note, opts PrettyOpts) {
	pos := formatPosition(fs, note.Span, opts.PathMode)
	label := "note"
	if opts.Color {
		label = noteColor.Sprint(label)
	}
	fmt.Fprintf(w, "  %s: %s: %s\n", pos, label, note.Msg)
}

// writeContext prints the source line under the primary span with a caret
// underline sized by display width, plus surrounding context lines.
func writeContext(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts) {
	start, _ := fs.Resolve(sp)
	file := fs.Get(sp.File)

	first := int(start.Line) - int(opts.Context)
	if first < 1 {
		first = 1
	}
	for lineNum := first; lineNum <= int(start.Line); lineNum++ {
		text := file.GetLine(uint32(lineNum))
		if lineNum < int(start.Line) && text == "" {
			continue
		}
		fmt.Fprintf(w, "  %4d | %s\n", lineNum, text)
	}

	text := file.GetLine(start.Line)
	if int(start.Col)-1 > len(text) {
		return
	}
	prefix := text[:start.Col-1]
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))

	width := int(sp.Len())
	if width < 1 {
		width = 1
	}
	if rest := text[start.Col-1:]; width > len(rest) && len(rest) > 0 {
		width = len(rest)
	}
	underline := "^" + strings.Repeat("~", width-1)
	if opts.Color {
		underline = warnColor.Sprint(underline)
	}
	fmt.Fprintf(w, "       | %s%s\n", pad, underline)
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errColor
	case diag.SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

func formatPosition(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, sp.File, mode), start.Line, start.Col)
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	default:
		return f.FormatPath("auto", "")
	}
}
