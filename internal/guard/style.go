package guard

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Style derives the preferred guard identifier for a canonical path.
// Derivation is pure: the result depends only on the path and the
// configured prefixes, never on traversal order or prior state.
type Style struct {
	// StripPrefixes lists leading path components that carry no naming
	// information, e.g. "include". They are removed before deriving.
	StripPrefixes []string
}

// DefaultStyle matches the common convention where include/foo/bar.h is
// guarded by FOO_BAR_H.
func DefaultStyle() Style {
	return Style{StripPrefixes: []string{"include", "src"}}
}

// Derive maps a canonical path to the preferred guard identifier: leading
// noise components stripped, every non-alphanumeric rune folded to '_',
// uppercased. Paths are NFC-normalized first so decomposed unicode (macOS
// file names) derives the same identifier as the composed form.
func (st Style) Derive(path string) string {
	p := norm.NFC.String(path)

	parts := strings.Split(p, "/")
	for len(parts) > 1 && st.stripped(parts[0]) {
		parts = parts[1:]
	}

	var b strings.Builder
	b.Grow(len(p))
	for i, part := range parts {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, r := range part {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(unicode.ToUpper(r))
			} else {
				b.WriteByte('_')
			}
		}
	}

	out := b.String()
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

func (st Style) stripped(comp string) bool {
	for _, p := range st.StripPrefixes {
		if comp == p {
			return true
		}
	}
	return false
}

// AcceptableName reports whether the current guard spelling satisfies the
// canonical one. A single trailing underscore is tolerated as an alternate
// convention.
func AcceptableName(current, canonical string) bool {
	return current == canonical || current == canonical+"_"
}
