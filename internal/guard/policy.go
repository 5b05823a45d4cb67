package guard

import (
	"strings"
)

// DefaultHeaderSuffixes are the extensions treated as header-like.
var DefaultHeaderSuffixes = []string{".h", ".hh", ".hpp", ".hxx"}

// Policy bundles the pluggable decision hooks of the checker. Any nil hook
// falls back to the documented default.
type Policy struct {
	// HeaderSuffixes feeds the default suffix-based hooks.
	HeaderSuffixes []string

	// Style derives the canonical guard name for a path.
	Style Style

	// NameRoot, when set, is the slash-separated directory prefix stripped
	// from canonical paths before deriving a guard name. Without it an
	// absolute target leaks the machine's directory layout into the name.
	NameRoot string

	// FixGuard decides whether naming/endif-comment corrections are offered
	// for the file. Default: always.
	FixGuard func(path string) bool

	// SuggestEndifComment decides whether the closing #endif should carry a
	// guard comment. Default: header-like suffixes only.
	SuggestEndifComment func(path string) bool

	// SuggestAddingGuard decides whether a guardless file deserves a
	// missing-guard finding. Default: header-like suffixes only.
	SuggestAddingGuard func(path string) bool
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() *Policy {
	return &Policy{
		HeaderSuffixes: DefaultHeaderSuffixes,
		Style:          DefaultStyle(),
	}
}

func (p *Policy) headerLike(path string) bool {
	suffixes := p.HeaderSuffixes
	if len(suffixes) == 0 {
		suffixes = DefaultHeaderSuffixes
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}

// ShouldFixGuard reports whether guard corrections apply to path.
func (p *Policy) ShouldFixGuard(path string) bool {
	if p.FixGuard != nil {
		return p.FixGuard(path)
	}
	return true
}

// ShouldSuggestEndifComment reports whether path's #endif needs a comment.
func (p *Policy) ShouldSuggestEndifComment(path string) bool {
	if p.SuggestEndifComment != nil {
		return p.SuggestEndifComment(path)
	}
	return p.headerLike(path)
}

// ShouldSuggestAddingGuard reports whether a guardless path is diagnosed.
func (p *Policy) ShouldSuggestAddingGuard(path string) bool {
	if p.SuggestAddingGuard != nil {
		return p.SuggestAddingGuard(path)
	}
	return p.headerLike(path)
}

// GuardName derives the canonical guard identifier for path, relative to
// NameRoot when one is set and path sits under it.
func (p *Policy) GuardName(path string) string {
	if p.NameRoot != "" {
		root := strings.TrimSuffix(p.NameRoot, "/")
		if rest, ok := strings.CutPrefix(path, root+"/"); ok && rest != "" {
			path = rest
		}
	}
	return p.Style.Derive(path)
}
