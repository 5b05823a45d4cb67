package guard

import (
	"strings"
)

// CleanPath canonicalizes a path by resolving "." and ".." components and
// rejoining with forward slashes. A ".." with no component left to drop is
// discarded silently. The function is total and idempotent; it never touches
// the filesystem.
func CleanPath(path string) string {
	absolute := strings.HasPrefix(path, "/")

	parts := make([]string, 0, strings.Count(path, "/")+1)
	for _, comp := range strings.Split(path, "/") {
		switch comp {
		case "", ".":
			// Doubled slashes and "." add nothing.
			continue
		case "..":
			if n := len(parts); n > 0 {
				parts = parts[:n-1]
			}
		default:
			parts = append(parts, comp)
		}
	}

	joined := strings.Join(parts, "/")
	if absolute {
		return "/" + joined
	}
	return joined
}
