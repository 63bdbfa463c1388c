package novelbit

import "strings"

// PathSeparator joins attribute path segments.
const PathSeparator = " → "

// JoinPath builds an attribute path such as "Novel → Chapter 1 → Characters".
// Segments are trimmed and blank ones skipped.
func JoinPath(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, PathSeparator)
}

// SplitPath is the inverse of JoinPath. A bare arrow without surrounding
// spaces also separates.
func SplitPath(path string) []string {
	var out []string
	for _, s := range strings.Split(path, "→") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
