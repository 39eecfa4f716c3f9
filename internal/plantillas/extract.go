package plantillas

import "regexp"

// Matches a single pair of curly braces, non-greedy. No nesting, no escape
// mechanism: a literal '{' always starts a placeholder. Capture 1 = name,
// which may be empty or contain whitespace; it is stored as-is.
var placeholderPattern = regexp.MustCompile(`\{([^}]*)\}`)

// Extract returns the placeholder names found in content, in first-occurrence
// order with duplicates collapsed. Unbalanced braces simply yield no match.
func Extract(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
