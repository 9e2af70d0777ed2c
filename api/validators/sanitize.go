package validators

import "strings"

// SanitizeQuery normalizes a free-text query parameter: surrounding
// whitespace is dropped and the value is capped so user input cannot grow
// SQL pattern matches without bound.
func SanitizeQuery(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
