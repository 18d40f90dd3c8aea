package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates the result to
// maxLen bytes. A maxLen of zero leaves the length unbounded.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
