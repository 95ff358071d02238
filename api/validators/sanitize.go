package validators

import "strings"

// SanitizeString trims surrounding whitespace and caps length. Used for
// member-supplied free text such as set titles before persistence.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
