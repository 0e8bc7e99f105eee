package format

import "strings"

// OptionalMDV2 escapes *s for MarkdownV2, or the fallback when s is nil or blank.
func OptionalMDV2(s *string, fallback string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return MDV2(fallback)
	}
	return MDV2(strings.TrimSpace(*s))
}
