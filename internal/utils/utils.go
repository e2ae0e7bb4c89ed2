package utils

import "strings"

// TruncateForLog shortens s to limit runes and appends an ellipsis when something was cut.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Collapse replaces runs of whitespace, including newlines, with a single space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
