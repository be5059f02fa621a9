package shared

import "strings"

// Initials returns up to two uppercase initials for a display name:
// first and last word, or a single letter for one-word names.
func Initials(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return firstRune(parts[0])
	}
	return firstRune(parts[0]) + firstRune(parts[len(parts)-1])
}

// FormatName shortens a full name to "First Last".
func FormatName(name string) string {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return parts[0] + " " + parts[len(parts)-1]
	}
}

func firstRune(s string) string {
	for _, r := range s {
		return strings.ToUpper(string(r))
	}
	return ""
}
