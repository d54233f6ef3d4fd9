package record

import "strings"

// Abbreviate derives the short code shown on map markers from a record label.
// Multi-word labels take the first letter of up to the first three words;
// single-word labels take their first three characters.
func Abbreviate(label string) string {
	words := strings.Fields(label)
	switch {
	case len(words) == 0:
		return ""
	case len(words) == 1:
		runes := []rune(words[0])
		if len(runes) > 3 {
			runes = runes[:3]
		}
		return string(runes)
	default:
		if len(words) > 3 {
			words = words[:3]
		}
		var b strings.Builder
		for _, w := range words {
			b.WriteString(string([]rune(w)[:1]))
		}
		return b.String()
	}
}
