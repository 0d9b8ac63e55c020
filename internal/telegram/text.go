package telegram

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage splits a message into chunks of maxLen characters,
// trying to split at newlines when possible.
func SplitMessage(text string, maxLen int) []string {
	if utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= maxLen {
			parts = append(parts, text)
			break
		}

		runes := []rune(text)
		splitAt := maxLen

		chunk := string(runes[:maxLen])
		if lastNewline := strings.LastIndex(chunk, "\n"); lastNewline >= 0 {
			if at := utf8.RuneCountInString(chunk[:lastNewline]) + 1; at > maxLen/2 {
				splitAt = at
			}
		}

		parts = append(parts, string(runes[:splitAt]))
		text = string(runes[splitAt:])
	}

	return parts
}

// Truncate cuts text to maxLen runes, marking the cut.
func Truncate(text string, maxLen int) string {
	const marker = "\n\n... (truncated)"
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	keep := maxLen - utf8.RuneCountInString(marker)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + marker
}
