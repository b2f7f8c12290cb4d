// Package chunker cuts text that is too long for a translation backend into
// pieces, preferring paragraph, sentence and word boundaries. Joining the
// pieces gives back the original text byte for byte.
package chunker

import (
	"strings"
	"unicode"
)

// Split cuts text into consecutive pieces of at most maxChars runes. Splits
// are attempted (in order of preference) at:
//  1. Paragraph boundaries (\n\n)
//  2. Sentence-ending punctuation (. ! ?) followed by whitespace
//  3. Whitespace (word boundary)
//  4. Hard cut at maxChars if no suitable boundary is found
//
// Whitespace at a boundary starts the next piece. If maxChars ≤ 0 the text
// is returned whole.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var pieces []string
	remaining := text
	for len([]rune(remaining)) > maxChars {
		split := findSplit(remaining, maxChars)
		pieces = append(pieces, remaining[:split])
		remaining = remaining[split:]
	}
	if remaining != "" {
		pieces = append(pieces, remaining)
	}
	return pieces
}

// findSplit returns the byte index, always > 0, at which to cut text so that
// the first part has at most maxChars runes.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	candidate := string(runes[:maxChars])

	if idx := strings.LastIndex(candidate, "\n\n"); idx > 0 {
		return idx + 2
	}

	head := runes[:maxChars]
	for i := len(head) - 2; i > 0; i-- {
		if isSentenceEnd(head[i]) && unicode.IsSpace(head[i+1]) {
			return len(string(head[:i+1]))
		}
	}

	for i := len(head) - 1; i > 0; i-- {
		if unicode.IsSpace(head[i]) {
			return len(string(head[:i]))
		}
	}

	return len(candidate)
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
