package translator

import (
	"regexp"
	"strings"
)

// thinkingBlockRe matches complete reasoning blocks some models emit before
// the answer, and truncatedThinkingRe an opened block that was never closed.
// RE2 has no backreferences, so each tag is listed.
var (
	thinkingBlockRe = regexp.MustCompile(
		`(?is)<think>.*?</think>|<thinking>.*?</thinking>|<reasoning>.*?</reasoning>`,
	)
	truncatedThinkingRe = regexp.MustCompile(`(?is)(?:<think>|<thinking>|<reasoning>).*$`)

	echoRe = regexp.MustCompile(
		`(?i)^(?:(?:certainly|sure|of course)[,.]?\s+)?(?:here(?:'s| is)\s+(?:the\s+)?(?:translated\s+)?(?:translation|text)|(?:the\s+)?translation)\s*:`,
	)
)

// cleanLLMOutput strips reasoning blocks, "Here is the translation:" echoes
// and a matching pair of wrapping quotes from raw model output.
func cleanLLMOutput(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if loc := echoRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}

	return strings.TrimSpace(unquote(text))
}

func unquote(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	pairs := map[rune]rune{'"': '"', '\'': '\'', '«': '»', '“': '”', '‘': '’'}
	if closing, ok := pairs[runes[0]]; ok && runes[n-1] == closing {
		return string(runes[1 : n-1])
	}
	return text
}
