package stream

import (
	"regexp"
	"strings"
)

var (
	thinkBlock    = regexp.MustCompile(`(?s)<think>.*?</think>`)
	thinkOpenTail = regexp.MustCompile(`(?s)<think>.*\z`)

	// A reasoning preamble runs from its marker line through the next blank
	// line, or to the end of the text.
	thinkingPreamble = regexp.MustCompile(`(?ms)^(?:THINK:|Thinking Process:|Thinking:|Thinking\.\.\.).*?(?:\n[ \t]*\n|\z)`)
)

// Clean strips reasoning annotations and markdown noise that models wrap
// around their JSON output.
//
// Removal can splice new markers together ("*<think>x</think>*" becomes
// "**"), so the passes repeat until the text stops changing. Every pass only
// shortens the text, which bounds the loop.
func Clean(text string) string {
	for {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = thinkBlock.ReplaceAllString(text, "")
	text = thinkOpenTail.ReplaceAllString(text, "")
	text = thinkingPreamble.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	return strings.TrimSpace(text)
}
