package stream

import (
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Repair applies one lossy structural fix to truncated JSON text:
//
//   - trim whitespace
//   - close unmatched '{' and '['
//   - close the string the text ends inside, escaped quotes included
//   - otherwise close a dangling quote when the '"' count is odd
//   - drop the first trailing comma before a closing '}' or ']'
//
// Closers are emitted innermost first so `{"b":[1,2` becomes `{"b":[1,2]}`.
// When the text ends inside a string the closing quote goes before the
// closers. The output can parse while meaning something other than what the
// model intended; callers must apply it at most once.
func Repair(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	open, inString := unclosed(text)

	var closers strings.Builder
	for i := len(open) - 1; i >= 0; i-- {
		if open[i] == '{' {
			closers.WriteByte('}')
		} else {
			closers.WriteByte(']')
		}
	}

	switch {
	case inString:
		text += `"` + closers.String()
	case strings.Count(text, `"`)%2 == 1:
		// An odd count outside any string only comes from a stray escaped
		// quote; the quote still goes last.
		text += closers.String() + `"`
	default:
		text += closers.String()
	}

	if loc := trailingComma.FindStringSubmatchIndex(text); loc != nil {
		text = text[:loc[0]] + text[loc[2]:loc[3]] + text[loc[1]:]
	}
	return text
}

// unclosed returns the stack of '{' and '[' left open outside of string
// literals, and whether the text ends inside a string.
func unclosed(text string) (open []byte, inString bool) {
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			open = append(open, c)
		case '}', ']':
			if n := len(open); n > 0 && matches(open[n-1], c) {
				open = open[:n-1]
			}
		}
	}
	return open, inString
}

func matches(opener, closer byte) bool {
	return (opener == '{' && closer == '}') || (opener == '[' && closer == ']')
}
