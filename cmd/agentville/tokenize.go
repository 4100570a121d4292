package main

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenize splits a REPL line into shell-like tokens, honouring double quotes
// so persona names with spaces (e.g. "Isabella Rodriguez") can be passed as
// a single argument.
func tokenize(line string) ([]string, error) {
	var tokens []string
	var b strings.Builder
	inQuotes := false
	tokenStarted := false

	flush := func() {
		if tokenStarted {
			tokens = append(tokens, b.String())
			b.Reset()
			tokenStarted = false
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			tokenStarted = true
		case unicode.IsSpace(r) && !inQuotes:
			flush()
		default:
			tokenStarted = true
			b.WriteRune(r)
		}
	}

	if inQuotes {
		return nil, fmt.Errorf("unterminated quote in: %s", line)
	}
	flush()

	return tokens, nil
}
