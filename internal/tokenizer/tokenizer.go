// Package tokenizer splits generated text into tokens. Tokens are maximal
// runs of non-whitespace characters; no case folding or stemming is applied,
// so scores stay comparable with whitespace-tokenised reference tooling.
package tokenizer

import (
	"strings"
)

// Terms returns the whitespace-separated terms of text.
func Terms(text string) []string {
	return strings.Fields(text)
}

// NGrams returns every contiguous span of n terms, each joined by a single
// space. Spans never extend past the given terms, so callers that tokenise
// line by line get n-grams that do not cross line boundaries.
func NGrams(terms []string, n int) []string {
	if n <= 0 || len(terms) < n {
		return nil
	}
	grams := make([]string, 0, len(terms)-n+1)
	for i := 0; i+n <= len(terms); i++ {
		grams = append(grams, strings.Join(terms[i:i+n], " "))
	}
	return grams
}
