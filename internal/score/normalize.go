// Package score computes recall-based word accuracy for OCR output.
//
// The metric is recall-only on purpose: extra or hallucinated words in the
// engine output are never penalized. It measures whether the engine
// recovered the ground-truth words at all, which is what the benchmark
// compares across engines. Do not "fix" this by adding a precision term.
package score

import (
	"strings"
	"unicode"
)

// tokenRanges is the whitelist of rune classes kept during normalization.
// Marks (M) matter: Indic vowel signs and viramas are combining marks, and
// dropping them would corrupt Devanagari or Tamil tokens on both sides of
// the comparison.
var tokenRanges = []*unicode.RangeTable{unicode.L, unicode.M, unicode.N}

// Normalize turns raw OCR output into a comparable token set.
//
// It lowercases, drops every rune outside the letter/mark/digit whitelist
// other than whitespace and hyphen, and splits on whitespace. Non-Latin
// scripts pass through intact rather than being stripped as punctuation.
// The result is deterministic for a given input and independent of locale.
func Normalize(text string) map[string]struct{} {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsOneOf(tokenRanges, r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		case r == '-':
			b.WriteRune(r)
		}
	}

	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(b.String()) {
		tokens[tok] = struct{}{}
	}
	return tokens
}

// NormalizeWord normalizes a single ground-truth word the same way
// Normalize treats tokens in the extracted text. A word that normalizes
// to nothing (pure punctuation) returns the empty string.
func NormalizeWord(word string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if unicode.IsOneOf(tokenRanges, r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
