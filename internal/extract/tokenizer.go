// Package extract turns raw document and query text into weighted terms:
// punctuation stripping, a letters-only filter, stopword removal, stemming,
// n-gram generation and structural (tag) weighting.
package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	punctuation = regexp.MustCompile(`\p{P}`)
	lettersOnly = regexp.MustCompile(`^\p{L}+$`)
)

// normalize composes combining accents so that "é" written as e + U+0301
// passes the letters-only check.
func normalize(word string) string {
	return norm.NFC.String(word)
}

// Words splits text into its kept, stemmed words in order. Punctuation is
// replaced by whitespace; a word is dropped when it contains anything other
// than letters (diacritics allowed) or is a stopword.
func (e *Extractor) Words(text string) []string {
	text = punctuation.ReplaceAllString(text, " ")
	raw := strings.Fields(text)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		w = normalize(strings.ToLower(w))
		if w == "" || !lettersOnly.MatchString(w) {
			continue
		}
		if e.stop.Contains(w) {
			continue
		}
		words = append(words, e.stemmer.Stem(w))
	}
	return words
}

// NGrams returns every phrase of n consecutive words for n = 1..max, shortest
// first. Phrases are joined with a single space.
func NGrams(words []string, max int) []string {
	grams := make([]string, 0, len(words)*max)
	for n := 1; n <= max; n++ {
		for i := 0; i+n <= len(words); i++ {
			grams = append(grams, strings.Join(words[i:i+n], " "))
		}
	}
	return grams
}

// IsPhrase reports whether term is a multi-word n-gram.
func IsPhrase(term string) bool {
	return strings.Contains(term, " ")
}
