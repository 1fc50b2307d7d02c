// Package stemmer maps lowercase words to their stems with the Snowball
// algorithms.
package stemmer

import (
	"fmt"

	"github.com/kljensen/snowball"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// Stemmer is a pure, deterministic word -> stem mapping.
type Stemmer interface {
	Stem(word string) string
}

// Func adapts a plain function to the Stemmer interface.
type Func func(string) string

func (f Func) Stem(word string) string { return f(word) }

// Identity leaves every word unchanged.
var Identity = Func(func(w string) string { return w })

var supported = map[string]struct{}{
	"english": {}, "french": {}, "spanish": {}, "russian": {}, "swedish": {},
}

type Snowball struct {
	language string
}

func NewSnowball(language string) (*Snowball, error) {
	if _, ok := supported[language]; !ok {
		return nil, apperrors.Newf(apperrors.ErrConfiguration, "no snowball stemmer for language %q", language)
	}
	return &Snowball{language: language}, nil
}

// Stem returns the stem of word, or word itself when the algorithm rejects it.
func (s *Snowball) Stem(word string) string {
	stemmed, err := snowball.Stem(word, s.language, true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func (s *Snowball) String() string {
	return fmt.Sprintf("snowball(%s)", s.language)
}
