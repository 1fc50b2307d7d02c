package extract

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed stopwords_fr.txt
var defaultFrench string

// Stopwords is a set of lowercase words dropped before stemming.
type Stopwords map[string]struct{}

func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// DefaultStopwords returns the built-in French list.
func DefaultStopwords() Stopwords {
	s := make(Stopwords)
	// the embedded list is well formed
	_ = s.read(strings.NewReader(defaultFrench))
	return s
}

// LoadStopwords merges the built-in list with every file in paths. Files hold
// one word per line; blank lines are ignored.
func LoadStopwords(paths ...string) (Stopwords, error) {
	s := DefaultStopwords()
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening stopword file %s: %w", path, err)
		}
		err = s.read(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading stopword file %s: %w", path, err)
		}
	}
	return s, nil
}

func (s Stopwords) read(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" {
			continue
		}
		s[normalize(word)] = struct{}{}
	}
	return scanner.Err()
}
