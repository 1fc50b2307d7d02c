package htmldoc

import (
	"bufio"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// QuerySource is one query as written in the queries file, before term
// extraction.
type QuerySource struct {
	ID      string
	Primary []string
	Groups  [][]string
}

var groupSeparator = regexp.MustCompile(`\s*#\s*,?`)

// ParseQueries reads the queries file. Each query starts at an <h2> holding
// its id; its keywords are the <dd> that follows a <dt> whose text equals
// label. Keyword text is "primary, primary #, syn, syn #, rel, rel": the part
// before the first '#' lists primary entries and every later part is one
// group of synonyms or related terms.
func ParseQueries(r io.Reader, label string) ([]QuerySource, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedInput, "parsing queries file: %v", err)
	}
	body := findElement(root, atom.Body)
	if body == nil {
		return nil, nil
	}
	want := normalizeLabel(label)

	var (
		queries      []QuerySource
		byID         = make(map[string]int)
		current      = -1
		afterKeyword bool
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		text := ownText(n)
		switch n.DataAtom {
		case atom.H2:
			id := strings.TrimSpace(text)
			if id == "" {
				current = -1
				break
			}
			idx, ok := byID[id]
			if !ok {
				idx = len(queries)
				byID[id] = idx
				queries = append(queries, QuerySource{ID: id})
			}
			current = idx
		case atom.Dd:
			if afterKeyword && current >= 0 {
				primary, groups := splitKeywords(text)
				q := &queries[current]
				q.Primary = append(q.Primary, primary...)
				q.Groups = append(q.Groups, groups...)
			}
		}
		afterKeyword = n.DataAtom == atom.Dt && normalizeLabel(text) == want
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(body)
	return queries, nil
}

func splitKeywords(text string) (primary []string, groups [][]string) {
	parts := groupSeparator.Split(text, -1)
	primary = splitEntries(parts[0])
	for _, part := range parts[1:] {
		if entries := splitEntries(part); len(entries) > 0 {
			groups = append(groups, entries)
		}
	}
	return primary, groups
}

func splitEntries(s string) []string {
	var entries []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func normalizeLabel(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// Judgment is one line of a relevance judgment file.
type Judgment struct {
	DocID     string
	Relevance int
}

// ParseQrels reads "docID<TAB>relevance" lines. Blank lines are skipped; any
// other line that does not have both fields, or whose relevance is not an
// integer, fails the whole file.
func ParseQrels(r io.Reader) ([]Judgment, error) {
	var judgments []Judgment
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		fields := strings.Split(raw, "\t")
		if len(fields) < 2 {
			return nil, apperrors.Newf(apperrors.ErrMalformedInput, "line %d: expected docID<TAB>relevance", line)
		}
		rel, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformedInput, "line %d: relevance %q is not an integer", line, fields[1])
		}
		judgments = append(judgments, Judgment{DocID: strings.TrimSpace(fields[0]), Relevance: rel})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrMalformedInput, "reading qrels: %v", err)
	}
	return judgments, nil
}

// QueryIDFromFilename extracts the query id from a judgment file name using
// the first capture group of pattern, falling back to the base name.
func QueryIDFromFilename(pattern *regexp.Regexp, filename string) string {
	base := filepath.Base(filename)
	if pattern != nil {
		if m := pattern.FindStringSubmatch(base); len(m) > 1 {
			return m[1]
		}
	}
	return base
}
