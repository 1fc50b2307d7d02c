package htmldoc

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/extract"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

func TestParseDocument(t *testing.T) {
	src := `<!doctype html>
<html>
  <head>
    <title>Le chat noir</title>
    <meta charset="utf-8">
    <style>body{color:red}</style>
    <script>var x = 1</script>
  </head>
  <body>
    <h1>Félins</h1>
    <p>Un <strong>chat</strong> dort.</p>
    <div><span></span></div>
  </body>
</html>`
	doc, err := ParseDocument(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []extract.Fragment{{Tag: "title", Text: "Le chat noir"}}, doc.Head)
	assert.Equal(t, []extract.Fragment{
		{Tag: "h1", Text: "Félins"},
		{Tag: "p", Text: "Un dort."},
		{Tag: "strong", Text: "chat"},
	}, doc.Body)
	assert.Len(t, doc.Fragments(), 4)
}

func TestParseDocumentWithoutMarkup(t *testing.T) {
	doc, err := ParseDocument(strings.NewReader("juste du texte"))
	require.NoError(t, err)
	assert.Empty(t, doc.Head)
	assert.Equal(t, []extract.Fragment{{Tag: "body", Text: "juste du texte"}}, doc.Body)
}

func TestParseQueries(t *testing.T) {
	src := `<html><body>
<h2>Q1</h2>
<dl>
  <dt>sujet</dt><dd>ignored, words</dd>
  <dt>mots clés</dt><dd>chat, noir #, félin, matou #, souris</dd>
</dl>
<h2>Q2</h2>
<dl>
  <dt>Mots clés</dt><dd>chien</dd>
</dl>
</body></html>`
	queries, err := ParseQueries(strings.NewReader(src), "mots clés")
	require.NoError(t, err)
	require.Len(t, queries, 2)

	assert.Equal(t, QuerySource{
		ID:      "Q1",
		Primary: []string{"chat", "noir"},
		Groups:  [][]string{{"félin", "matou"}, {"souris"}},
	}, queries[0])
	assert.Equal(t, QuerySource{ID: "Q2", Primary: []string{"chien"}}, queries[1])
}

func TestParseQrels(t *testing.T) {
	src := "D1.html\t1\nD2.html\t0\r\n\nD3.html\t1\n"
	got, err := ParseQrels(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Judgment{
		{DocID: "D1.html", Relevance: 1},
		{DocID: "D2.html", Relevance: 0},
		{DocID: "D3.html", Relevance: 1},
	}, got)
}

func TestParseQrelsMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing field", "D1.html\n"},
		{"non numeric", "D1.html\tyes\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQrels(strings.NewReader(tt.src))
			assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
		})
	}
}

func TestQueryIDFromFilename(t *testing.T) {
	pattern := regexp.MustCompile(`qrel(Q\d+)`)
	assert.Equal(t, "Q7", QueryIDFromFilename(pattern, "in/qrels/qrelQ7.txt"))
	assert.Equal(t, "judgments.txt", QueryIDFromFilename(pattern, "judgments.txt"))
	assert.Equal(t, "qrelQ7.txt", QueryIDFromFilename(nil, "qrelQ7.txt"))
}
