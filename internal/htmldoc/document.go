// Package htmldoc reads the evaluation inputs: HTML documents into tagged text
// fragments, the HTML queries file into keyword lists, and the tab-separated
// relevance judgment files.
package htmldoc

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/internal/extract"
	apperrors "github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/errors"
)

// Document holds the fragments of the head and body regions in document
// order.
type Document struct {
	Head []extract.Fragment
	Body []extract.Fragment
}

// Fragments returns head fragments followed by body fragments.
func (d Document) Fragments() []extract.Fragment {
	out := make([]extract.Fragment, 0, len(d.Head)+len(d.Body))
	out = append(out, d.Head...)
	return append(out, d.Body...)
}

// ParseDocument parses an HTML document. Every element that has text of its
// own (direct text children) yields one fragment tagged with the element name.
// Script and style bodies are raw data, not text, and are never emitted.
func ParseDocument(r io.Reader) (Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return Document{}, apperrors.Newf(apperrors.ErrMalformedInput, "parsing html: %v", err)
	}
	var doc Document
	if head := findElement(root, atom.Head); head != nil {
		doc.Head = collectFragments(head)
	}
	if body := findElement(root, atom.Body); body != nil {
		doc.Body = collectFragments(body)
	}
	return doc, nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func collectFragments(region *html.Node) []extract.Fragment {
	var fragments []extract.Fragment
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if text := ownText(n); text != "" {
			fragments = append(fragments, extract.Fragment{Tag: n.Data, Text: text})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(region)
	return fragments
}

// ownText joins the direct text children of n, collapsing whitespace.
func ownText(n *html.Node) string {
	if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
		return ""
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		sb.WriteString(c.Data)
		sb.WriteByte(' ')
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
