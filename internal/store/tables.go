package store

// Documents lists every indexed document, including those without terms.
var Documents = Table{
	Name: "documents",
	Key:  []Column{{Name: "doc", Type: Text}},
}

// InvertedIndex holds the raw accumulated weight of a term in a document.
var InvertedIndex = Table{
	Name:  "inverted_index",
	Key:   []Column{{Name: "word", Type: Text}, {Name: "doc", Type: Text}},
	Value: []Column{{Name: "freq", Type: Real}},
}

// IDF holds the number of documents containing each term.
var IDF = Table{
	Name:  "idf",
	Key:   []Column{{Name: "word", Type: Text}},
	Value: []Column{{Name: "df", Type: Integer}},
}

// Requests holds the weighted terms of every query.
var Requests = Table{
	Name:  "requests",
	Key:   []Column{{Name: "req_id", Type: Text}, {Name: "word", Type: Text}},
	Value: []Column{{Name: "weight", Type: Real}},
}

// RequestsResults holds the relevance judgments.
var RequestsResults = Table{
	Name:  "requests_results",
	Key:   []Column{{Name: "req_id", Type: Text}, {Name: "doc", Type: Text}},
	Value: []Column{{Name: "result", Type: Integer}},
}
