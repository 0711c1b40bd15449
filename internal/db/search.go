package db

import "strings"

// KNNQuery is the input for vector similarity search. Filter is a
// pre-built FT.SEARCH filter fragment (see TagEquals) applied before
// the KNN clause; empty means match-all.
type KNNQuery struct {
	IndexName    string
	Filter       string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// TagEquals builds an exact-match TAG filter fragment with the value
// escaped for FT.SEARCH query syntax.
func TagEquals(field, value string) string {
	return "@" + field + ":{" + tagEscaper.Replace(value) + "}"
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
