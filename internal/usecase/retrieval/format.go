package retrieval

import (
	"fmt"
	"strings"

	"github.com/altura-advisory/retrieval/internal/domain"
	domret "github.com/altura-advisory/retrieval/internal/domain/retrieval"
)

// EmptyContext is the fixed rendering of a retrieval with no chunks.
const EmptyContext = "no relevant context found"

// FormatForConsumption renders a result as a context string for a
// language model: chunks in rank order grouped by their header path,
// then a Sources section listing document, section and score.
func FormatForConsumption(result domret.Result) string {
	if result.Empty() {
		return EmptyContext
	}

	var b strings.Builder
	var lastH1, lastH2 string

	for _, c := range result.Chunks {
		h1, _ := c.Metadata.Get(domain.HeaderKey1)
		h2, _ := c.Metadata.Get(domain.HeaderKey2)

		if h1 != "" && h1 != lastH1 {
			fmt.Fprintf(&b, "## %s\n\n", h1)
			lastH1 = h1
			lastH2 = ""
		}
		if h2 != "" && h2 != lastH2 {
			fmt.Fprintf(&b, "### %s\n\n", h2)
			lastH2 = h2
		}

		b.WriteString(c.Content)
		b.WriteString("\n\n")
	}

	b.WriteString("Sources:\n")
	for _, src := range result.Sources {
		section := src.Section
		if section == "" {
			section = "unlabeled"
		}
		fmt.Fprintf(&b, "- %s (%s, score %.2f)\n", src.DocumentID, section, src.Score)
	}

	return b.String()
}
