package search

import (
	"fmt"
	"strings"
)

// FormatPassages renders passages as plain text, one block per passage.
func FormatPassages(passages []Passage) string {
	if len(passages) == 0 {
		return "No results found."
	}

	var sb strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&sb, "--- %s / %s (manual %d", p.ManualTitle, p.TabTitle, p.ManualID)
		if p.Similarity != 0 {
			fmt.Fprintf(&sb, ", similarity %.3f", p.Similarity)
		}
		sb.WriteString(") ---\n")
		sb.WriteString(p.Text)
		if i < len(passages)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
