// Package export renders manuals as a knowledge document for question
// answering and as structured Markdown text.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// KnowledgeTab is a wire tab that also carries its key as "id".
type KnowledgeTab struct {
	manual.WireTab
	ID string `json:"id"`
}

// KnowledgeManual is one entry of the knowledge document.
type KnowledgeManual struct {
	ManualID        int            `json:"manual_id"`
	Title           string         `json:"title"`
	SourcePath      string         `json:"source_path"`
	Language        string         `json:"language,omitempty"`
	Features        []string       `json:"features"`
	SpecialFeatures []string       `json:"special_features"`
	Tabs            []KnowledgeTab `json:"tabs"`
}

// Knowledge converts manuals into knowledge entries.
func Knowledge(manuals []*manual.Manual) []KnowledgeManual {
	out := make([]KnowledgeManual, 0, len(manuals))
	for _, m := range manuals {
		w := m.Wire()
		k := KnowledgeManual{
			ManualID:        w.ManualID,
			Title:           w.Title,
			SourcePath:      w.SourcePath,
			Language:        w.Language,
			Features:        w.Features,
			SpecialFeatures: w.SpecialFeatures,
			Tabs:            make([]KnowledgeTab, len(w.Tabs)),
		}
		for i, t := range w.Tabs {
			k.Tabs[i] = KnowledgeTab{WireTab: t, ID: t.TabKey}
		}
		out = append(out, k)
	}
	return out
}

// WriteKnowledge writes the knowledge document as indented JSON.
func WriteKnowledge(w io.Writer, manuals []*manual.Manual) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Knowledge(manuals))
}

// KnowledgeText returns the compact JSON knowledge document, cut to at most
// maxChars bytes when maxChars is positive. The second result reports
// whether it was cut.
func KnowledgeText(manuals []*manual.Manual, maxChars int) (string, bool, error) {
	data, err := json.Marshal(Knowledge(manuals))
	if err != nil {
		return "", false, fmt.Errorf("encoding knowledge: %w", err)
	}
	if maxChars > 0 && len(data) > maxChars {
		return string(data[:maxChars]), true, nil
	}
	return string(data), false, nil
}

// Markdown renders m as structured text: features, then one section per
// tab in order.
func Markdown(m *manual.Manual) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Title)

	writeList := func(heading string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "## %s\n\n", heading)
		for _, it := range items {
			fmt.Fprintf(&b, "- %s\n", it)
		}
		b.WriteString("\n")
	}
	writeList("Features", m.Features)
	writeList("Special Features", m.SpecialFeatures)

	for _, t := range m.Tabs {
		fmt.Fprintf(&b, "## %s\n\n", t.Title)
		switch c := t.Content.(type) {
		case manual.ListContent:
			for _, it := range c.Items {
				fmt.Fprintf(&b, "- %s\n", it.Text)
			}
		case manual.StepsContent:
			if c.Warning != "" {
				fmt.Fprintf(&b, "**Warning:** %s\n\n", c.Warning)
			}
			for i, st := range c.Steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, st.Text)
			}
			if c.Notes != "" {
				fmt.Fprintf(&b, "\n*Note:* %s\n", c.Notes)
			}
		case manual.TextContent:
			b.WriteString(c.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// MarkdownFileName is the file a manual is exported to.
func MarkdownFileName(id int) string {
	return fmt.Sprintf("manual_%d_structured.txt", id)
}

// WriteMarkdownDir writes one structured text file per manual into dir.
func WriteMarkdownDir(dir string, manuals []*manual.Manual) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	written := 0
	for _, m := range manuals {
		path := filepath.Join(dir, MarkdownFileName(m.ID))
		if err := os.WriteFile(path, []byte(Markdown(m)), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", path, err)
		}
		written++
	}
	return written, nil
}
