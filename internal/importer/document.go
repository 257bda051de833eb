package importer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// Document is the JSON produced by the manual converter.
type Document struct {
	Title           string        `json:"title"`
	Features        []string      `json:"features"`
	SpecialFeatures []string      `json:"specialFeatures"`
	SourcePdfPath   string        `json:"sourcePdfPath"`
	Tabs            []DocumentTab `json:"tabs"`
}

// DocumentTab is one converted tab. Content depends on Type: a list of
// items, a steps object or a string.
type DocumentTab struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

type documentEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type documentSteps struct {
	Warning string            `json:"warning"`
	Note    string            `json:"note"`
	Steps   []json.RawMessage `json:"steps"`
}

// ParseDocument converts converter output into a manual. Converter output
// is model generated, so malformed tabs and entries are skipped with a
// warning rather than failing the whole document. source is used when the
// document names no source path.
func ParseDocument(data []byte, source string) (*manual.Manual, []string, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing converter output: %w", err)
	}
	m := &manual.Manual{
		Title:           strings.TrimSpace(doc.Title),
		SourcePath:      doc.SourcePdfPath,
		Language:        "en",
		Features:        nonNil(doc.Features),
		SpecialFeatures: nonNil(doc.SpecialFeatures),
	}
	if m.Title == "" {
		m.Title = "Untitled Manual"
	}
	if m.SourcePath == "" {
		m.SourcePath = source
	}
	if m.SourcePath == "" {
		return nil, nil, fmt.Errorf("document has no source path")
	}

	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	for _, t := range doc.Tabs {
		if t.ID == "" || t.Title == "" || t.Type == "" || len(t.Content) == 0 || string(t.Content) == "null" {
			warn("skipping tab %q: missing id, title, type or content", t.ID)
			continue
		}
		tab := manual.Tab{Key: t.ID, Title: t.Title, Order: len(m.Tabs) + 1}
		switch manual.ContentType(t.Type) {
		case manual.TypeList:
			var raw []json.RawMessage
			if err := json.Unmarshal(t.Content, &raw); err != nil {
				warn("skipping tab %q: list content is not an array", t.ID)
				continue
			}
			items := []manual.Item{}
			for j, r := range raw {
				text, ok := entryText(r)
				if !ok {
					warn("skipping item %d of tab %q", j+1, t.ID)
					continue
				}
				items = append(items, manual.Item{ID: fmt.Sprintf("%s_item_%02d", t.ID, len(items)+1), Text: text})
			}
			tab.Content = manual.ListContent{Items: items}

		case manual.TypeSteps:
			var s documentSteps
			if err := json.Unmarshal(t.Content, &s); err != nil {
				warn("skipping tab %q: steps content is not an object", t.ID)
				continue
			}
			c := manual.StepsContent{Warning: s.Warning, Notes: s.Note, Steps: []manual.Step{}}
			for j, r := range s.Steps {
				text, ok := entryText(r)
				if !ok {
					warn("skipping step %d of tab %q", j+1, t.ID)
					continue
				}
				c.Steps = append(c.Steps, manual.Step{ID: fmt.Sprintf("%s_step_%02d", t.ID, len(c.Steps)+1), Text: text})
			}
			tab.Content = c

		case manual.TypeText:
			var text string
			if err := json.Unmarshal(t.Content, &text); err != nil {
				warn("skipping tab %q: text content is not a string", t.ID)
				continue
			}
			tab.Content = manual.TextContent{Text: text}

		default:
			warn("skipping tab %q: unknown type %q", t.ID, t.Type)
			continue
		}
		m.Tabs = append(m.Tabs, tab)
	}
	return m, warnings, nil
}

// entryText accepts both {"id", "text"} objects and bare strings.
func entryText(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var e documentEntry
	if err := json.Unmarshal(raw, &e); err != nil || e.Text == "" {
		return "", false
	}
	return e.Text, true
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
