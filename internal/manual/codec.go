package manual

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WireManual is the JSON document served by GET /api/manuals/{id}.
type WireManual struct {
	ManualID        int       `json:"manual_id"`
	Title           string    `json:"title"`
	SourcePath      string    `json:"source_path"`
	Language        string    `json:"language,omitempty"`
	Features        []string  `json:"features"`
	SpecialFeatures []string  `json:"special_features"`
	Tabs            []WireTab `json:"tabs"`
}

// WireTab is one tab of a WireManual. Content is shaped by ContentType.
type WireTab struct {
	TabID       int             `json:"tab_id,omitempty"`
	TabKey      string          `json:"tab_key"`
	Title       string          `json:"title"`
	TabOrder    int             `json:"tab_order"`
	ContentType ContentType     `json:"content_type"`
	Content     json.RawMessage `json:"content"`
}

// Summary is one row of GET /api/manuals.
type Summary struct {
	ManualID   int    `json:"manual_id"`
	Title      string `json:"title"`
	SourcePath string `json:"source_path"`
}

type wireEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type wireSteps struct {
	Warning string      `json:"warning,omitempty"`
	Note    string      `json:"note,omitempty"`
	Notes   string      `json:"notes,omitempty"`
	Steps   []wireEntry `json:"steps"`
}

// Decode reads a wire document and normalizes it into a Manual.
func Decode(r io.Reader) (*Manual, error) {
	var w WireManual
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding manual: %w", err)
	}
	return w.Normalize()
}

// Parse is Decode over a byte slice.
func Parse(data []byte) (*Manual, error) {
	return Decode(bytes.NewReader(data))
}

// LoadFile reads a static manual document from disk.
func LoadFile(path string) (*Manual, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manual %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Normalize converts the wire document into the canonical model.
func (w WireManual) Normalize() (*Manual, error) {
	m := &Manual{
		ID:              w.ManualID,
		Title:           w.Title,
		SourcePath:      w.SourcePath,
		Language:        w.Language,
		Features:        w.Features,
		SpecialFeatures: w.SpecialFeatures,
		Tabs:            make([]Tab, 0, len(w.Tabs)),
	}
	for i, wt := range w.Tabs {
		content, err := decodeContent(wt.ContentType, wt.Content)
		if err != nil {
			return nil, fmt.Errorf("tab %d (%s): %w", i, wt.TabKey, err)
		}
		m.Tabs = append(m.Tabs, Tab{
			Key:     wt.TabKey,
			Title:   wt.Title,
			Order:   wt.TabOrder,
			Content: content,
		})
	}
	return m, nil
}

func decodeContent(t ContentType, raw json.RawMessage) (Content, error) {
	empty := len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	switch t {
	case TypeList:
		var entries []wireEntry
		if !empty {
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, fmt.Errorf("list content: %w", err)
			}
		}
		items := make([]Item, len(entries))
		for i, e := range entries {
			items[i] = Item{ID: e.ID, Text: e.Text}
		}
		return ListContent{Items: items}, nil

	case TypeSteps:
		var ws wireSteps
		if !empty {
			if err := json.Unmarshal(raw, &ws); err != nil {
				return nil, fmt.Errorf("steps content: %w", err)
			}
		}
		steps := make([]Step, len(ws.Steps))
		for i, e := range ws.Steps {
			steps[i] = Step{ID: e.ID, Text: e.Text}
		}
		notes := ws.Note
		if notes == "" {
			notes = ws.Notes
		}
		return StepsContent{Warning: ws.Warning, Notes: notes, Steps: steps}, nil

	case TypeText:
		var s string
		if !empty {
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, fmt.Errorf("text content: %w", err)
			}
		}
		return TextContent{Text: s}, nil

	default:
		return nil, fmt.Errorf("unsupported content type %q", t)
	}
}

// Wire converts a Manual into its wire document.
func (m *Manual) Wire() WireManual {
	w := WireManual{
		ManualID:        m.ID,
		Title:           m.Title,
		SourcePath:      m.SourcePath,
		Language:        m.Language,
		Features:        nonNil(m.Features),
		SpecialFeatures: nonNil(m.SpecialFeatures),
		Tabs:            make([]WireTab, 0, len(m.Tabs)),
	}
	for _, t := range m.Tabs {
		w.Tabs = append(w.Tabs, WireTab{
			TabKey:      t.Key,
			Title:       t.Title,
			TabOrder:    t.Order,
			ContentType: t.Type(),
			Content:     encodeContent(t.Content),
		})
	}
	return w
}

// Encode writes m as a wire document.
func Encode(w io.Writer, m *Manual) error {
	return json.NewEncoder(w).Encode(m.Wire())
}

func encodeContent(c Content) json.RawMessage {
	var v any
	switch c := c.(type) {
	case ListContent:
		entries := make([]wireEntry, len(c.Items))
		for i, it := range c.Items {
			entries[i] = wireEntry{ID: it.ID, Text: it.Text}
		}
		v = entries
	case StepsContent:
		entries := make([]wireEntry, len(c.Steps))
		for i, s := range c.Steps {
			entries[i] = wireEntry{ID: s.ID, Text: s.Text}
		}
		v = wireSteps{Warning: c.Warning, Note: c.Notes, Steps: entries}
	case TextContent:
		v = c.Text
	default:
		v = nil
	}
	data, _ := json.Marshal(v)
	return data
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
