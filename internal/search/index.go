package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/manualview/internal/manual"
)

const collectionName = "manuals"

// Passage is one retrievable unit of a manual: a step, a whole list or a
// text block.
type Passage struct {
	ID          string
	ManualID    int
	ManualTitle string
	TabKey      string
	TabTitle    string
	Text        string
	Similarity  float32
}

// Index is an in-memory semantic index over manual passages.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewIndex creates an empty index that embeds with e.
func NewIndex(e Embedder) (*Index, error) {
	db := chromem.NewDB()
	ef := chromemFunc(e)
	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col, embedFunc: ef}, nil
}

// Passages splits m into passages. Steps carry the tab's warning on the
// first step and its notes on the last, as the viewer shows them.
func Passages(m *manual.Manual) []Passage {
	var out []Passage
	add := func(t manual.Tab, id, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		out = append(out, Passage{
			ID:          fmt.Sprintf("%d/%s", m.ID, id),
			ManualID:    m.ID,
			ManualTitle: m.Title,
			TabKey:      t.Key,
			TabTitle:    t.Title,
			Text:        text,
		})
	}
	for _, t := range m.Tabs {
		switch c := t.Content.(type) {
		case manual.ListContent:
			lines := make([]string, len(c.Items))
			for i, it := range c.Items {
				lines[i] = "- " + it.Text
			}
			add(t, t.Key, strings.Join(lines, "\n"))
		case manual.StepsContent:
			for i, st := range c.Steps {
				text := fmt.Sprintf("Step %d: %s", i+1, st.Text)
				if i == 0 && c.Warning != "" {
					text = "Warning: " + c.Warning + "\n" + text
				}
				if i == len(c.Steps)-1 && c.Notes != "" {
					text += "\nNote: " + c.Notes
				}
				add(t, fmt.Sprintf("%s/%d", t.Key, i+1), text)
			}
		case manual.TextContent:
			add(t, t.Key, c.Text)
		}
	}
	return out
}

// AddManual indexes every passage of m, replacing earlier passages of the
// same manual.
func (x *Index) AddManual(ctx context.Context, m *manual.Manual) error {
	if err := x.DeleteManual(ctx, m.ID); err != nil {
		return err
	}
	passages := Passages(m)
	if len(passages) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:      p.ID,
			Content: p.Text,
			Metadata: map[string]string{
				"manual_id":    strconv.Itoa(p.ManualID),
				"manual_title": p.ManualTitle,
				"tab_key":      p.TabKey,
				"tab_title":    p.TabTitle,
			},
		}
	}
	x.mu.RLock()
	col := x.collection
	x.mu.RUnlock()
	return col.AddDocuments(ctx, docs, 1)
}

// DeleteManual drops all passages of manual id.
func (x *Index) DeleteManual(ctx context.Context, id int) error {
	x.mu.RLock()
	col := x.collection
	x.mu.RUnlock()
	if col.Count() == 0 {
		return nil
	}
	return col.Delete(ctx, map[string]string{"manual_id": strconv.Itoa(id)}, nil)
}

// Search returns up to limit passages most similar to query. A positive
// manualID restricts results to that manual.
func (x *Index) Search(ctx context.Context, query string, limit, manualID int) ([]Passage, error) {
	x.mu.RLock()
	col := x.collection
	x.mu.RUnlock()

	if limit <= 0 {
		limit = 8
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem-go requires nResults <= collection size.
	limit = min(limit, count)

	var where map[string]string
	if manualID > 0 {
		// Filtered queries may return fewer than limit results.
		where = map[string]string{"manual_id": strconv.Itoa(manualID)}
	}

	results, err := col.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	out := make([]Passage, len(results))
	for i, r := range results {
		id, _ := strconv.Atoi(r.Metadata["manual_id"])
		out[i] = Passage{
			ID:          r.ID,
			ManualID:    id,
			ManualTitle: r.Metadata["manual_title"],
			TabKey:      r.Metadata["tab_key"],
			TabTitle:    r.Metadata["tab_title"],
			Text:        r.Content,
			Similarity:  r.Similarity,
		}
	}
	return out, nil
}

// Count returns the number of indexed passages.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collection.Count()
}

// Persist writes the index to path as a compressed gob.
func (x *Index) Persist(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	return x.db.ExportToFile(path, true, "")
}

// Load replaces the index with the one stored at path.
func (x *Index) Load(path string) error {
	if err := x.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}
	col := x.db.GetCollection(collectionName, x.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	x.mu.Lock()
	x.collection = col
	x.mu.Unlock()
	return nil
}
