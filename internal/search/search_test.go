package search

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// mockEmbedder returns deterministic embeddings based on text content.
// Texts sharing characters get similar vectors.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, m.dims)
		for j, ch := range strings.ToLower(text) {
			vec[(int(ch)+j)%m.dims] += 1.0
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		norm = math.Sqrt(norm)
		for k := range vec {
			if norm > 0 {
				vec[k] = float32(float64(vec[k]) / norm)
			}
		}
		results[i] = vec
	}
	return results, nil
}

func (m *mockEmbedder) Name() string { return "mock" }

func testManual(id int, title string) *manual.Manual {
	return &manual.Manual{
		ID:    id,
		Title: title,
		Tabs: []manual.Tab{
			{Key: "req", Title: "Requirements", Content: manual.ListContent{Items: []manual.Item{
				{Text: "Mains socket"}, {Text: "Shelf"},
			}}},
			{Key: "hw", Title: "Hardware", Content: manual.StepsContent{
				Warning: "Unplug first",
				Notes:   "Keep the box",
				Steps:   []manual.Step{{Text: "Unpack the radio"}, {Text: "Extend the antenna"}},
			}},
			{Key: "use", Title: "Usage", Content: manual.TextContent{Text: "Press the play button."}},
			{Key: "empty", Title: "Empty", Content: manual.TextContent{}},
		},
	}
}

func TestPassages(t *testing.T) {
	ps := Passages(testManual(3, "Radio"))
	if len(ps) != 4 {
		t.Fatalf("expected 4 passages (list, 2 steps, text), got %d", len(ps))
	}
	if ps[0].Text != "- Mains socket\n- Shelf" {
		t.Errorf("list passage = %q", ps[0].Text)
	}
	if !strings.HasPrefix(ps[1].Text, "Warning: Unplug first") {
		t.Errorf("first step should carry the warning: %q", ps[1].Text)
	}
	if !strings.HasSuffix(ps[2].Text, "Note: Keep the box") {
		t.Errorf("last step should carry the note: %q", ps[2].Text)
	}
	if ps[1].ID != "3/hw/1" {
		t.Errorf("passage id = %q", ps[1].ID)
	}
}

func TestIndexAddSearchDelete(t *testing.T) {
	ctx := context.Background()
	idx, err := NewIndex(&mockEmbedder{dims: 64})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if res, err := idx.Search(ctx, "anything", 5, 0); err != nil || res != nil {
		t.Fatalf("empty index search = %v, %v", res, err)
	}

	if err := idx.AddManual(ctx, testManual(1, "Radio")); err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	if err := idx.AddManual(ctx, testManual(2, "Receiver")); err != nil {
		t.Fatalf("AddManual: %v", err)
	}
	if idx.Count() != 8 {
		t.Fatalf("Count = %d, want 8", idx.Count())
	}
	// Re-adding replaces instead of duplicating.
	if err := idx.AddManual(ctx, testManual(1, "Radio")); err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 8 {
		t.Errorf("Count after re-add = %d, want 8", idx.Count())
	}

	res, err := idx.Search(ctx, "extend the antenna", 3, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	for _, r := range res {
		if r.Similarity == 0 || r.ManualTitle == "" {
			t.Errorf("incomplete result: %+v", r)
		}
	}

	res, err = idx.Search(ctx, "antenna", 100, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range res {
		if r.ManualID != 2 {
			t.Errorf("filtered search returned manual %d", r.ManualID)
		}
	}

	if err := idx.DeleteManual(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if idx.Count() != 4 {
		t.Errorf("Count after delete = %d, want 4", idx.Count())
	}
}

func TestIndexPersistLoad(t *testing.T) {
	ctx := context.Background()
	idx, _ := NewIndex(&mockEmbedder{dims: 32})
	if err := idx.AddManual(ctx, testManual(1, "Radio")); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "index", "manuals.gob.gz")
	if err := idx.Persist(path); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, _ := NewIndex(&mockEmbedder{dims: 32})
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Count() != idx.Count() {
		t.Errorf("loaded count = %d, want %d", loaded.Count(), idx.Count())
	}
}

func TestFormatPassages(t *testing.T) {
	if FormatPassages(nil) != "No results found." {
		t.Error("empty result text")
	}
	out := FormatPassages([]Passage{{ManualID: 1, ManualTitle: "Radio", TabTitle: "Usage", Text: "Press play."}})
	if !strings.Contains(out, "Radio / Usage") || !strings.Contains(out, "Press play.") {
		t.Errorf("formatted = %q", out)
	}
}
