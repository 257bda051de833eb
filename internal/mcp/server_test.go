package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/manualview/internal/db"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/manuals"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/search"
)

// hashEmbedder buckets words into a small vector.
type hashEmbedder struct{}

func (hashEmbedder) Name() string { return "hash" }

func (hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 8)
		for _, w := range strings.Fields(strings.ToLower(text)) {
			vec[len(w)%8]++
		}
		vec[7] += 0.01
		out[i] = vec
	}
	return out, nil
}

// mockAsker implements Asker for testing.
type mockAsker struct {
	answer *qa.Answer
	err    error
	asked  string
}

func (a *mockAsker) Ask(_ context.Context, q string) (*qa.Answer, error) {
	a.asked = q
	return a.answer, a.err
}

func setupLibrary(t *testing.T) *manuals.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := manuals.NewStore(database)
	_, err = store.Create(context.Background(), &manual.Manual{
		Title:      "Radio DAB 5",
		SourcePath: "dab5.pdf",
		Features:   []string{"DAB+"},
		Tabs: []manual.Tab{
			{Key: "hw", Title: "Hardware Installation", Content: manual.StepsContent{
				Steps: []manual.Step{{Text: "Extend the antenna"}, {Text: "Connect the power supply"}},
			}},
			{Key: "use", Title: "Usage", Content: manual.TextContent{Text: "Press the scan button."}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return tc.Text
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool     mcp.Tool
		wantName string
	}{
		{listManualsTool, "list_manuals"},
		{getManualTool, "get_manual"},
		{searchManualsTool, "search_manuals"},
		{askManualsTool, "ask_manuals"},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleListManuals(t *testing.T) {
	srv := NewServer(setupLibrary(t), nil, nil)
	ctx := context.Background()

	res, err := srv.handleListManuals(ctx, call(map[string]any{}))
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(t, res); !strings.Contains(got, "[1] Radio DAB 5 (dab5.pdf)") {
		t.Errorf("list = %q", got)
	}

	res, _ = srv.handleListManuals(ctx, call(map[string]any{"query": "toaster"}))
	if got := textOf(t, res); !strings.Contains(got, "No manuals found") {
		t.Errorf("empty list = %q", got)
	}
}

func TestHandleGetManual(t *testing.T) {
	srv := NewServer(setupLibrary(t), nil, nil)
	ctx := context.Background()

	t.Run("markdown", func(t *testing.T) {
		res, err := srv.handleGetManual(ctx, call(map[string]any{"manual_id": float64(1)}))
		if err != nil {
			t.Fatal(err)
		}
		if res.IsError {
			t.Fatalf("unexpected tool error: %v", res.Content)
		}
		got := textOf(t, res)
		if !strings.Contains(got, "Radio DAB 5") || !strings.Contains(got, "1. Extend the antenna") {
			t.Errorf("markdown = %q", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		res, _ := srv.handleGetManual(ctx, call(map[string]any{"manual_id": "1", "format": "json"}))
		m, err := manual.Parse([]byte(textOf(t, res)))
		if err != nil {
			t.Fatalf("json output does not decode: %v", err)
		}
		if m.ID != 1 || len(m.Tabs) != 2 {
			t.Errorf("decoded = %+v", m)
		}
	})

	t.Run("not found", func(t *testing.T) {
		res, _ := srv.handleGetManual(ctx, call(map[string]any{"manual_id": 9}))
		if !res.IsError || !strings.Contains(textOf(t, res), "Manual 9 not found") {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		res, _ := srv.handleGetManual(ctx, call(map[string]any{}))
		if !res.IsError {
			t.Error("expected error for missing manual_id")
		}
	})

	t.Run("bad format", func(t *testing.T) {
		res, _ := srv.handleGetManual(ctx, call(map[string]any{"manual_id": 1, "format": "pdf"}))
		if !res.IsError {
			t.Error("expected error for unknown format")
		}
	})
}

func TestHandleSearchManuals(t *testing.T) {
	store := setupLibrary(t)
	ctx := context.Background()

	res, _ := NewServer(store, nil, nil).handleSearchManuals(ctx, call(map[string]any{"query": "antenna"}))
	if res.IsError || !strings.Contains(textOf(t, res), "not indexed") {
		t.Errorf("without index: %+v", res)
	}

	idx, err := search.NewIndex(hashEmbedder{})
	if err != nil {
		t.Fatal(err)
	}
	m, _ := store.Get(ctx, 1)
	if err := idx.AddManual(ctx, m); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(store, idx, nil)

	res, err = srv.handleSearchManuals(ctx, call(map[string]any{"query": "antenna", "limit": 2}))
	if err != nil {
		t.Fatal(err)
	}
	got := textOf(t, res)
	if strings.Count(got, "--- Radio DAB 5") != 2 {
		t.Errorf("expected two passages, got %q", got)
	}

	res, _ = srv.handleSearchManuals(ctx, call(map[string]any{}))
	if !res.IsError {
		t.Error("expected error for missing query")
	}
}

func TestHandleAskManuals(t *testing.T) {
	store := setupLibrary(t)
	ctx := context.Background()

	res, _ := NewServer(store, nil, nil).handleAskManuals(ctx, call(map[string]any{"question": "How?"}))
	if !res.IsError || !strings.Contains(textOf(t, res), "not configured") {
		t.Errorf("without asker: %+v", res)
	}

	asker := &mockAsker{answer: &qa.Answer{
		Answer:    "Extend the antenna first.",
		Sources:   []search.Passage{{ManualTitle: "Radio DAB 5", TabTitle: "Hardware Installation"}},
		Truncated: true,
	}}
	res, err := NewServer(store, nil, asker).handleAskManuals(ctx, call(map[string]any{"question": "How do I start?"}))
	if err != nil {
		t.Fatal(err)
	}
	got := textOf(t, res)
	if asker.asked != "How do I start?" {
		t.Errorf("asked = %q", asker.asked)
	}
	for _, want := range []string{"Extend the antenna first.", "- Radio DAB 5 / Hardware Installation", "truncated"} {
		if !strings.Contains(got, want) {
			t.Errorf("answer missing %q: %q", want, got)
		}
	}

	tests := []struct {
		err  error
		want string
	}{
		{qa.ErrEmptyQuestion, "must not be empty"},
		{qa.ErrNoProvider, "not configured"},
		{errors.New("quota exceeded"), "quota exceeded"},
	}
	for _, tt := range tests {
		res, _ := NewServer(store, nil, &mockAsker{err: tt.err}).handleAskManuals(ctx, call(map[string]any{"question": "x"}))
		if !res.IsError || !strings.Contains(textOf(t, res), tt.want) {
			t.Errorf("error %v: result %q", tt.err, textOf(t, res))
		}
	}
}
