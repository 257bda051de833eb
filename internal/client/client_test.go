package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/manualview/internal/manual"
)

const manualDoc = `{
  "manual_id": 7,
  "title": "Card",
  "source_path": "card.json",
  "features": [],
  "special_features": [],
  "tabs": [
    {"tab_key": "hw", "title": "Install", "tab_order": 1, "content_type": "steps",
     "content": {"warning": "Unplug", "note": "Done", "steps": [{"id": "hw_step_01", "text": "Open"}]}}
  ]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/api/manuals", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		out := []manual.Summary{{ManualID: 7, Title: "Card", SourcePath: "card.json"}}
		if r.URL.Query().Get("q") == "none" {
			out = []manual.Summary{}
		}
		json.NewEncoder(w).Encode(out)
	})
	r.Get("/api/manuals/7", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(manualDoc))
	})
	r.Get("/api/manuals/42", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Manual not found"}`))
	})
	r.Get("/api/manuals/500", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"database locked"}`))
	})
	r.Get("/api/manuals/13", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tabs": [{"tab_key": "x", "content_type": "video", "content": null}]}`))
	})
	r.Post("/api/qa", func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(askResponse{Error: "No question provided"})
			return
		}
		json.NewEncoder(w).Encode(askResponse{Answer: "answer to " + req.Question})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestGet(t *testing.T) {
	c := New(testServer(t).URL+"/", nil)
	m, err := c.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.ID != 7 || m.Title != "Card" || len(m.Tabs) != 1 {
		t.Fatalf("unexpected manual: %+v", m)
	}
	steps, ok := m.Tabs[0].Content.(manual.StepsContent)
	if !ok || steps.Notes != "Done" {
		t.Errorf("steps content not normalized: %#v", m.Tabs[0].Content)
	}
}

func TestGetNotFound(t *testing.T) {
	c := New(testServer(t).URL, nil)
	_, err := c.Get(context.Background(), 42)
	if !errors.Is(err, manual.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetServerError(t *testing.T) {
	c := New(testServer(t).URL, nil)
	_, err := c.Get(context.Background(), 500)
	var le *manual.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if le.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", le.Status)
	}
	if manual.IsNotFound(err) {
		t.Error("server error must not be reported as not found")
	}
}

func TestGetMalformed(t *testing.T) {
	c := New(testServer(t).URL, nil)
	_, err := c.Get(context.Background(), 13)
	var le *manual.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for unknown content type, got %v", err)
	}
}

func TestGetNetworkFailure(t *testing.T) {
	srv := testServer(t)
	c := New(srv.URL, nil)
	srv.Close()
	_, err := c.Get(context.Background(), 7)
	var le *manual.LoadError
	if !errors.As(err, &le) || le.Status != 0 {
		t.Fatalf("expected transport LoadError, got %v", err)
	}
}

func TestList(t *testing.T) {
	c := New(testServer(t).URL, nil)
	list, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ManualID != 7 {
		t.Errorf("list = %+v", list)
	}
	list, err = c.List(context.Background(), "none")
	if err != nil || len(list) != 0 {
		t.Errorf("filtered list = %+v, %v", list, err)
	}
}

func TestAsk(t *testing.T) {
	c := New(testServer(t).URL, nil)
	answer, err := c.Ask(context.Background(), "how?")
	if err != nil || answer != "answer to how?" {
		t.Errorf("Ask = %q, %v", answer, err)
	}
	if _, err := c.Ask(context.Background(), ""); err == nil || !strings.Contains(err.Error(), "No question provided") {
		t.Errorf("empty question: %v", err)
	}
}

func TestAskGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html><body>502 Bad Gateway</body></html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Ask(context.Background(), "how?")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "502") || !strings.Contains(err.Error(), "Bad Gateway") {
		t.Errorf("error = %v", err)
	}
	if strings.Contains(err.Error(), "invalid character") {
		t.Errorf("error body was decoded as JSON: %v", err)
	}
}
