package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/qa"
)

type fakeLibrary struct {
	manuals map[int]*manual.Manual
	err     error
}

func (l *fakeLibrary) Search(_ context.Context, q string) ([]manual.Summary, error) {
	out := []manual.Summary{}
	for _, m := range l.manuals {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(q)) {
			out = append(out, manual.Summary{ManualID: m.ID, Title: m.Title})
		}
	}
	return out, nil
}

func (l *fakeLibrary) Load(_ context.Context, id int) (*manual.Manual, error) {
	if l.err != nil {
		return nil, l.err
	}
	m, ok := l.manuals[id]
	if !ok {
		return nil, &manual.LoadError{ID: id, Status: http.StatusNotFound, Err: manual.ErrNotFound}
	}
	return m, nil
}

type fakeAsker struct {
	answer string
	err    error
}

func (a fakeAsker) Ask(_ context.Context, q string) (*qa.Answer, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &qa.Answer{Question: q, Answer: a.answer}, nil
}

func testManual() *manual.Manual {
	return &manual.Manual{
		ID:       1,
		Title:    "Speaker",
		Features: []string{"Bluetooth"},
		Tabs: []manual.Tab{
			{Key: "req", Title: "Requirements", Content: manual.ListContent{Items: []manual.Item{
				{ID: "req_item_01", Text: "Socket"}, {ID: "req_item_02", Text: "Shelf"},
			}}},
			{Key: "hw", Title: "Hardware", Content: manual.StepsContent{
				Warning: "Unplug first",
				Notes:   "Keep the box",
				Steps: []manual.Step{
					{ID: "hw_step_01", Text: "Unpack"},
					{ID: "hw_step_02", Text: "Place"},
					{ID: "hw_step_03", Text: "Connect"},
				},
			}},
			{Key: "use", Title: "Usage", Content: manual.TextContent{Text: "Press **play**.\n\n<script>alert(1)</script>"}},
		},
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setup(t *testing.T, lib *fakeLibrary, asker Asker, prober assets.Prober) http.Handler {
	t.Helper()
	if lib == nil {
		lib = &fakeLibrary{manuals: map[int]*manual.Manual{1: testManual()}}
	}
	h, err := New(Options{
		Library:  lib,
		Asker:    asker,
		Resolver: assets.DefaultResolver(),
		Prober:   prober,
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func get(t *testing.T, h http.Handler, path string) (int, *goquery.Document) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("parsing %s: %v", path, err)
	}
	return w.Code, doc
}

func TestIndexListsAndSearches(t *testing.T) {
	lib := &fakeLibrary{manuals: map[int]*manual.Manual{1: testManual(), 2: {ID: 2, Title: "Radio"}}}
	h := setup(t, lib, nil, nil)

	code, doc := get(t, h, "/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if n := doc.Find("#manual-list li").Length(); n != 2 {
		t.Errorf("listed %d manuals, want 2", n)
	}

	_, doc = get(t, h, "/?q=radio")
	links := doc.Find("#manual-list a")
	if links.Length() != 1 || links.AttrOr("href", "") != "/manuals/2" {
		t.Errorf("search result = %q", links.Text())
	}

	_, doc = get(t, h, "/?q=toaster")
	if doc.Find("#no-manuals").Length() != 1 {
		t.Error("expected empty-list message")
	}
}

func postAsk(t *testing.T, h http.Handler, question string) (int, *goquery.Document) {
	t.Helper()
	form := url.Values{"question": {question}}
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	return w.Code, doc
}

func TestAsk(t *testing.T) {
	h := setup(t, nil, fakeAsker{answer: "Hold the button."}, nil)
	code, doc := postAsk(t, h, "How do I pair?")
	if code != http.StatusOK || doc.Find("#answer").Text() != "Hold the button." {
		t.Errorf("got %d %q", code, doc.Find("#answer").Text())
	}
	if doc.Find("textarea").Text() != "How do I pair?" {
		t.Error("question should be kept in the form")
	}

	code, doc = postAsk(t, h, "")
	if code != http.StatusBadRequest || doc.Find("#ask-error").Length() != 1 {
		t.Errorf("empty question: %d", code)
	}

	h = setup(t, nil, fakeAsker{err: errors.New("quota")}, nil)
	code, doc = postAsk(t, h, "q")
	if code != http.StatusInternalServerError || !strings.Contains(doc.Find("#ask-error").Text(), "Failed to get answer") {
		t.Errorf("failing model: %d %q", code, doc.Find("#ask-error").Text())
	}

	h = setup(t, nil, nil, nil)
	code, _ = postAsk(t, h, "q")
	if code != http.StatusInternalServerError {
		t.Errorf("no asker: %d", code)
	}
}

func TestManualPageSteps(t *testing.T) {
	h := setup(t, nil, nil, nil)

	code, doc := get(t, h, "/manuals/1?tab=1")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if doc.Find("#manual-title").Text() != "Speaker" {
		t.Errorf("title = %q", doc.Find("#manual-title").Text())
	}
	if doc.Find("#tabs a.active").Text() != "Hardware" {
		t.Errorf("active tab = %q", doc.Find("#tabs a.active").Text())
	}
	if doc.Find("#warning").Text() != "Unplug first" || doc.Find("#notes").Length() != 0 {
		t.Error("first step should show the warning only")
	}
	if doc.Find("#prev").Length() != 0 || doc.Find("#next").Length() != 1 {
		t.Error("first step should only link forward")
	}
	if src := doc.Find("#step-image").AttrOr("src", ""); src != "/manual_images/hw_step_01.png" {
		t.Errorf("image = %q", src)
	}
	if src := doc.Find("#narration").AttrOr("src", ""); src != "/manual_audio/hw_step_01.wav" {
		t.Errorf("audio = %q", src)
	}

	_, doc = get(t, h, "/manuals/1?tab=1&step=2")
	if doc.Find("#step-text").Text() != "Connect" || doc.Find("#step-count").Text() != "Step 3 of 3" {
		t.Errorf("step = %q / %q", doc.Find("#step-text").Text(), doc.Find("#step-count").Text())
	}
	if doc.Find("#notes").Text() != "Keep the box" || doc.Find("#warning").Length() != 0 {
		t.Error("last step should show the notes only")
	}
	if doc.Find("#next").Length() != 0 {
		t.Error("last step should not link forward")
	}
	prev, _ := doc.Find("#prev").Attr("href")
	if !strings.Contains(prev, "step=1") || !strings.Contains(prev, "tab=1") {
		t.Errorf("prev link = %q", prev)
	}

	_, doc = get(t, h, "/manuals/1?tab=1&step=99")
	if doc.Find("#step-text").Text() != "Connect" {
		t.Error("step beyond the end should clamp to the last step")
	}
}

func TestManualPageAudioOff(t *testing.T) {
	h := setup(t, nil, nil, nil)
	_, doc := get(t, h, "/manuals/1?audio=off")
	if _, ok := doc.Find("#narration").Attr("src"); ok {
		t.Error("audio off should not set a source")
	}
	toggle, _ := doc.Find("#audio-toggle").Attr("href")
	if !strings.Contains(toggle, "audio=on") {
		t.Errorf("toggle link = %q", toggle)
	}
}

func TestManualPageOpensOnStepsTab(t *testing.T) {
	h := setup(t, nil, nil, nil)
	for _, path := range []string{"/manuals/1", "/manuals/1?tab=", "/manuals/1?tab=x", "/manuals/1?tab=9"} {
		_, doc := get(t, h, path)
		if got := doc.Find("#tabs a.active").Text(); got != "Hardware" {
			t.Errorf("%s: active tab = %q", path, got)
		}
		if src := doc.Find("#narration").AttrOr("src", ""); src != "/manual_audio/hw_step_01.wav" {
			t.Errorf("%s: audio = %q", path, src)
		}
	}
}

func TestManualPageListPlaysListClip(t *testing.T) {
	h := setup(t, nil, nil, nil)
	_, doc := get(t, h, "/manuals/1?tab=0")
	if doc.Find("#tabs a.active").Text() != "Requirements" {
		t.Errorf("active tab = %q", doc.Find("#tabs a.active").Text())
	}
	if n := doc.Find("#items li").Length(); n != 2 {
		t.Errorf("items = %d", n)
	}
	if src := doc.Find("#narration").AttrOr("src", ""); src != "/manual_audio/req_item_01.wav" {
		t.Errorf("audio = %q", src)
	}
	if doc.Find("#image-placeholder").Length() != 0 {
		t.Error("list tabs have no image placeholder")
	}
}

func TestManualPageImagePlaceholder(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hw_step_01.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	prober := assets.FileProber{Roots: map[string]string{"/manual_images": dir}}
	h := setup(t, nil, nil, prober)

	_, doc := get(t, h, "/manuals/1?tab=1")
	if doc.Find("#step-image").Length() != 1 {
		t.Error("existing image should render")
	}
	_, doc = get(t, h, "/manuals/1?tab=1&step=1")
	if doc.Find("#image-placeholder").Length() != 1 || doc.Find("#step-image").Length() != 0 {
		t.Error("missing image should render a placeholder")
	}
}

func TestManualPageText(t *testing.T) {
	h := setup(t, nil, nil, nil)
	_, doc := get(t, h, "/manuals/1?tab=2")
	body := doc.Find("#text-body")
	if body.Find("strong").Text() != "play" {
		t.Errorf("markdown not rendered: %q", body.Text())
	}
	if body.Find("script").Length() != 0 {
		t.Error("script should be sanitized away")
	}
}

func TestManualPageErrors(t *testing.T) {
	h := setup(t, nil, nil, nil)

	for _, path := range []string{"/manuals/42", "/manuals/abc", "/nowhere"} {
		code, doc := get(t, h, path)
		if code != http.StatusNotFound {
			t.Errorf("%s: status %d", path, code)
		}
		if doc.Find("#back").AttrOr("href", "") != "/" {
			t.Errorf("%s: missing link home", path)
		}
	}
	_, doc := get(t, h, "/manuals/42")
	if doc.Find("#message h1").Text() != "Manual not found" {
		t.Errorf("heading = %q", doc.Find("#message h1").Text())
	}

	h = setup(t, &fakeLibrary{err: errors.New("database locked")}, nil, nil)
	code, doc := get(t, h, "/manuals/1")
	if code != http.StatusInternalServerError || doc.Find("#message.failed").Length() != 1 {
		t.Errorf("failure page: %d", code)
	}
	if strings.Contains(doc.Text(), "database locked") {
		t.Error("internal error details should not be shown")
	}
}

func TestStaticAssets(t *testing.T) {
	h := setup(t, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/static/viewer.js", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "WebSocket") {
		t.Errorf("viewer.js: %d", w.Code)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(serverMessage) bool) (serverMessage, []serverMessage) {
	t.Helper()
	var seen []serverMessage
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m serverMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v (seen %+v)", err, seen)
		}
		seen = append(seen, m)
		if match(m) {
			return m, seen
		}
	}
}

func fragment(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSession(t *testing.T) {
	srv := httptest.NewServer(setup(t, nil, nil, nil))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/manuals/1?tab=1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	isReady := func(m serverMessage) bool { return m.Type == "snapshot" && m.Phase == "ready" }
	snap, _ := readUntil(t, conn, isReady)
	doc := fragment(t, snap.HTML)
	if doc.Find("#step-text").Text() != "Unpack" {
		t.Fatalf("initial step = %q", doc.Find("#step-text").Text())
	}

	// The first step clip is waiting for the browser to load it.
	conn.WriteJSON(clientMessage{Type: "next"})
	snap, seen := readUntil(t, conn, isReady)
	doc = fragment(t, snap.HTML)
	if doc.Find("#step-text").Text() != "Place" {
		t.Errorf("after next = %q", doc.Find("#step-text").Text())
	}
	var load serverMessage
	for _, m := range seen {
		if m.Type == "audio" && m.Op == "load" {
			load = m
		}
	}
	if load.Src != "/manual_audio/hw_step_02.wav" {
		t.Fatalf("expected a load for step 2, saw %+v", seen)
	}

	conn.WriteJSON(clientMessage{Type: "audio_loaded", Gen: load.Gen})
	_, seen = readUntil(t, conn, isReady)
	played := false
	for _, m := range seen {
		if m.Type == "audio" && m.Op == "play" && m.Gen == load.Gen {
			played = true
		}
	}
	if !played {
		t.Errorf("expected play for gen %d, saw %+v", load.Gen, seen)
	}

	conn.WriteJSON(clientMessage{Type: "select_tab", Tab: 9})
	errMsg, _ := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "error" })
	if errMsg.Error == "" {
		t.Error("out of range tab should report an error")
	}
	readUntil(t, conn, isReady)

	conn.WriteJSON(clientMessage{Type: "key", Key: "ArrowLeft"})
	snap, _ = readUntil(t, conn, isReady)
	if fragment(t, snap.HTML).Find("#step-text").Text() != "Unpack" {
		t.Error("ArrowLeft should go back one step")
	}
}

func TestSessionRestoresPositionWithOneLoad(t *testing.T) {
	srv := httptest.NewServer(setup(t, nil, nil, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/manuals/1?tab=1&step=2", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snap, seen := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "snapshot" && m.Phase == "ready" })
	if got := fragment(t, snap.HTML).Find("#step-text").Text(); got != "Connect" {
		t.Errorf("restored step = %q", got)
	}
	var loads []string
	for _, m := range seen {
		if m.Type == "audio" && m.Op == "load" {
			loads = append(loads, m.Src)
		}
	}
	if len(loads) != 1 || loads[0] != "/manual_audio/hw_step_03.wav" {
		t.Errorf("loads = %v", loads)
	}
}

func TestSessionDefaultsToStepsTab(t *testing.T) {
	srv := httptest.NewServer(setup(t, nil, nil, nil))
	defer srv.Close()

	for path, want := range map[string]string{"/ws/manuals/1": "Hardware", "/ws/manuals/1?tab=0": "Requirements"} {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
		if err != nil {
			t.Fatalf("dial %s: %v", path, err)
		}
		snap, _ := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "snapshot" && m.Phase == "ready" })
		if got := fragment(t, snap.HTML).Find("#tabs a.active").Text(); got != want {
			t.Errorf("%s: active tab = %q, want %q", path, got, want)
		}
		conn.Close()
	}
}

func TestSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(setup(t, nil, nil, nil))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/manuals/7", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	snap, _ := readUntil(t, conn, func(m serverMessage) bool { return m.Type == "snapshot" && m.Phase != "loading" })
	if snap.Phase != "not_found" || !strings.Contains(snap.HTML, "Manual not found") {
		t.Errorf("snapshot = %+v", snap)
	}
}
