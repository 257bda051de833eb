// Package web serves the browser viewer: the manual list with title
// search and questions, server-rendered manual pages and live viewer
// sessions over websockets.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/qa"
	"github.com/ziadkadry99/manualview/internal/viewer"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Library lists and loads manuals.
type Library interface {
	Search(ctx context.Context, q string) ([]manual.Summary, error)
	Load(ctx context.Context, id int) (*manual.Manual, error)
}

// Asker answers questions about the library.
type Asker interface {
	Ask(ctx context.Context, question string) (*qa.Answer, error)
}

// Options configures a Handler.
type Options struct {
	Library  Library
	Asker    Asker
	Resolver assets.Resolver
	// Prober checks step images before a page is rendered. Nil skips the
	// check and leaves missing images to the browser.
	Prober assets.Prober
	Logger *slog.Logger
}

// Handler renders the browser viewer.
type Handler struct {
	library  Library
	asker    Asker
	resolver assets.Resolver
	prober   assets.Prober
	logger   *slog.Logger
	md       *renderer
	pages    map[string]*template.Template
}

// New parses the embedded templates.
func New(opts Options) (*Handler, error) {
	h := &Handler{
		library:  opts.Library,
		asker:    opts.Asker,
		resolver: opts.Resolver,
		prober:   opts.Prober,
		logger:   opts.Logger,
		md:       newRenderer(),
		pages:    make(map[string]*template.Template),
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	funcs := template.FuncMap{"inc": func(i int) int { return i + 1 }}
	for _, page := range []string{"index", "viewer", "message"} {
		t, err := template.New(page).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", page, err)
		}
		h.pages[page] = t
	}
	return h, nil
}

// RegisterRoutes mounts the browser routes. NotFound handles every path no
// other route claims.
func (h *Handler) RegisterRoutes(r chi.Router) {
	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	r.Get("/", h.handleIndex)
	r.Post("/ask", h.handleAsk)
	r.Get("/manuals/{id}", h.handleManual)
	r.Get("/ws/manuals/{id}", h.handleSession)
	r.NotFound(h.NotFound)
}

// NotFound renders the not-found page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderMessage(w, http.StatusNotFound, messagePage{
		Heading: "Page not found",
		Detail:  "The page you are looking for does not exist.",
		Class:   "not-found",
	})
}

type indexPage struct {
	Query     string
	Manuals   []manual.Summary
	ListError string
	Question  string
	Answer    string
	AskError  string
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Query: r.URL.Query().Get("q")}
	h.fillList(r.Context(), &page)
	h.render(w, http.StatusOK, "index", page)
}

func (h *Handler) handleAsk(w http.ResponseWriter, r *http.Request) {
	page := indexPage{Question: r.FormValue("question")}
	status := http.StatusOK
	switch {
	case page.Question == "":
		page.AskError = "Please enter a question."
		status = http.StatusBadRequest
	case h.asker == nil:
		page.AskError = "Questions are not available: no AI model is configured."
		status = http.StatusInternalServerError
	default:
		ans, err := h.asker.Ask(r.Context(), page.Question)
		switch {
		case errors.Is(err, qa.ErrEmptyQuestion):
			page.AskError = "Please enter a question."
			status = http.StatusBadRequest
		case errors.Is(err, qa.ErrNoProvider):
			page.AskError = "Questions are not available: no AI model is configured."
			status = http.StatusInternalServerError
		case err != nil:
			h.logger.ErrorContext(r.Context(), "answering question failed", "error", err)
			page.AskError = "Failed to get answer from AI model."
			status = http.StatusInternalServerError
		default:
			page.Answer = ans.Answer
		}
	}
	h.fillList(r.Context(), &page)
	h.render(w, status, "index", page)
}

func (h *Handler) fillList(ctx context.Context, page *indexPage) {
	list, err := h.library.Search(ctx, page.Query)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing manuals failed", "error", err)
		page.ListError = "Could not load the manual list."
		return
	}
	page.Manuals = list
}

type viewerPage struct {
	Snap           viewer.Snapshot
	TabURLs        []string
	PrevURL        string
	NextURL        string
	AudioToggleURL string
	AutoplaySrc    string
	TextHTML       template.HTML
}

func (h *Handler) handleManual(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.renderNotFoundManual(w)
		return
	}
	q := r.URL.Query()
	tab, step := startPosition(q)
	audioOn := q.Get("audio") != "off"

	v := viewer.New(viewer.Options{
		Resolver:     h.resolver,
		Element:      silentElement{},
		AudioEnabled: audioOn,
		Logger:       h.logger,
	})
	defer v.Close()

	ctx := r.Context()
	t := v.BeginAt(id, tab, step)
	m, err := h.library.Load(ctx, id)
	v.Complete(ctx, t, m, err)

	switch v.Phase() {
	case viewer.NotFound:
		h.renderNotFoundManual(w)
		return
	case viewer.Failed:
		h.logger.ErrorContext(ctx, "loading manual failed", "id", id, "error", v.Err())
		h.renderMessage(w, http.StatusInternalServerError, messagePage{
			Heading: "Something went wrong",
			Detail:  "The manual could not be loaded. Please try again later.",
			Class:   "failed",
		})
		return
	}

	if h.prober != nil {
		v.CheckImage(ctx, h.prober)
	}

	h.render(w, http.StatusOK, "viewer", h.viewerPage(v.Snapshot(), r.URL.Path))
}

// startPosition reads ?tab= and ?step=. The tab is -1 when absent or
// malformed, which keeps the manual's initial tab.
func startPosition(q url.Values) (tab, step int) {
	tab = -1
	if q.Has("tab") {
		if n, err := strconv.Atoi(q.Get("tab")); err == nil {
			tab = n
		}
	}
	step, _ = strconv.Atoi(q.Get("step"))
	return tab, max(step, 0)
}

func (h *Handler) renderNotFoundManual(w http.ResponseWriter) {
	h.renderMessage(w, http.StatusNotFound, messagePage{
		Heading: "Manual not found",
		Detail:  "The requested manual does not exist.",
		Class:   "not-found",
	})
}

// viewerPage derives links and rendered text for s. Links keep the current
// audio setting.
func (h *Handler) viewerPage(s viewer.Snapshot, path string) viewerPage {
	audio := "on"
	if !s.Audio.Enabled {
		audio = "off"
	}
	link := func(tab, step int, audio string) string {
		v := url.Values{}
		v.Set("tab", strconv.Itoa(tab))
		v.Set("step", strconv.Itoa(step))
		v.Set("audio", audio)
		return path + "?" + v.Encode()
	}

	p := viewerPage{Snap: s}
	for _, t := range s.Tabs {
		p.TabURLs = append(p.TabURLs, link(t.Index, 0, audio))
	}
	if !s.IsFirst {
		p.PrevURL = link(s.Tab, s.Step-1, audio)
	}
	if !s.IsLast {
		p.NextURL = link(s.Tab, s.Step+1, audio)
	}
	toggled := "off"
	if audio == "off" {
		toggled = "on"
	}
	p.AudioToggleURL = link(s.Tab, s.Step, toggled)
	if s.Audio.Enabled && s.Audio.Src != "" {
		p.AutoplaySrc = s.Audio.Src
	}
	if s.Type == manual.TypeText {
		p.TextHTML = h.md.Markdown(s.Text)
	}
	return p
}

type messagePage struct {
	Heading string
	Detail  string
	Class   string
}

func (h *Handler) renderMessage(w http.ResponseWriter, status int, page messagePage) {
	h.render(w, status, "message", page)
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("rendering page failed", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderFragment renders the viewer body for a live session.
func (h *Handler) renderFragment(s viewer.Snapshot, path string) (string, error) {
	var buf bytes.Buffer
	if err := h.pages["viewer"].ExecuteTemplate(&buf, "viewer-body", h.viewerPage(s, path)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// silentElement accepts every command without producing sound. Rendered
// pages leave playback to the browser's audio element.
type silentElement struct{}

func (silentElement) SetSource(string) error { return nil }

func (silentElement) Play(context.Context) error { return nil }

func (silentElement) Pause() {}

func (silentElement) ClearSource() {}

// renderContent renders a message body without the page layout.
func (h *Handler) renderContent(page messagePage) (string, error) {
	var buf bytes.Buffer
	if err := h.pages["message"].ExecuteTemplate(&buf, "content", page); err != nil {
		return "", err
	}
	return buf.String(), nil
}
