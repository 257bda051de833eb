package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/playback"
	"github.com/ziadkadry99/manualview/internal/viewer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// errClientAudio is reported when the browser could not load a clip.
var errClientAudio = errors.New("browser could not load audio")

// clientMessage is an event sent by the browser.
type clientMessage struct {
	Type string `json:"type"`
	Tab  int    `json:"tab"`
	Key  string `json:"key"`
	View uint64 `json:"view"`
	Gen  uint64 `json:"gen"`
}

// serverMessage is either a rendered snapshot, an audio command or an
// error.
type serverMessage struct {
	Type  string `json:"type"`
	Phase string `json:"phase,omitempty"`
	View  uint64 `json:"view,omitempty"`
	Title string `json:"title,omitempty"`
	HTML  string `json:"html,omitempty"`
	Op    string `json:"op,omitempty"`
	Gen   uint64 `json:"gen,omitempty"`
	Src   string `json:"src,omitempty"`
	Error string `json:"error,omitempty"`
}

type loadResult struct {
	ticket viewer.Ticket
	m      *manual.Manual
	err    error
}

// session drives one viewer for one websocket connection. All viewer calls
// and all writes happen on the run loop.
type session struct {
	h       *Handler
	conn    *websocket.Conn
	logger  *slog.Logger
	path    string
	v       *viewer.Viewer
	gen     uint64
	checked uint64
	loads   chan loadResult
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.renderNotFoundManual(w)
		return
	}
	q := r.URL.Query()
	tab, step := startPosition(q)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The request context ends with the handler; the session lives until
	// the socket closes.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &session{
		h:      h,
		conn:   conn,
		logger: h.logger.With("manual", id, "remote", r.RemoteAddr),
		path:   "/manuals/" + strconv.Itoa(id),
		loads:  make(chan loadResult),
	}
	s.v = viewer.New(viewer.Options{
		Resolver:       h.resolver,
		Element:        &remoteElement{s: s},
		AudioEnabled:   q.Get("audio") != "off",
		Logger:         s.logger,
		OnAudioRequest: s.requestAudio,
	})
	defer s.v.Close()

	s.run(ctx, id, tab, step)
}

func (s *session) run(ctx context.Context, id, tab, step int) {
	incoming := make(chan clientMessage)
	go func() {
		defer close(incoming)
		for {
			var m clientMessage
			if err := s.conn.ReadJSON(&m); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Debug("websocket read", "error", err)
				}
				return
			}
			select {
			case incoming <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	s.load(ctx, s.v.BeginAt(id, tab, step))
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-s.loads:
			if !s.v.Complete(ctx, res.ticket, res.m, res.err) {
				continue
			}
			if s.v.Phase() == viewer.Failed {
				s.logger.Error("loading manual failed", "error", s.v.Err())
			}
		case m, ok := <-incoming:
			if !ok {
				return
			}
			s.handle(ctx, m)
		}
		if err := s.sendSnapshot(ctx); err != nil {
			s.logger.Debug("websocket write", "error", err)
			return
		}
	}
}

// load fetches the manual of ticket t. Only the latest load is applied.
func (s *session) load(ctx context.Context, t viewer.Ticket) {
	s.sendSnapshot(ctx)
	go func() {
		m, err := s.h.library.Load(ctx, t.ID)
		select {
		case s.loads <- loadResult{ticket: t, m: m, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *session) handle(ctx context.Context, m clientMessage) {
	v := s.v
	switch m.Type {
	case "select_tab":
		if err := v.SelectTab(ctx, m.Tab); err != nil {
			s.send(serverMessage{Type: "error", Error: err.Error()})
		}
	case "next":
		v.NextStep(ctx)
	case "prev":
		v.PrevStep(ctx)
	case "key":
		v.HandleKey(ctx, m.Key)
	case "toggle_audio":
		v.ToggleAudio(ctx)
	case "resume_audio":
		v.ResumeAudio(ctx)
	case "image_error":
		v.ImageFailed(m.View)
	case "audio_loaded":
		v.AudioReady(ctx, m.Gen)
	case "audio_rejected":
		v.AudioRejected(m.Gen, playback.ErrAutoplayRejected)
	case "audio_failed":
		v.AudioFailed(m.Gen, errClientAudio)
	case "audio_ended":
		v.AudioEnded(m.Gen)
	case "reload":
		s.load(ctx, v.Begin(v.WantID()))
	default:
		s.send(serverMessage{Type: "error", Error: "unknown message type: " + m.Type})
	}
}

func (s *session) sendSnapshot(ctx context.Context) error {
	if s.h.prober != nil && s.v.Phase() == viewer.Ready {
		if view := s.v.Snapshot().View; view != s.checked {
			s.checked = view
			s.v.CheckImage(ctx, s.h.prober)
		}
	}

	snap := s.v.Snapshot()
	msg := serverMessage{Type: "snapshot", Phase: snap.Phase.String(), View: snap.View, Title: snap.Title}
	var err error
	switch snap.Phase {
	case viewer.Ready:
		msg.HTML, err = s.h.renderFragment(snap, s.path)
	case viewer.NotFound:
		msg.HTML, err = s.h.renderContent(messagePage{Heading: "Manual not found", Detail: "The requested manual does not exist.", Class: "not-found"})
	case viewer.Failed:
		msg.HTML, err = s.h.renderContent(messagePage{Heading: "Something went wrong", Detail: "The manual could not be loaded. Please try again later.", Class: "failed"})
	default:
		msg.HTML, err = s.h.renderContent(messagePage{Heading: "Loading", Class: "loading"})
	}
	if err != nil {
		s.logger.Error("rendering snapshot failed", "error", err)
		return s.send(serverMessage{Type: "error", Error: "rendering failed"})
	}
	return s.send(msg)
}

func (s *session) send(m serverMessage) error {
	return s.conn.WriteJSON(m)
}

func (s *session) requestAudio(req playback.Request) {
	s.gen = req.Gen
	s.send(serverMessage{Type: "audio", Op: "load", Gen: req.Gen, Src: req.Src})
}

// remoteElement forwards playback commands to the browser's audio element.
// Loads are announced through requestAudio, which knows the generation.
type remoteElement struct {
	s   *session
	src string
}

func (e *remoteElement) SetSource(src string) error {
	e.src = src
	return nil
}

func (e *remoteElement) Play(context.Context) error {
	return e.s.send(serverMessage{Type: "audio", Op: "play", Gen: e.s.gen, Src: e.src})
}

func (e *remoteElement) Pause() {
	e.s.send(serverMessage{Type: "audio", Op: "stop"})
}

func (e *remoteElement) ClearSource() {
	e.src = ""
}
