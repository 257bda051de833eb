// Package viewer composes manual loading, navigation, asset resolution and
// audio playback into the state behind one viewer screen.
package viewer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ziadkadry99/manualview/internal/assets"
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/navigation"
	"github.com/ziadkadry99/manualview/internal/playback"
)

// Phase is the load phase of the viewer.
type Phase int

const (
	Empty Phase = iota
	Loading
	Ready
	NotFound
	Failed
)

func (p Phase) String() string {
	switch p {
	case Empty:
		return "empty"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Ticket identifies one load request. Results are applied only for the
// ticket issued last.
type Ticket struct {
	ID  int
	seq uint64
}

// Options configures a Viewer.
type Options struct {
	Resolver     assets.Resolver
	Element      playback.Element
	AudioEnabled bool
	Logger       *slog.Logger
	// OnAudioRequest is called when a new clip must be loaded. The host
	// reports completion through AudioReady. When nil, clips are treated as
	// loaded immediately.
	OnAudioRequest func(playback.Request)
}

// Viewer is the state of one viewer instance. It is not safe for
// concurrent use; hosts drive it from a single event loop.
type Viewer struct {
	resolver assets.Resolver
	player   *playback.Controller
	logger   *slog.Logger
	onAudio  func(playback.Request)

	phase  Phase
	err    error
	wantID int
	seq    uint64

	manual      *manual.Manual
	nav         *navigation.Navigator
	view        uint64
	imageFailed bool
	start       *navigation.State
}

// New returns an empty viewer.
func New(opts Options) *Viewer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		resolver: opts.Resolver,
		player:   playback.New(opts.Element, opts.AudioEnabled, logger),
		logger:   logger,
		onAudio:  opts.OnAudioRequest,
	}
}

// Begin starts loading manual id. The previous manual is dropped at once so
// that stale content is never shown while the load is in flight.
func (v *Viewer) Begin(id int) Ticket {
	v.seq++
	v.wantID = id
	v.phase = Loading
	v.err = nil
	v.manual = nil
	v.nav = nil
	v.player.Stop()
	v.view++
	v.imageFailed = false
	v.start = nil
	return Ticket{ID: id, seq: v.seq}
}

// BeginAt is Begin with a starting position applied when the manual
// arrives. A negative tab keeps the initial tab. The position is reached in
// a single transition, so no intermediate step requests audio. A tab that
// does not exist is ignored and steps past the end are clamped.
func (v *Viewer) BeginAt(id, tab, step int) Ticket {
	t := v.Begin(id)
	v.start = &navigation.State{Tab: tab, Step: step}
	return t
}

// Complete applies the result of the load identified by t. Results of
// superseded loads are discarded and Complete reports false.
func (v *Viewer) Complete(ctx context.Context, t Ticket, m *manual.Manual, err error) bool {
	if t.ID != v.wantID || t.seq != v.seq || v.phase != Loading {
		v.logger.Debug("discarding stale manual load", "id", t.ID, "want", v.wantID)
		return false
	}
	if err == nil && m == nil {
		err = manual.ErrNotFound
	}
	if err != nil {
		v.err = err
		if errors.Is(err, manual.ErrNotFound) {
			v.phase = NotFound
		} else {
			v.phase = Failed
		}
		v.player.Stop()
		return true
	}
	v.install(ctx, m)
	return true
}

// Replace swaps in a new manual, for example after a static document was
// edited on disk. Navigation and playback start over.
func (v *Viewer) Replace(ctx context.Context, m *manual.Manual) {
	v.seq++
	v.wantID = m.ID
	v.err = nil
	v.start = nil
	v.install(ctx, m)
}

func (v *Viewer) install(ctx context.Context, m *manual.Manual) {
	v.manual = m
	v.nav = navigation.New(m)
	v.phase = Ready
	v.player.Stop()
	if start := v.start; start != nil {
		v.start = nil
		v.position(*start)
	}
	v.transition(ctx)
}

// position moves the navigator without running transitions.
func (v *Viewer) position(at navigation.State) {
	if at.Tab >= 0 {
		if err := v.nav.SelectTab(at.Tab); err != nil {
			v.logger.Debug("ignoring start tab", "tab", at.Tab, "error", err)
		}
	}
	for range at.Step {
		if !v.nav.NextStep() {
			break
		}
	}
}

// Phase returns the load phase.
func (v *Viewer) Phase() Phase { return v.phase }

// Err returns the load error for NotFound and Failed phases.
func (v *Viewer) Err() error { return v.err }

// Manual returns the loaded manual, or nil.
func (v *Viewer) Manual() *manual.Manual { return v.manual }

// WantID returns the id of the manual requested last.
func (v *Viewer) WantID() int { return v.wantID }

// State returns the navigation position.
func (v *Viewer) State() navigation.State {
	if v.nav == nil {
		return navigation.State{}
	}
	return v.nav.State()
}

// SelectTab activates tab i.
func (v *Viewer) SelectTab(ctx context.Context, i int) error {
	if v.nav == nil {
		return navigation.ErrTabOutOfRange
	}
	if err := v.nav.SelectTab(i); err != nil {
		return err
	}
	v.transition(ctx)
	return nil
}

// NextStep advances one step; it reports whether the position changed.
func (v *Viewer) NextStep(ctx context.Context) bool {
	if v.nav == nil || !v.nav.NextStep() {
		return false
	}
	v.transition(ctx)
	return true
}

// PrevStep goes back one step; it reports whether the position changed.
func (v *Viewer) PrevStep(ctx context.Context) bool {
	if v.nav == nil || !v.nav.PrevStep() {
		return false
	}
	v.transition(ctx)
	return true
}

// HandleKey maps the left and right arrow keys to step movement while a
// steps tab is active.
func (v *Viewer) HandleKey(ctx context.Context, key string) bool {
	if v.nav == nil {
		return false
	}
	tab, ok := v.nav.ActiveTab()
	if !ok || tab.Type() != manual.TypeSteps {
		return false
	}
	switch key {
	case "left", "ArrowLeft":
		return v.PrevStep(ctx)
	case "right", "ArrowRight":
		return v.NextStep(ctx)
	}
	return false
}

// ToggleAudio switches narration on or off.
func (v *Viewer) ToggleAudio(ctx context.Context) {
	v.SetAudio(ctx, !v.player.Enabled())
}

// SetAudio switches narration to the given state.
func (v *Viewer) SetAudio(ctx context.Context, enabled bool) {
	req := v.player.SetEnabled(ctx, enabled, v.audioTarget(), v.phase == Ready)
	v.dispatch(ctx, req)
}

// AudioEnabled reports whether narration is on.
func (v *Viewer) AudioEnabled() bool { return v.player.Enabled() }

// ImageFailed marks the image of view as unavailable. Reports for a view
// that is no longer current are ignored.
func (v *Viewer) ImageFailed(view uint64) bool {
	if view != v.view || v.phase != Ready {
		return false
	}
	v.imageFailed = true
	return true
}

// CheckImage probes the current image and marks it failed when missing.
func (v *Viewer) CheckImage(ctx context.Context, p assets.Prober) {
	path := v.resolver.ImagePath(v.assetView().Image)
	if path == "" {
		return
	}
	if err := p.Probe(ctx, path); err != nil {
		v.logger.Debug("image unavailable", "path", path, "error", err)
		v.ImageFailed(v.view)
	}
}

// AudioReady, AudioRejected, AudioFailed and AudioEnded forward element
// callbacks for generation gen to the playback controller.
func (v *Viewer) AudioReady(ctx context.Context, gen uint64) { v.player.Ready(ctx, gen) }

func (v *Viewer) AudioRejected(gen uint64, err error) { v.player.Rejected(gen, err) }

func (v *Viewer) AudioFailed(gen uint64, err error) { v.player.Failed(gen, err) }

func (v *Viewer) AudioEnded(gen uint64) { v.player.Ended(gen) }

// ResumeAudio retries narration that was refused by the host.
func (v *Viewer) ResumeAudio(ctx context.Context) { v.player.Resume(ctx) }

// Close stops playback and releases the audio element.
func (v *Viewer) Close() {
	v.player.Stop()
}

// transition runs after every change of position: the image failure flag
// is scoped to one view and audio follows the new view.
func (v *Viewer) transition(ctx context.Context) {
	v.view++
	v.imageFailed = false
	req := v.player.Sync(ctx, v.audioTarget(), v.phase == Ready)
	v.dispatch(ctx, req)
}

func (v *Viewer) dispatch(ctx context.Context, req playback.Request) {
	if !req.Pending() {
		return
	}
	if v.onAudio != nil {
		v.onAudio(req)
		return
	}
	v.player.Ready(ctx, req.Gen)
}

func (v *Viewer) assetView() assets.View {
	if v.nav == nil {
		return assets.View{}
	}
	tab, ok := v.nav.ActiveTab()
	if !ok {
		return assets.View{}
	}
	return v.resolver.Resolve(tab, v.nav.State().Step)
}

func (v *Viewer) audioTarget() playback.Target {
	id := v.assetView().Audio
	return playback.Target{Asset: id, Src: v.resolver.AudioPath(id)}
}
