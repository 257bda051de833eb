// Package playback keeps a single audio element in step with the viewer's
// current position.
package playback

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ziadkadry99/manualview/internal/assets"
)

// ErrAutoplayRejected is returned by an Element when the host refuses to
// start playback without a user gesture. It is expected and never surfaced.
var ErrAutoplayRejected = errors.New("autoplay rejected")

// State is the controller's playback state.
type State int

const (
	Idle State = iota
	Loading
	Playing
	Suspended
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Playing:
		return "playing"
	case Suspended:
		return "suspended"
	}
	return "unknown"
}

// Element is the audio output. The controller is its only user.
type Element interface {
	SetSource(src string) error
	// Play starts playback of the current source. It returns once playback
	// has started or was refused; it does not wait for the clip to end.
	Play(ctx context.Context) error
	Pause()
	ClearSource()
}

// Target is the clip the current view wants.
type Target struct {
	Asset assets.ID
	Src   string
}

// Request is returned when a new source was set. The host loads it and
// reports back with Ready(Gen). A zero Gen means nothing to load.
type Request struct {
	Gen uint64
	Src string
}

// Pending reports whether the host has a load to perform.
func (r Request) Pending() bool { return r.Gen != 0 }

// Status is a read-only view of the controller.
type Status struct {
	Enabled bool
	State   State
	Asset   assets.ID
	Src     string
}

// Controller owns an Element and drives it from navigation transitions.
// Only the most recent request can ever reach Play: every stop or new
// source bumps the generation and older callbacks are dropped.
type Controller struct {
	el      Element
	logger  *slog.Logger
	enabled bool
	state   State
	asset   assets.ID
	src     string
	gen     uint64
	cancel  context.CancelFunc
}

// New returns a controller for el.
func New(el Element, enabled bool, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{el: el, enabled: enabled, logger: logger}
}

// Status returns the current state.
func (c *Controller) Status() Status {
	return Status{Enabled: c.enabled, State: c.state, Asset: c.asset, Src: c.src}
}

// Enabled reports whether audio is switched on.
func (c *Controller) Enabled() bool { return c.enabled }

// Sync re-evaluates playback after a transition. ready is false while no
// manual is loaded or an upstream error is showing.
func (c *Controller) Sync(ctx context.Context, target Target, ready bool) Request {
	if !c.enabled || !ready || target.Asset == assets.None {
		c.Stop()
		return Request{}
	}
	if target.Asset == c.asset {
		return Request{}
	}

	c.Stop()
	c.gen++
	c.asset, c.src = target.Asset, target.Src
	if err := c.el.SetSource(target.Src); err != nil {
		c.logger.Warn("audio source unavailable", "src", target.Src, "error", err)
		c.state = Suspended
		return Request{}
	}
	c.state = Loading
	return Request{Gen: c.gen, Src: target.Src}
}

// Apply is Sync followed by Ready, for elements that load synchronously.
func (c *Controller) Apply(ctx context.Context, target Target, ready bool) {
	if req := c.Sync(ctx, target, ready); req.Pending() {
		c.Ready(ctx, req.Gen)
	}
}

// SetEnabled toggles audio. Disabling pauses and clears the source before
// returning; enabling re-evaluates the current target.
func (c *Controller) SetEnabled(ctx context.Context, enabled bool, target Target, ready bool) Request {
	c.enabled = enabled
	if !enabled {
		c.Stop()
		return Request{}
	}
	return c.Sync(ctx, target, ready)
}

// Ready reports that the source of generation gen has loaded.
func (c *Controller) Ready(ctx context.Context, gen uint64) {
	if gen != c.gen || c.state != Loading {
		return
	}
	c.play(ctx)
}

// Resume retries a suspended clip, typically after a user gesture.
func (c *Controller) Resume(ctx context.Context) {
	if c.state != Suspended || c.asset == assets.None || !c.enabled {
		return
	}
	c.play(ctx)
}

func (c *Controller) play(ctx context.Context) {
	playCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	if err := c.el.Play(playCtx); err != nil {
		c.absorb(err)
		return
	}
	c.state = Playing
}

// Rejected reports an asynchronous refusal of generation gen.
func (c *Controller) Rejected(gen uint64, err error) {
	if gen != c.gen || (c.state != Playing && c.state != Loading) {
		return
	}
	if err == nil {
		err = ErrAutoplayRejected
	}
	c.absorb(err)
}

// Failed reports that the source of generation gen could not be loaded.
func (c *Controller) Failed(gen uint64, err error) {
	if gen != c.gen || c.state == Idle {
		return
	}
	c.logger.Debug("audio asset failed to load", "src", c.src, "error", err)
	c.state = Suspended
}

// Ended reports that generation gen played to completion. The asset stays
// current so returning to the same view does not replay it.
func (c *Controller) Ended(gen uint64) {
	if gen != c.gen || c.state != Playing {
		return
	}
	c.state = Idle
}

// Stop pauses the element and clears its source.
func (c *Controller) Stop() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.state != Idle || c.asset != assets.None {
		c.el.Pause()
		c.el.ClearSource()
	}
	c.state = Idle
	c.asset, c.src = assets.None, ""
}

// Generation returns the current request generation.
func (c *Controller) Generation() uint64 { return c.gen }

func (c *Controller) absorb(err error) {
	if errors.Is(err, ErrAutoplayRejected) {
		c.logger.Debug("audio autoplay rejected", "src", c.src)
	} else {
		c.logger.Warn("audio playback failed", "src", c.src, "error", err)
	}
	c.state = Suspended
}
