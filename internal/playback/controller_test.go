package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ziadkadry99/manualview/internal/assets"
)

// fakeElement records every call the controller makes.
type fakeElement struct {
	src       string
	playing   bool
	calls     []string
	played    []string
	playErr   error
	sourceErr error
}

func (f *fakeElement) SetSource(src string) error {
	f.calls = append(f.calls, "set:"+src)
	if f.sourceErr != nil {
		return f.sourceErr
	}
	f.src = src
	return nil
}

func (f *fakeElement) Play(ctx context.Context) error {
	f.calls = append(f.calls, "play:"+f.src)
	if f.playErr != nil {
		return f.playErr
	}
	f.played = append(f.played, f.src)
	f.playing = true
	return nil
}

func (f *fakeElement) Pause() {
	f.calls = append(f.calls, "pause")
	f.playing = false
}

func (f *fakeElement) ClearSource() {
	f.calls = append(f.calls, "clear")
	f.src = ""
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func target(id string) Target {
	return Target{Asset: assets.ID(id), Src: "/manual_audio/" + id + ".wav"}
}

func TestSyncLoadsAndPlays(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	req := c.Sync(ctx, target("a"), true)
	if !req.Pending() {
		t.Fatal("expected a pending request for a new asset")
	}
	if c.Status().State != Loading {
		t.Errorf("state = %s, want loading", c.Status().State)
	}
	c.Ready(ctx, req.Gen)
	if c.Status().State != Playing {
		t.Errorf("state = %s, want playing", c.Status().State)
	}
	if len(el.played) != 1 || el.played[0] != "/manual_audio/a.wav" {
		t.Errorf("played = %v", el.played)
	}
}

func TestSyncSameAssetDoesNotRestart(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	calls := len(el.calls)
	if req := c.Sync(ctx, target("a"), true); req.Pending() {
		t.Error("same asset should not produce a new request")
	}
	if len(el.calls) != calls {
		t.Errorf("element touched for unchanged asset: %v", el.calls[calls:])
	}
}

func TestRapidTransitionsPlayOnlyFinalAsset(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	var reqs []Request
	for _, id := range []string{"s1", "s2", "s3", "s4"} {
		reqs = append(reqs, c.Sync(ctx, target(id), true))
	}
	// Loads complete out of order, after navigation already moved on.
	for i := len(reqs) - 1; i >= 0; i-- {
		c.Ready(ctx, reqs[i].Gen)
	}
	for _, r := range reqs[:3] {
		c.Ready(ctx, r.Gen)
	}

	if len(el.played) != 1 || el.played[0] != "/manual_audio/s4.wav" {
		t.Errorf("played = %v, want only s4", el.played)
	}
	if c.Status().Asset != "s4" {
		t.Errorf("current asset = %q, want s4", c.Status().Asset)
	}
}

func TestNewSourceStopsPreviousFirst(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	el.calls = nil
	c.Apply(ctx, target("b"), true)

	want := []string{"pause", "clear", "set:/manual_audio/b.wav", "play:/manual_audio/b.wav"}
	if len(el.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", el.calls, want)
	}
	for i := range want {
		if el.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, el.calls[i], want[i])
		}
	}
}

func TestDisableWhilePlayingStopsImmediately(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	if !el.playing {
		t.Fatal("precondition: element should be playing")
	}
	c.SetEnabled(ctx, false, target("a"), true)

	if el.playing {
		t.Error("element still playing after disable")
	}
	if el.src != "" {
		t.Errorf("source not cleared: %q", el.src)
	}
	st := c.Status()
	if st.State != Idle || st.Asset != assets.None || st.Enabled {
		t.Errorf("status after disable = %+v", st)
	}
}

func TestEnableRestartsCurrentTarget(t *testing.T) {
	el := &fakeElement{}
	c := New(el, false, quietLogger())
	ctx := context.Background()

	if req := c.Sync(ctx, target("a"), true); req.Pending() {
		t.Fatal("disabled controller must not load")
	}
	req := c.SetEnabled(ctx, true, target("a"), true)
	if !req.Pending() {
		t.Fatal("enabling should load the current target")
	}
	c.Ready(ctx, req.Gen)
	if c.Status().State != Playing {
		t.Errorf("state = %s, want playing", c.Status().State)
	}
}

func TestAutoplayRejectionIsAbsorbed(t *testing.T) {
	el := &fakeElement{playErr: ErrAutoplayRejected}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	if c.Status().State != Suspended {
		t.Errorf("state = %s, want suspended", c.Status().State)
	}

	// A later transition still works normally.
	el.playErr = nil
	c.Apply(ctx, target("b"), true)
	if c.Status().State != Playing {
		t.Errorf("state after next transition = %s, want playing", c.Status().State)
	}
}

func TestResumeAfterRejection(t *testing.T) {
	el := &fakeElement{playErr: ErrAutoplayRejected}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	el.playErr = nil
	c.Resume(ctx)
	if c.Status().State != Playing {
		t.Errorf("state after resume = %s, want playing", c.Status().State)
	}
}

func TestNotReadyOrNoAssetStops(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	c.Apply(ctx, target("a"), true)
	c.Sync(ctx, target("a"), false)
	if el.playing || c.Status().State != Idle {
		t.Error("upstream not ready should stop playback")
	}

	c.Apply(ctx, target("b"), true)
	c.Sync(ctx, Target{}, true)
	if el.playing || c.Status().Asset != assets.None {
		t.Error("view without audio should stop playback")
	}
}

func TestAsyncCallbacksIgnoreStaleGenerations(t *testing.T) {
	el := &fakeElement{}
	c := New(el, true, quietLogger())
	ctx := context.Background()

	first := c.Sync(ctx, target("a"), true)
	c.Ready(ctx, first.Gen)
	second := c.Sync(ctx, target("b"), true)
	c.Ready(ctx, second.Gen)

	c.Rejected(first.Gen, nil)
	c.Ended(first.Gen)
	c.Failed(first.Gen, errors.New("404"))
	if c.Status().State != Playing {
		t.Errorf("stale callbacks changed state to %s", c.Status().State)
	}

	c.Ended(second.Gen)
	if c.Status().State != Idle || c.Status().Asset != "b" {
		t.Errorf("after end: %+v", c.Status())
	}
	if req := c.Sync(ctx, target("b"), true); req.Pending() {
		t.Error("ended clip should not replay for the same view")
	}
}

func TestSourceErrorSuspends(t *testing.T) {
	el := &fakeElement{sourceErr: errors.New("no such file")}
	c := New(el, true, quietLogger())
	if req := c.Sync(context.Background(), target("a"), true); req.Pending() {
		t.Error("failed source should not request a load")
	}
	if c.Status().State != Suspended {
		t.Errorf("state = %s, want suspended", c.Status().State)
	}
}
