package viewer

import (
	"github.com/ziadkadry99/manualview/internal/manual"
	"github.com/ziadkadry99/manualview/internal/playback"
)

// TabLabel is one entry of the tab bar.
type TabLabel struct {
	Index  int
	Key    string
	Title  string
	Type   manual.ContentType
	Active bool
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	Phase    Phase
	ManualID int
	Err      string

	Title           string
	Features        []string
	SpecialFeatures []string
	Tabs            []TabLabel

	Tab       int
	Step      int
	StepCount int
	Type      manual.ContentType

	// Items is set on list tabs.
	Items []manual.Item
	// Text is the step text on steps tabs and the body on text tabs.
	Text string
	// Warning is set on the first step only, Notes on the last step only.
	Warning string
	Notes   string

	ImagePath   string
	ImageFailed bool
	AudioPath   string
	Audio       playback.Status

	IsFirst bool
	IsLast  bool

	// View changes on every transition. Asynchronous reports about the
	// current image must carry it back to ImageFailed.
	View uint64
}

// HasImage reports whether the view shows an image rather than a placeholder.
func (s Snapshot) HasImage() bool {
	return s.ImagePath != "" && !s.ImageFailed
}

// ShowsPlaceholder reports whether the view needs an image placeholder.
func (s Snapshot) ShowsPlaceholder() bool {
	return s.Type == manual.TypeSteps && (s.ImagePath == "" || s.ImageFailed)
}

// Snapshot returns the current view.
func (v *Viewer) Snapshot() Snapshot {
	s := Snapshot{
		Phase:    v.phase,
		ManualID: v.wantID,
		View:     v.view,
		Audio:    v.player.Status(),
	}
	if v.err != nil {
		s.Err = v.err.Error()
	}
	if v.phase != Ready || v.manual == nil || v.nav == nil {
		return s
	}

	m := v.manual
	st := v.nav.State()
	s.Title = m.Title
	s.Features = m.Features
	s.SpecialFeatures = m.SpecialFeatures
	for i, t := range m.Tabs {
		s.Tabs = append(s.Tabs, TabLabel{
			Index:  i,
			Key:    t.Key,
			Title:  t.Title,
			Type:   t.Type(),
			Active: i == st.Tab,
		})
	}
	s.Tab, s.Step = st.Tab, st.Step
	s.StepCount = v.nav.StepCount()
	s.IsFirst = v.nav.IsFirstStep()
	s.IsLast = v.nav.IsLastStep()

	tab, ok := v.nav.ActiveTab()
	if !ok {
		return s
	}
	s.Type = tab.Type()
	switch c := tab.Content.(type) {
	case manual.ListContent:
		s.Items = c.Items
	case manual.StepsContent:
		if st.Step < len(c.Steps) {
			s.Text = c.Steps[st.Step].Text
		}
		if s.IsFirst {
			s.Warning = c.Warning
		}
		if s.IsLast {
			s.Notes = c.Notes
		}
	case manual.TextContent:
		s.Text = c.Text
	}

	view := v.assetView()
	s.ImagePath = v.resolver.ImagePath(view.Image)
	s.AudioPath = v.resolver.AudioPath(view.Audio)
	s.ImageFailed = v.imageFailed
	return s
}
