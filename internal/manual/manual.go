// Package manual holds the canonical, transport-independent model of an
// installation manual and the codec for its JSON wire format.
package manual

// ContentType identifies which variant a tab's content is.
type ContentType string

const (
	TypeList  ContentType = "list"
	TypeSteps ContentType = "steps"
	TypeText  ContentType = "text"
)

// Valid reports whether t is one of the known content types.
func (t ContentType) Valid() bool {
	switch t {
	case TypeList, TypeSteps, TypeText:
		return true
	}
	return false
}

// Manual is a loaded manual. It is treated as immutable once loaded.
type Manual struct {
	ID              int
	Title           string
	SourcePath      string
	Language        string
	Features        []string
	SpecialFeatures []string
	Tabs            []Tab
}

// Tab is one top-level section of a manual.
type Tab struct {
	Key     string // stable identifier used for asset filenames
	Title   string
	Order   int
	Content Content
}

// Type returns the content type of the tab's payload.
func (t Tab) Type() ContentType {
	if t.Content == nil {
		return ""
	}
	return t.Content.Type()
}

// Content is the payload of a tab. The set of implementations is closed:
// ListContent, StepsContent and TextContent.
type Content interface {
	Type() ContentType
	isContent()
}

// Item is one entry of a list tab.
type Item struct {
	ID   string
	Text string
}

// Step is one instruction of a steps tab.
type Step struct {
	ID   string
	Text string
}

// ListContent is an ordered list of items.
type ListContent struct {
	Items []Item
}

// StepsContent is an ordered sequence of steps with an optional warning
// (shown on the first step) and notes (shown on the last step).
type StepsContent struct {
	Warning string
	Notes   string
	Steps   []Step
}

// TextContent is a single block of text.
type TextContent struct {
	Text string
}

func (ListContent) Type() ContentType  { return TypeList }
func (StepsContent) Type() ContentType { return TypeSteps }
func (TextContent) Type() ContentType  { return TypeText }

func (ListContent) isContent()  {}
func (StepsContent) isContent() {}
func (TextContent) isContent()  {}

// StepCount returns the number of navigable steps in the tab: the length of
// the steps sequence for steps tabs and zero for every other type.
func (t Tab) StepCount() int {
	switch c := t.Content.(type) {
	case StepsContent:
		return len(c.Steps)
	case ListContent, TextContent:
		return 0
	default:
		return 0
	}
}

// FirstStepsTab returns the index of the first steps tab, or -1.
func (m *Manual) FirstStepsTab() int {
	for i, t := range m.Tabs {
		if t.Type() == TypeSteps {
			return i
		}
	}
	return -1
}

// Tab returns the tab at index i.
func (m *Manual) Tab(i int) (Tab, bool) {
	if m == nil || i < 0 || i >= len(m.Tabs) {
		return Tab{}, false
	}
	return m.Tabs[i], true
}
