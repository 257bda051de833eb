// Package navigation tracks the active tab and the active step within it.
package navigation

import (
	"errors"
	"fmt"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// ErrTabOutOfRange is returned by SelectTab for an index outside the manual.
var ErrTabOutOfRange = errors.New("tab index out of range")

// State is the navigation position. Step is only meaningful on steps tabs
// and is zero everywhere else.
type State struct {
	Tab  int
	Step int
}

// Navigator is the tab/step state machine for one loaded manual.
type Navigator struct {
	m     *manual.Manual
	state State
}

// New returns a navigator positioned on the first steps tab, or on the
// first tab when the manual has none.
func New(m *manual.Manual) *Navigator {
	n := &Navigator{m: m}
	if i := m.FirstStepsTab(); i >= 0 {
		n.state.Tab = i
	}
	return n
}

// State returns the current position.
func (n *Navigator) State() State { return n.state }

// TabCount returns the number of tabs in the manual.
func (n *Navigator) TabCount() int {
	if n.m == nil {
		return 0
	}
	return len(n.m.Tabs)
}

// ActiveTab returns the tab under the cursor.
func (n *Navigator) ActiveTab() (manual.Tab, bool) {
	return n.m.Tab(n.state.Tab)
}

// StepCount returns the number of steps of the active tab.
func (n *Navigator) StepCount() int {
	tab, ok := n.ActiveTab()
	if !ok {
		return 0
	}
	return tab.StepCount()
}

// SelectTab activates tab i and rewinds to its first step. Indices outside
// [0, TabCount) are rejected and leave the state untouched.
func (n *Navigator) SelectTab(i int) error {
	if i < 0 || i >= n.TabCount() {
		return fmt.Errorf("select tab %d of %d: %w", i, n.TabCount(), ErrTabOutOfRange)
	}
	n.state = State{Tab: i, Step: 0}
	return nil
}

// NextStep advances one step on a steps tab. It reports whether the state
// changed; at the last step, or on other tab types, it does nothing.
func (n *Navigator) NextStep() bool {
	tab, ok := n.ActiveTab()
	if !ok || tab.Type() != manual.TypeSteps {
		return false
	}
	if n.state.Step >= tab.StepCount()-1 {
		return false
	}
	n.state.Step++
	return true
}

// PrevStep goes back one step on a steps tab. It reports whether the state
// changed.
func (n *Navigator) PrevStep() bool {
	tab, ok := n.ActiveTab()
	if !ok || tab.Type() != manual.TypeSteps {
		return false
	}
	if n.state.Step <= 0 {
		return false
	}
	n.state.Step--
	return true
}

// IsFirstStep reports whether the cursor is on the first step.
func (n *Navigator) IsFirstStep() bool { return n.state.Step == 0 }

// IsLastStep reports whether the cursor is on the last step of a steps tab.
func (n *Navigator) IsLastStep() bool {
	c := n.StepCount()
	return c == 0 || n.state.Step == c-1
}
