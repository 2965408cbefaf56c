// Package view holds the dashboard view-mode state machine
package view

import (
	"strings"

	"churndash/internal/errors"
)

// Mode is the currently selected dashboard view
type Mode string

const (
	Unselected Mode = ""
	EDA        Mode = "eda"
	KPI        Mode = "kpi"
	Analytics  Mode = "analytics"
)

// Modes lists the selectable modes in menu order
var Modes = []Mode{EDA, KPI, Analytics}

// Label is the menu text for a mode
func (m Mode) Label() string {
	switch m {
	case EDA:
		return "EDA Dashboard"
	case KPI:
		return "KPIs Dashboard"
	case Analytics:
		return "Analytics Dashboard"
	}
	return "Select a dashboard"
}

// Valid reports whether m is one of the known modes, Unselected included
func (m Mode) Valid() bool {
	switch m {
	case Unselected, EDA, KPI, Analytics:
		return true
	}
	return false
}

func (m Mode) String() string {
	if m == Unselected {
		return "unselected"
	}
	return string(m)
}

// ParseMode accepts mode keys and menu labels, ignoring case
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unselected":
		return Unselected, nil
	case "eda", "eda dashboard":
		return EDA, nil
	case "kpi", "kpis", "kpis dashboard", "kpi dashboard":
		return KPI, nil
	case "analytics", "analytics dashboard":
		return Analytics, nil
	}
	return Unselected, errors.InvalidInput("unknown view " + s)
}

// Transition records one mode change
type Transition struct {
	From Mode
	To   Mode
}

// Selector tracks the selected mode. It starts Unselected, has no terminal
// state and treats reselecting the current mode as a no-op.
type Selector struct {
	current Mode
	history []Transition
}

// NewSelector returns a selector in the Unselected state
func NewSelector() *Selector {
	return &Selector{}
}

// Select moves to mode and reports whether a transition happened
func (s *Selector) Select(mode Mode) bool {
	if mode == s.current {
		return false
	}
	s.history = append(s.history, Transition{From: s.current, To: mode})
	s.current = mode
	return true
}

// Current returns the selected mode
func (s *Selector) Current() Mode {
	return s.current
}

// History returns the recorded transitions, oldest first
func (s *Selector) History() []Transition {
	return append([]Transition(nil), s.history...)
}
