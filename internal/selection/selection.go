// Package selection holds the two-slot country comparison state.
//
// State values are immutable: every transition returns a new State.
package selection

import (
	"strings"
	"time"
)

// Slot is one comparison position.
type Slot struct {
	ISO3       string    `json:"iso3,omitempty"`
	AssignedAt time.Time `json:"assigned_at,omitzero"`
}

// Empty reports whether the slot has no occupant.
func (s Slot) Empty() bool { return s.ISO3 == "" }

// State is the pair of selected countries.
type State struct {
	A Slot `json:"a"`
	B Slot `json:"b"`
}

// Clear returns the initial, empty state.
func Clear() State { return State{} }

// Select places iso3 into a slot. An empty A is filled first, then an empty B.
// When both slots are occupied the one assigned earlier is replaced; on equal
// timestamps A is replaced. Selecting an empty code or one already selected
// returns s unchanged.
func Select(s State, iso3 string, now time.Time) State {
	code := strings.ToUpper(strings.TrimSpace(iso3))
	if code == "" || s.Contains(code) {
		return s
	}
	slot := Slot{ISO3: code, AssignedAt: now}

	switch {
	case s.A.Empty():
		s.A = slot
	case s.B.Empty():
		s.B = slot
	case s.B.AssignedAt.Before(s.A.AssignedAt):
		s.B = slot
	default:
		s.A = slot
	}
	return s
}

// Swap exchanges the occupants of A and B. Assignment times stay with the
// slot, so eviction order after a swap follows slot position.
func Swap(s State) State {
	s.A.ISO3, s.B.ISO3 = s.B.ISO3, s.A.ISO3
	return s
}

// Contains reports whether iso3 occupies either slot.
func (s State) Contains(iso3 string) bool {
	code := strings.ToUpper(strings.TrimSpace(iso3))
	return code != "" && (s.A.ISO3 == code || s.B.ISO3 == code)
}

// Full reports whether both slots are occupied.
func (s State) Full() bool { return !s.A.Empty() && !s.B.Empty() }

// Codes returns the occupants of A and B, "" for empty slots.
func (s State) Codes() (string, string) { return s.A.ISO3, s.B.ISO3 }
