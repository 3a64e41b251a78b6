package validation

import "fmt"

// State is a step of the per-release state machine:
//
//	CheckedOut -> Validating -> Valid -> Extracting -> Extracted
//	                         \-> Invalid
type State int

const (
	CheckedOut State = iota
	Validating
	Valid
	Invalid
	Extracting
	Extracted
)

var stateNames = [...]string{
	CheckedOut: "checked-out",
	Validating: "validating",
	Valid:      "valid",
	Invalid:    "invalid",
	Extracting: "extracting",
	Extracted:  "extracted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == Invalid || s == Extracted }

var transitions = map[State][]State{
	CheckedOut: {Validating},
	Validating: {Valid, Invalid},
	Valid:      {Extracting},
	Extracting: {Extracted},
}

// CanTransition reports whether the machine may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
