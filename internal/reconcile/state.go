package reconcile

import "fmt"

// State is the state of a run.
type State int

// States of a run, in order.
const (
	Idle State = iota
	Loading
	Merging
	BackingUp
	AwaitingConfirmation
	Applying
	Applied
	Aborted
	Failed
)

var stateNames = [...]string{
	Idle:                 "Idle",
	Loading:              "Loading",
	Merging:              "Merging",
	BackingUp:            "BackingUp",
	AwaitingConfirmation: "AwaitingConfirmation",
	Applying:             "Applying",
	Applied:              "Applied",
	Aborted:              "Aborted",
	Failed:               "Failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal returns true for states that end a run.
func (s State) Terminal() bool {
	return s == Applied || s == Aborted || s == Failed
}
