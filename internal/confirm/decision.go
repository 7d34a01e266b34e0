package confirm

import "strings"

// Decision is the operator's answer to a pending change.
type Decision int

const (
	// Abort leaves the cluster untouched.
	Abort Decision = iota
	// Proceed applies the change.
	Proceed
)

func (d Decision) String() string {
	if d == Proceed {
		return "proceed"
	}
	return "abort"
}

// ParseDecision maps operator input to a decision. Only "y" and "yes"
// (any case, surrounding whitespace ignored) proceed.
func ParseDecision(input string) Decision {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return Proceed
	default:
		return Abort
	}
}
