package pipeline

import "fmt"

// State is one step of a single conversion.
type State string

const (
	StateReceived State = "received"
	StateSniffed  State = "sniffed"
	StateDecoded  State = "decoded"
	StateEncoded  State = "encoded"
	StateDone     State = "done"
	StateFailed   State = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

var transitions = map[State][]State{
	StateReceived: {StateSniffed, StateFailed},
	StateSniffed:  {StateDecoded, StateFailed},
	StateDecoded:  {StateEncoded, StateDone, StateFailed},
	StateEncoded:  {StateDone, StateFailed},
}

// CanTransition reports whether from -> to is a legal step. Decoded -> Done
// is only taken by Inspect, which never encodes.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition is reported to the state hook on every step.
type Transition struct {
	From State
	To   State
	// Stage is set on transitions into StateFailed.
	Stage string
}

func (t Transition) String() string {
	if t.Stage != "" {
		return fmt.Sprintf("%s -> %s(%s)", t.From, t.To, t.Stage)
	}
	return fmt.Sprintf("%s -> %s", t.From, t.To)
}

// StateHook observes transitions of one run.
type StateHook func(Transition)
