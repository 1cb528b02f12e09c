package reconcile

import (
	"time"

	"github.com/agentstation/argmap/pkg/errors"
)

// State is the lifecycle state of an import session.
type State string

// Session states.
const (
	StateIdle           State = "idle"
	StateLoading        State = "loading"
	StateResolving      State = "resolving"
	StateAwaitingReview State = "awaiting_review"
	StateApplying       State = "applying"
	StateCommitted      State = "committed"
	StateFailed         State = "failed"
)

// String returns the string representation of a state
func (s State) String() string {
	return string(s)
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateIdle:           {StateLoading},
	StateLoading:        {StateResolving, StateFailed},
	StateResolving:      {StateAwaitingReview, StateApplying, StateFailed},
	StateAwaitingReview: {StateResolving, StateFailed},
	StateApplying:       {StateCommitted, StateFailed},
}

// CanTransition reports whether a session in s may move to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// Transition is one recorded state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// machine tracks the current state and its history.
type machine struct {
	state   State
	history []Transition
	now     func() time.Time
}

func newMachine(now func() time.Time) machine {
	return machine{state: StateIdle, now: now}
}

// transition moves to next, or returns a TransitionError and stays put.
func (m *machine) transition(next State) error {
	if !m.state.CanTransition(next) {
		return errors.NewTransitionError(m.state.String(), next.String())
	}
	m.history = append(m.history, Transition{From: m.state, To: next, At: m.now()})
	m.state = next
	return nil
}

// fail moves to StateFailed when the current state allows it.
func (m *machine) fail() {
	_ = m.transition(StateFailed)
}
