package remote

import (
	"fmt"
	"time"
)

// State is a client-side job state. Progression is monotonic: once a job
// reaches one of the three terminal states it never moves again.
type State string

const (
	StateCreated  State = "created"
	StateUploaded State = "uploaded"
	StateStarted  State = "started"
	StatePolling  State = "polling"

	// Terminal states.
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

// legalTransitions defines the only permitted state changes.
var legalTransitions = map[State][]State{
	StateCreated:  {StateUploaded},
	StateUploaded: {StateStarted},
	StateStarted:  {StatePolling},
	StatePolling:  {StateCompleted, StateFailed, StateTimedOut},
}

// Terminal reports whether no further transition is allowed from s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateTimedOut
}

// Job tracks one in-flight remote task. A Job belongs to a single Submit
// call and is never shared.
type Job struct {
	ID          string
	State       State
	PayloadName string
	CreatedAt   time.Time
	Deadline    time.Time
}

func newJob(id, payloadName string, timeout time.Duration) *Job {
	now := time.Now()
	return &Job{
		ID:          id,
		State:       StateCreated,
		PayloadName: payloadName,
		CreatedAt:   now,
		Deadline:    now.Add(timeout),
	}
}

// advance moves the job to the next state, rejecting transitions the
// protocol does not allow.
func (j *Job) advance(to State) error {
	for _, allowed := range legalTransitions[j.State] {
		if to == allowed {
			j.State = to
			return nil
		}
	}
	return fmt.Errorf("illegal job transition %s -> %s", j.State, to)
}
