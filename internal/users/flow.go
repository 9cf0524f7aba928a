package users

import (
	"errors"
	"sync"

	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// ErrNoPendingConfirmation is returned by Confirm and Cancel outside PendingConfirmation.
var ErrNoPendingConfirmation = errors.New("users: no pending confirmation")

// State of a notification confirmation.
type State int

const (
	StateIdle State = iota
	StatePendingConfirmation
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingConfirmation:
		return "pending_confirmation"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Confirmation authorizes one notification write. Only Flow.Confirm produces a
// non-zero value.
type Confirmation struct {
	user schema.User
}

// User returns the confirmed target.
func (c Confirmation) User() schema.User { return c.user }

// IsZero reports whether c was not produced by a confirmation.
func (c Confirmation) IsZero() bool { return c.user.ID == "" }

// Flow is the confirm-before-send state machine:
// Idle -> PendingConfirmation(target) -> Committed | Cancelled.
type Flow struct {
	mu     sync.Mutex
	state  State
	target schema.User
}

// Request opens the confirmation step for u, replacing any earlier target.
func (f *Flow) Request(u schema.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StatePendingConfirmation
	f.target = u
}

// Confirm commits the pending target.
func (f *Flow) Confirm() (Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StatePendingConfirmation {
		return Confirmation{}, ErrNoPendingConfirmation
	}
	f.state = StateCommitted
	return Confirmation{user: f.target}, nil
}

// Cancel abandons the pending target. Nothing is written.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StatePendingConfirmation {
		return ErrNoPendingConfirmation
	}
	f.state = StateCancelled
	return nil
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Target returns the user awaiting confirmation, if any.
func (f *Flow) Target() (schema.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != StatePendingConfirmation {
		return schema.User{}, false
	}
	return f.target, true
}
