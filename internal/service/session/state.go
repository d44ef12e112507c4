// Package session buffers the final transcript segments of one interaction
// until it is classified.
package session

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of an interaction session.
type State int

const (
	// StateOpen - Session is accepting segments.
	StateOpen State = iota
	// StateClassified - Transcript handed to the classifier, waiting to close.
	StateClassified
	// StateClosed - Outcome published.
	StateClosed
	// StateDropped - Session abandoned without an outcome. Terminal.
	StateDropped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClassified:
		return "CLASSIFIED"
	case StateClosed:
		return "CLOSED"
	case StateDropped:
		return "DROPPED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if the state is terminal (CLOSED or DROPPED).
func (s State) IsTerminal() bool {
	return s == StateClosed || s == StateDropped
}

// Errors for invalid state transitions.
var (
	ErrSessionClosed         = errors.New("session is closed")
	ErrAlreadyClassified     = errors.New("session already classified")
	ErrAppendAfterClassified = errors.New("cannot append segment after classification")
)

// Lifecycle manages the state machine for a single session.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	OPEN → CLASSIFIED → CLOSED
//	  │
//	  └── Drop() ──→ DROPPED
//
// Rules:
//   - OPEN: segments may be appended, classification allowed once
//   - CLASSIFIED: no more segments, no second classification, can close
//   - CLOSED/DROPPED: all operations return errors
type Lifecycle struct {
	mu    sync.RWMutex
	state State
}

// NewLifecycle creates a new lifecycle in OPEN state.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateOpen}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsTerminal returns true if the session is closed or dropped.
func (l *Lifecycle) IsTerminal() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state.IsTerminal()
}

// IsDropped returns true if the session was dropped.
func (l *Lifecycle) IsDropped() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateDropped
}

// CheckAppend reports whether a segment may be appended.
func (l *Lifecycle) CheckAppend() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return appendAllowed(l.state)
}

func appendAllowed(s State) error {
	switch s {
	case StateOpen:
		return nil
	case StateClassified:
		return ErrAppendAfterClassified
	case StateClosed, StateDropped:
		return ErrSessionClosed
	default:
		return fmt.Errorf("unexpected state: %v", s)
	}
}

// Classify transitions OPEN to CLASSIFIED. It succeeds exactly once.
func (l *Lifecycle) Classify() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateOpen:
		l.state = StateClassified
		return nil
	case StateClassified:
		return ErrAlreadyClassified
	case StateClosed, StateDropped:
		return ErrSessionClosed
	default:
		return fmt.Errorf("unexpected state: %v", l.state)
	}
}

// Close transitions to CLOSED unless the session was dropped. Idempotent.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateDropped {
		return
	}
	l.state = StateClosed
}

// Drop abandons the session without an outcome.
// Returns true if the session was dropped, false if already in a terminal state.
func (l *Lifecycle) Drop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.IsTerminal() {
		return false
	}
	l.state = StateDropped
	return true
}
