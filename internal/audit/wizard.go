package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidTransition is returned when Run is called outside StateInput.
var ErrInvalidTransition = errors.New("audit: invalid state transition")

// State is the wizard's current step.
type State int

// Wizard states.
const (
	StateInput State = iota
	StateLoading
	StateResult
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInput:
		return "input"
	case StateLoading:
		return "loading"
	case StateResult:
		return "result"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Wizard drives one audit at a time: input, then loading, then result or failed.
// It is safe for concurrent use; a TUI may poll State while Run blocks.
type Wizard struct {
	mu     sync.Mutex
	state  State
	result *Result
	err    error
}

// NewWizard returns a wizard in StateInput.
func NewWizard() *Wizard {
	return &Wizard{}
}

// State returns the current state.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Outcome returns the last result and error.
func (w *Wizard) Outcome() (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.result, w.err
}

// Run moves input to loading, calls g, and settles in result or failed.
func (w *Wizard) Run(ctx context.Context, g Generator, req Request) (*Result, error) {
	w.mu.Lock()
	if w.state != StateInput {
		cur := w.state
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: run from %s", ErrInvalidTransition, cur)
	}
	w.state = StateLoading
	w.mu.Unlock()

	res, err := g.Generate(ctx, req)
	if err == nil && res == nil {
		err = errors.New("audit: generator returned no result")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.state, w.result, w.err = StateFailed, nil, err
		return nil, err
	}
	w.state, w.result, w.err = StateResult, res, nil
	return res, nil
}

// Reset returns to StateInput. Resetting while loading is an invalid transition.
func (w *Wizard) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateLoading {
		return fmt.Errorf("%w: reset from %s", ErrInvalidTransition, w.state)
	}
	w.state, w.result, w.err = StateInput, nil, nil
	return nil
}
