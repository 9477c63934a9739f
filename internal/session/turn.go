package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Bluenyg/BuptManus/internal/workflow"
)

// Turn is one in-flight streamed exchange. The stream goroutine feeds it
// events; any number of readers may snapshot the partial result between
// events for live rendering.
type Turn struct {
	sessionID string
	cancel    context.CancelFunc
	aborted   atomic.Bool

	mu  sync.Mutex
	asm *workflow.Assembler

	updates chan struct{}
	done    chan struct{}
}

func newTurn(sessionID string, cancel context.CancelFunc) *Turn {
	return &Turn{
		sessionID: sessionID,
		cancel:    cancel,
		asm:       workflow.NewAssembler(),
		updates:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// SessionID returns the session this turn belongs to.
func (t *Turn) SessionID() string { return t.sessionID }

// Updates signals that the partial result changed. Signals are coalesced:
// a slow reader sees at least one signal for any burst of events. The
// channel is closed when the turn finishes.
func (t *Turn) Updates() <-chan struct{} { return t.updates }

// Done is closed after the turn has finished and its result, if any, has
// been committed.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Cancel aborts the turn. Safe to call more than once, and after the turn
// has already finished; a finished turn is unaffected.
func (t *Turn) Cancel() {
	t.aborted.Store(true)
	t.cancel()
}

// Snapshot returns an independent copy of the partial result assembled so
// far, safe against later events.
func (t *Turn) Snapshot() workflow.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.asm.Snapshot()
}

func (t *Turn) apply(ev workflow.Event) {
	t.mu.Lock()
	t.asm.Apply(ev)
	t.mu.Unlock()

	select {
	case t.updates <- struct{}{}:
	default:
	}
}

func (t *Turn) finalize() workflow.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.asm.Finalize()
}

func (t *Turn) close() {
	close(t.done)
	close(t.updates)
}
