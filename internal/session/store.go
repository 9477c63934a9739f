// Package session binds the stream reader and the workflow assembler to a
// concrete conversation: it owns the mapping from session id to committed
// message list, the notion of the current session, and the single in-flight
// turn. All state mutation happens behind one mutex, in response to exactly
// three things: an optimistic send, a completed or cancelled turn, or a full
// session-switch load.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Bluenyg/BuptManus/internal/message"
	"github.com/Bluenyg/BuptManus/internal/workflow"
)

var (
	// ErrStaleSession is returned when a turn is started for a session that
	// is no longer current. The send action captures the session id at send
	// time; by the time it fires the user may have navigated away.
	ErrStaleSession = errors.New("session is no longer current")

	// ErrNoSession is returned when a turn is started with no session at all.
	ErrNoSession = errors.New("no session selected")
)

// Options are the per-turn mode flags forwarded to the backend.
type Options struct {
	DeepThinking         bool
	SearchBeforePlanning bool
	Debug                bool
}

// Streamer opens the event stream for one chat turn. Implemented by the API
// client; faked in tests.
type Streamer interface {
	ChatStream(ctx context.Context, history []message.Message, sessionID string, opts Options) (<-chan workflow.Event, <-chan error, error)
}

// MessageLoader loads a session's full persisted history, already normalized.
type MessageLoader interface {
	ListMessages(ctx context.Context, sessionID string) ([]message.Message, error)
}

// Store is the session/message orchestrator.
type Store struct {
	streamer Streamer
	loader   MessageLoader
	logger   *slog.Logger

	mu       sync.Mutex
	messages map[string][]message.Message
	current  string
	inflight *Turn
}

// NewStore creates an orchestrator with no current session.
func NewStore(streamer Streamer, loader MessageLoader, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		streamer: streamer,
		loader:   loader,
		logger:   logger,
		messages: make(map[string][]message.Message),
	}
}

// Current returns the current session id, or "".
func (s *Store) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Messages returns a copy of the current session's committed message list.
func (s *Store) Messages() []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Message(nil), s.messages[s.current]...)
}

// MessagesFor returns a copy of the committed list for one session.
func (s *Store) MessagesFor(sessionID string) []message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]message.Message(nil), s.messages[sessionID]...)
}

// StartTurn starts one streamed chat turn for the given session.
//
// The session id must match the current session at call time; a stale id is
// a logged no-op. Any turn already in flight for the session is cancelled
// first: only one turn may be streaming per session. The user message is
// appended to the committed list immediately (optimistic); the assembled
// assistant message is appended on completion only if the session is still
// current and the turn was not aborted.
func (s *Store) StartTurn(ctx context.Context, sessionID string, userMsg message.Message, opts Options) (*Turn, error) {
	if sessionID == "" {
		return nil, ErrNoSession
	}

	// Cancellation waits on the prior turn's goroutine, so it cannot happen
	// under the lock. Re-check inflight after every reacquisition: a racing
	// send may have registered its own turn in the window.
	s.mu.Lock()
	for {
		if sessionID != s.current {
			current := s.current
			s.mu.Unlock()
			s.logger.Warn("rejecting turn for non-current session",
				"session_id", sessionID, "current", current)
			return nil, ErrStaleSession
		}
		prev := s.inflight
		if prev == nil {
			break
		}
		s.mu.Unlock()
		prev.Cancel()
		<-prev.Done()
		s.mu.Lock()
	}
	userMsg.SessionID = sessionID
	s.messages[sessionID] = append(s.messages[sessionID], userMsg)
	history := append([]message.Message(nil), s.messages[sessionID]...)

	turnCtx, cancel := context.WithCancel(ctx)
	turn := newTurn(sessionID, cancel)
	s.inflight = turn
	s.mu.Unlock()

	go s.runTurn(turnCtx, turn, history, opts)
	return turn, nil
}

// CancelActive cancels the in-flight turn, if any. Idempotent.
func (s *Store) CancelActive() {
	s.mu.Lock()
	turn := s.inflight
	s.mu.Unlock()
	if turn != nil {
		turn.Cancel()
	}
}

// Switch makes sessionID current and replaces the visible message list with
// that session's full persisted history in one atomic update. Loading a
// different session cancels any in-flight turn as a side effect, so the
// previously-current session's list is left exactly as it was. On load
// failure the session becomes current with an empty list and the error is
// returned for surfacing.
func (s *Store) Switch(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	prev := s.inflight
	s.mu.Unlock()
	if prev != nil {
		prev.Cancel()
		<-prev.Done()
	}

	msgs, err := s.loader.ListMessages(ctx, sessionID)
	if err != nil {
		s.logger.Error("failed to load session history", "session_id", sessionID, "error", err)
		s.mu.Lock()
		s.current = sessionID
		s.messages[sessionID] = nil
		s.mu.Unlock()
		return err
	}
	for i := range msgs {
		msgs[i].SessionID = sessionID
	}

	s.mu.Lock()
	s.messages[sessionID] = msgs
	s.current = sessionID
	s.mu.Unlock()

	s.logger.Debug("switched session", "session_id", sessionID, "messages", len(msgs))
	return nil
}

// Forget drops a session's local state (after remote deletion). If it was
// current, the store ends up with no current session.
func (s *Store) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, sessionID)
	if s.current == sessionID {
		s.current = ""
	}
}

// runTurn drives the event stream through the turn's assembler and commits
// the result. Runs on its own goroutine; the assembler itself only ever sees
// events from here, in arrival order.
func (s *Store) runTurn(ctx context.Context, turn *Turn, history []message.Message, opts Options) {
	evCh, errCh, err := s.streamer.ChatStream(ctx, history, turn.sessionID, opts)
	if err != nil {
		// Stream never opened. The user's text is already committed; the
		// turn finalizes empty and commits nothing on top of it.
		s.logger.Error("failed to open chat stream", "session_id", turn.sessionID, "error", err)
		s.finishTurn(ctx, turn)
		return
	}

	for evCh != nil {
		select {
		case <-ctx.Done():
			evCh = nil

		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				break
			}
			turn.apply(ev)
			if ev.Terminal() {
				evCh = nil
			}

		case streamErr, ok := <-errCh:
			if !ok {
				// Error channel closed with the stream; keep draining events.
				errCh = nil
				break
			}
			if streamErr != nil {
				s.logger.Warn("chat stream failed, keeping partial result",
					"session_id", turn.sessionID, "error", streamErr)
				evCh = nil
			}
		}
	}

	s.finishTurn(ctx, turn)
}

// finishTurn finalizes the assembler and commits the assistant message if,
// and only if, the turn was not aborted and its session is still current.
func (s *Store) finishTurn(ctx context.Context, turn *Turn) {
	res := turn.finalize()
	aborted := turn.aborted.Load() || ctx.Err() != nil

	s.mu.Lock()
	if s.inflight == turn {
		s.inflight = nil
	}
	switch {
	case aborted:
		s.logger.Debug("turn aborted, discarding partial result", "session_id", turn.sessionID)
	case s.current != turn.sessionID:
		s.logger.Debug("discarding stale commit", "session_id", turn.sessionID, "current", s.current)
	default:
		if msg, ok := resultMessage(res, turn.sessionID); ok {
			s.messages[turn.sessionID] = append(s.messages[turn.sessionID], msg)
		}
	}
	s.mu.Unlock()

	turn.close()
}

// resultMessage materializes the assembled result as a committable message.
// A turn that produced nothing at all (transport failure before any content)
// yields no assistant message.
func resultMessage(res workflow.Result, sessionID string) (message.Message, bool) {
	m := message.Message{
		ID:        uuid.New().String(),
		Role:      message.RoleAssistant,
		SessionID: sessionID,
	}
	switch {
	case res.Workflow != nil:
		m.Type = message.TypeWorkflow
		m.Workflow = res.Workflow
	case res.Text != "":
		m.Type = message.TypeText
		m.Text = res.Text
	default:
		return message.Message{}, false
	}
	return m, true
}
