package query

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is the cancellation cause of a query replaced by a newer
// query for a different file in the same session.
var ErrSuperseded = errors.New("query superseded by a newer request")

type activeQuery struct {
	file   string
	cancel context.CancelCauseFunc
	token  uint64
}

// Sessions tracks the in-flight query of each client session, typically one
// editor window following its active file.
type Sessions struct {
	mu     sync.Mutex
	active map[string]*activeQuery
	next   uint64
}

// NewSessions creates an empty session tracker.
func NewSessions() *Sessions {
	return &Sessions{active: make(map[string]*activeQuery)}
}

// Begin registers a query for file in session and returns its context. An
// in-flight query for a different file in the same session is cancelled with
// ErrSuperseded. The returned func must be called when the query finishes.
func (s *Sessions) Begin(ctx context.Context, session, file string) (context.Context, func()) {
	qctx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	s.next++
	token := s.next
	entry := &activeQuery{file: file, cancel: cancel, token: token}
	if prev, ok := s.active[session]; ok {
		if prev.file != file {
			prev.cancel(ErrSuperseded)
		} else {
			// Same file: both run, and a later file change cancels both.
			prevCancel := prev.cancel
			entry.cancel = func(cause error) {
				cancel(cause)
				prevCancel(cause)
			}
		}
	}
	s.active[session] = entry
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		if cur, ok := s.active[session]; ok && cur.token == token {
			delete(s.active, session)
		}
		s.mu.Unlock()
		cancel(context.Canceled)
	}
	return qctx, done
}

// Active returns the number of sessions with a query in flight.
func (s *Sessions) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// IsSuperseded reports whether ctx was cancelled by a newer query.
func IsSuperseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
