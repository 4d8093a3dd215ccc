package poller

import (
	"context"
	"sync"
)

// Session holds at most one live query. Starting a new one cancels the
// previous, so a superseded answer can never overwrite a newer one.
type Session struct {
	client    *Client
	observers []func(State)

	mu      sync.Mutex
	current *Query
	closed  bool
}

func NewSession(c *Client, observers ...func(State)) *Session {
	return &Session{client: c, observers: observers}
}

// OnChange adds an observer for queries started after the call.
func (s *Session) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Start cancels the current query, if any, and starts req. After Close it
// returns nil.
func (s *Session) Start(ctx context.Context, req Request) *Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.current != nil {
		s.current.Cancel()
	}

	observers := make([]func(State), len(s.observers))
	copy(observers, s.observers)
	s.current = s.client.Start(ctx, req, observers...)
	return s.current
}

// Current returns the live query, or nil.
func (s *Session) Current() *Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Close cancels the live query and refuses new ones.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.current != nil {
		s.current.Cancel()
		s.current = nil
	}
}
