// Package session keeps per-operator view state between requests: the Entries
// view and the pending notification confirmation.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/celerix-dev/guardup-admin/internal/entries"
	"github.com/celerix-dev/guardup-admin/internal/users"
)

// Session is one operator's dashboard state.
type Session struct {
	ID      string
	Entries *entries.View
	Notify  users.Flow

	mu       sync.Mutex
	lastSeen time.Time
	flash    string
}

// SetFlash stores a one-time message for the next page render.
func (s *Session) SetFlash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

// TakeFlash returns and clears the pending message.
func (s *Session) TakeFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Registry holds live sessions. Sessions idle longer than the TTL expire and
// their Entries view is closed.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	newView  func() *entries.View
	logger   *slog.Logger
}

// NewRegistry creates a Registry. newView builds the Entries view of each new session.
func NewRegistry(ttl time.Duration, newView func() *entries.View, logger *slog.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		newView:  newView,
		logger:   logger.With("component", "sessions"),
	}
}

// SetClock overrides the time source used for expiry.
func (r *Registry) SetClock(now func() time.Time) {
	r.now = now
}

// Create starts a new session.
func (r *Registry) Create() *Session {
	s := &Session{
		ID:       uuid.NewString(),
		Entries:  r.newView(),
		lastSeen: r.now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.logger.Debug("session created", "session_id", s.ID)
	return s
}

// Get returns a live session and refreshes its idle timer.
func (r *Registry) Get(id string) (*Session, bool) {
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok && s.idleSince(now) > r.ttl {
		delete(r.sessions, id)
		r.mu.Unlock()
		s.Entries.Close()
		return nil, false
	}
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Len returns the number of sessions, expired ones included until swept.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes expired sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince(now) > r.ttl {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Entries.Close()
	}
	if len(expired) > 0 {
		r.logger.Debug("sessions expired", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every session's view and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	all := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		s.Entries.Close()
	}
}
