// Package session keeps one pipeline controller per user session.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"claim-summarizer/internal/pipeline"
)

// Factory builds the controller for a new session.
type Factory func(sessionID string) *pipeline.Controller

const closeTimeout = 5 * time.Second

// Store holds controllers with a sliding expiry. Expired or ended sessions are
// closed, which drops their cached results.
type Store struct {
	sessions *gocache.Cache
	factory  Factory
	log      *slog.Logger
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, factory Factory, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		sessions: gocache.New(ttl, cleanupInterval(ttl)),
		factory:  factory,
		log:      log,
	}
	s.sessions.OnEvicted(s.closeSession)
	return s
}

// Create starts a new session.
func (s *Store) Create() (string, *pipeline.Controller) {
	id := uuid.NewString()
	ctrl := s.factory(id)
	s.sessions.Set(id, ctrl, gocache.DefaultExpiration)
	s.log.Info("session created", "session_id", id)
	return id, ctrl
}

// Get returns the session's controller and extends its lifetime.
func (s *Store) Get(id string) (*pipeline.Controller, bool) {
	x, found := s.sessions.Get(id)
	if !found {
		return nil, false
	}
	ctrl := x.(*pipeline.Controller)
	if !s.refresh(id, ctrl) {
		return nil, false
	}
	return ctrl, true
}

// refresh extends a live session. It never revives one that expired or was
// evicted after the lookup, since that controller is already closed.
func (s *Store) refresh(id string, ctrl *pipeline.Controller) bool {
	return s.sessions.Replace(id, ctrl, gocache.DefaultExpiration) == nil
}

// End closes the session. It reports whether the session existed.
func (s *Store) End(id string) bool {
	if _, found := s.sessions.Get(id); !found {
		return false
	}
	s.sessions.Delete(id)
	return true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.sessions.ItemCount()
}

// Close ends every session.
func (s *Store) Close() {
	for id := range s.sessions.Items() {
		s.sessions.Delete(id)
	}
}

func (s *Store) closeSession(id string, x interface{}) {
	ctrl, ok := x.(*pipeline.Controller)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := ctrl.Close(ctx); err != nil {
		s.log.Warn("failed to close session", "session_id", id, "err", err)
		return
	}
	s.log.Info("session ended", "session_id", id)
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 10 * time.Minute
	}
	if interval := ttl / 6; interval > time.Second {
		return interval
	}
	return time.Second
}
