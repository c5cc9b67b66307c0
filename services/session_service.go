package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/pkg/cache"
	"github.com/campusdesk/portal/repository"
)

// SessionService keeps the open execution contexts. Every session owns a
// Tracker over its own ReadStateStore, so sessions of the same viewer hold
// separate in-memory copies and do not observe each other's marks.
//
// Sessions expire after ttl without use.
type SessionService interface {
	Open(ctx context.Context, viewerID string) (models.SessionInfo, error)
	Get(ctx context.Context, sessionID, viewerID string) (*ViewerTracker, error)
	Info(sessionID string) (models.SessionInfo, error)
	Close(sessionID string) error
	Shutdown()
}

type session struct {
	openedAt time.Time
	tracker  *Tracker
}

type sessionService struct {
	repo     repository.ReadStateRepository
	sessions *cache.TTLCache[string, *session]
}

func NewSessionService(repo repository.ReadStateRepository, ttl, cleanupInterval time.Duration) SessionService {
	return &sessionService{
		repo:     repo,
		sessions: cache.New[string, *session](ttl, cleanupInterval),
	}
}

// Open starts a session for viewerID and loads its read state.
func (s *sessionService) Open(ctx context.Context, viewerID string) (models.SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.SessionInfo{}, err
	}
	store := NewReadStateStore(s.repo, time.Now)
	sess := &session{
		openedAt: time.Now().UTC(),
		tracker:  NewTracker(ctx, store, viewerID),
	}

	id := uuid.New().String()
	s.sessions.Set(id, sess)
	log.Printf("[session] opened %s for scope %s", id, sess.tracker.Scope())

	return models.SessionInfo{ID: id, Scope: sess.tracker.Scope(), OpenedAt: sess.openedAt}, nil
}

// Get switches the session to viewerID, extends its lifetime and returns a
// handle pinned to that viewer. The viewer is re-resolved on every call
// because the identity behind a context can change at any time; a handle
// keeps acting as its own viewer even if a later request switches again.
func (s *sessionService) Get(ctx context.Context, sessionID, viewerID string) (*ViewerTracker, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.tracker.Scope()
	if after := sess.tracker.SwitchViewer(ctx, viewerID); after != before {
		log.Printf("[session] %s switched scope %s -> %s", sessionID, before, after)
	}
	return sess.tracker.As(viewerID), nil
}

func (s *sessionService) Info(sessionID string) (models.SessionInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return models.SessionInfo{}, err
	}
	return models.SessionInfo{ID: sessionID, Scope: sess.tracker.Scope(), OpenedAt: sess.openedAt}, nil
}

// Close ends a session. Its in-memory state is dropped; anything already
// written through stays in storage.
func (s *sessionService) Close(sessionID string) error {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return fmt.Errorf("%w: session %s", pkg.ErrNotFound, sessionID)
	}
	s.sessions.Delete(sessionID)
	log.Printf("[session] closed %s", sessionID)
	return nil
}

// Shutdown stops the expiry goroutine.
func (s *sessionService) Shutdown() {
	s.sessions.Close()
}

func (s *sessionService) touch(sessionID string) (*session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: session %s", pkg.ErrNotFound, sessionID)
	}
	sess, ok := s.sessions.Touch(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: session %s", pkg.ErrNotFound, sessionID)
	}
	return sess, nil
}
