package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/repository"
)

// ReadStateStore is the in-memory view of read state for one execution
// context, written through to a ReadStateRepository.
//
// Each scope is loaded from storage at most once per store; afterwards the
// store trusts its own copy and never re-reads. Two stores over the same
// repository therefore do not see each other's marks, and the last one to
// write a record wins.
//
// Every mark performs exactly one durable write. When that write fails the
// in-memory change is kept and the error (wrapping pkg.ErrStorage) is
// returned for the caller to report.
//
// A collection whose record could not be read is never written: marks on
// it stay in memory and fail with pkg.ErrStorage, and the record is read
// again on every later use. Once it reads, the stored ids are merged with
// the in-memory marks and the next mark writes the union.
type ReadStateStore interface {
	Load(ctx context.Context, scope models.ScopeKey) models.ReadState
	MarkResourceRead(ctx context.Context, scope models.ScopeKey, resourceID string) (models.IDSet, error)
	MarkChapterRead(ctx context.Context, scope models.ScopeKey, chapterID string) (models.IDSet, error)
	MarkPublicResourceRead(ctx context.Context, scope models.ScopeKey, resourceID string) (models.IDSet, error)
	MarkBatchSeen(ctx context.Context, scope models.ScopeKey, batchID string) (int64, error)
	Discard(scope models.ScopeKey)
}

type readStateStore struct {
	repo repository.ReadStateRepository
	now  func() time.Time

	mu     sync.Mutex
	states map[models.ScopeKey]*scopeState
}

type scopeState struct {
	state      models.ReadState
	unreadable map[repository.Category]bool
}

// NewReadStateStore creates an empty store. now is read once per
// MarkBatchSeen; pass time.Now outside tests.
func NewReadStateStore(repo repository.ReadStateRepository, now func() time.Time) ReadStateStore {
	if now == nil {
		now = time.Now
	}
	return &readStateStore{
		repo:   repo,
		now:    now,
		states: make(map[models.ScopeKey]*scopeState),
	}
}

// Load returns a snapshot of scope's state, loading it on first use.
func (s *readStateStore) Load(ctx context.Context, scope models.ScopeKey) models.ReadState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stateLocked(ctx, scope).state.Clone()
}

func (s *readStateStore) MarkResourceRead(ctx context.Context, scope models.ScopeKey, resourceID string) (models.IDSet, error) {
	return s.markSet(ctx, scope, repository.CategoryResources, resourceID)
}

func (s *readStateStore) MarkChapterRead(ctx context.Context, scope models.ScopeKey, chapterID string) (models.IDSet, error) {
	return s.markSet(ctx, scope, repository.CategoryChapters, chapterID)
}

func (s *readStateStore) MarkPublicResourceRead(ctx context.Context, scope models.ScopeKey, resourceID string) (models.IDSet, error) {
	return s.markSet(ctx, scope, repository.CategoryPublicResources, resourceID)
}

// MarkBatchSeen records now as the viewer's last visit of batchID and
// returns the stored epoch milliseconds.
func (s *readStateStore) MarkBatchSeen(ctx context.Context, scope models.ScopeKey, batchID string) (int64, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return 0, fmt.Errorf("%w: batch id is required", pkg.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.stateLocked(ctx, scope)
	seenAt := s.now().UnixMilli()
	entry.state.LastSeenByBatch[batchID] = seenAt

	if entry.unreadable[repository.CategoryBatchLastSeen] {
		return seenAt, deferredWrite(repository.CategoryBatchLastSeen.Key(scope))
	}
	if err := s.repo.SaveBatchLastSeen(ctx, scope, entry.state.LastSeenByBatch); err != nil {
		log.Printf("[readstate] write %s failed, keeping in-memory value: %v", repository.CategoryBatchLastSeen.Key(scope), err)
		return seenAt, fmt.Errorf("%w: %s: %w", pkg.ErrStorage, repository.CategoryBatchLastSeen.Key(scope), err)
	}
	return seenAt, nil
}

// Discard forgets the in-memory state of scope. The next Load reads storage
// again.
func (s *readStateStore) Discard(scope models.ScopeKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.states, scope)
}

func (s *readStateStore) markSet(ctx context.Context, scope models.ScopeKey, category repository.Category, id string) (models.IDSet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", pkg.ErrBadRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.stateLocked(ctx, scope)
	set := setOf(&entry.state, category)
	set.Add(id)

	if entry.unreadable[category] {
		return set.Clone(), deferredWrite(category.Key(scope))
	}

	if err := s.repo.SaveSet(ctx, scope, category, set); err != nil {
		log.Printf("[readstate] write %s failed, keeping in-memory value: %v", category.Key(scope), err)
		return set.Clone(), fmt.Errorf("%w: %s: %w", pkg.ErrStorage, category.Key(scope), err)
	}
	return set.Clone(), nil
}

// stateLocked returns the live state of scope, loading it once. Load
// problems are logged and leave the affected collections empty; unreadable
// ones are retried on every call until they load.
func (s *readStateStore) stateLocked(ctx context.Context, scope models.ScopeKey) *scopeState {
	if entry, ok := s.states[scope]; ok {
		if len(entry.unreadable) > 0 {
			s.retryLocked(ctx, scope, entry)
		}
		return entry
	}

	state, err := s.repo.Load(ctx, scope)
	if err != nil {
		log.Printf("[readstate] load %s: %v (treating affected collections as empty)", scope, err)
	}
	entry := &scopeState{state: state, unreadable: make(map[repository.Category]bool)}
	for _, category := range repository.UnreadableCategories(err) {
		entry.unreadable[category] = true
	}
	s.states[scope] = entry
	return entry
}

// retryLocked re-reads scope and merges every collection that has become
// readable into the in-memory one.
func (s *readStateStore) retryLocked(ctx context.Context, scope models.ScopeKey, entry *scopeState) {
	fresh, err := s.repo.Load(ctx, scope)
	still := make(map[repository.Category]bool)
	for _, category := range repository.UnreadableCategories(err) {
		still[category] = true
	}

	for category := range entry.unreadable {
		if still[category] {
			continue
		}
		if category == repository.CategoryBatchLastSeen {
			for batchID, seenAt := range fresh.LastSeenByBatch {
				if _, marked := entry.state.LastSeenByBatch[batchID]; !marked {
					entry.state.LastSeenByBatch[batchID] = seenAt
				}
			}
		} else {
			set := setOf(&entry.state, category)
			for id := range setOf(&fresh, category) {
				set.Add(id)
			}
		}
		delete(entry.unreadable, category)
		log.Printf("[readstate] %s readable again, merged with in-memory marks", category.Key(scope))
	}
}

func deferredWrite(key string) error {
	log.Printf("[readstate] %s could not be read, write deferred", key)
	return fmt.Errorf("%w: %s could not be read, write deferred", pkg.ErrStorage, key)
}

func setOf(state *models.ReadState, category repository.Category) models.IDSet {
	switch category {
	case repository.CategoryChapters:
		return state.SeenChapters
	case repository.CategoryPublicResources:
		return state.SeenPublicResources
	default:
		return state.SeenResources
	}
}
