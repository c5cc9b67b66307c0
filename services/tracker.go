package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
)

// Tracker is the read-tracking state of one execution context: the
// current viewer's scope plus that context's ReadStateStore. Requests act
// on it through a ViewerTracker.
type Tracker struct {
	mu    sync.Mutex
	store ReadStateStore
	scope models.ScopeKey
}

// NewTracker resolves viewerID and loads its state into store.
func NewTracker(ctx context.Context, store ReadStateStore, viewerID string) *Tracker {
	t := &Tracker{store: store, scope: ResolveScope(viewerID)}
	store.Load(ctx, t.scope)
	return t
}

// SwitchViewer points the tracker at viewerID's scope. When the scope
// changes the previous viewer's in-memory state is dropped, never merged,
// and the new one is loaded.
func (t *Tracker) SwitchViewer(ctx context.Context, viewerID string) models.ScopeKey {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.switchLocked(ctx, ResolveScope(viewerID))
}

func (t *Tracker) switchLocked(ctx context.Context, next models.ScopeKey) models.ScopeKey {
	if next == t.scope {
		return next
	}
	t.store.Discard(t.scope)
	t.scope = next
	t.store.Load(ctx, next)
	return next
}

func (t *Tracker) Scope() models.ScopeKey {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scope
}

// As returns a handle whose every call runs as viewerID.
func (t *Tracker) As(viewerID string) *ViewerTracker {
	return &ViewerTracker{t: t, scope: ResolveScope(viewerID)}
}

// ViewerTracker is a Tracker pinned to one viewer. Each call switches the
// tracker to that viewer and runs under the same lock, so requests of
// different viewers sharing a context never act on each other's scope.
//
// Queries never fail; a state that could not be loaded answers as empty.
// Marks return a result even when the durable write failed, together with
// the storage error.
type ViewerTracker struct {
	t     *Tracker
	scope models.ScopeKey
}

func (v *ViewerTracker) Scope() models.ScopeKey {
	return v.scope
}

// State returns a snapshot of the viewer's read state.
func (v *ViewerTracker) State(ctx context.Context) models.ReadState {
	var state models.ReadState
	v.run(ctx, func(store ReadStateStore) {
		state = store.Load(ctx, v.scope)
	})
	return state
}

func (v *ViewerTracker) MarkResourceAsRead(ctx context.Context, resourceID string) (models.MarkResult, error) {
	return v.mark(ctx, resourceID, ReadStateStore.MarkResourceRead)
}

func (v *ViewerTracker) MarkChapterAsRead(ctx context.Context, chapterID string) (models.MarkResult, error) {
	return v.mark(ctx, chapterID, ReadStateStore.MarkChapterRead)
}

func (v *ViewerTracker) MarkPublicResourceAsRead(ctx context.Context, resourceID string) (models.MarkResult, error) {
	return v.mark(ctx, resourceID, ReadStateStore.MarkPublicResourceRead)
}

// MarkBatchAsSeen records the current time as the viewer's last visit of
// batchID, which clears the unread state of every announcement posted up
// to now.
func (v *ViewerTracker) MarkBatchAsSeen(ctx context.Context, batchID string) (models.BatchSeenResult, error) {
	var (
		seenAt int64
		err    error
	)
	v.run(ctx, func(store ReadStateStore) {
		seenAt, err = store.MarkBatchSeen(ctx, v.scope, batchID)
	})
	if err != nil && !errors.Is(err, pkg.ErrStorage) {
		return models.BatchSeenResult{}, err
	}
	res := models.BatchSeenResult{BatchID: strings.TrimSpace(batchID), LastSeenAt: seenAt, Persisted: err == nil}
	if err != nil {
		res.Warning = err.Error()
	}
	return res, err
}

func (v *ViewerTracker) IsResourceUnread(ctx context.Context, r models.Resource) bool {
	return IsResourceUnread(r, v.State(ctx).SeenResources)
}

func (v *ViewerTracker) IsPublicResourceUnread(ctx context.Context, r models.Resource) bool {
	return IsPublicResourceUnread(r, v.State(ctx).SeenPublicResources)
}

func (v *ViewerTracker) IsChapterUnread(ctx context.Context, ch models.Chapter, resources []models.Resource) bool {
	state := v.State(ctx)
	return IsChapterUnread(ch, resources, state.SeenChapters, state.SeenResources)
}

// IsSubjectUnread answers for a subject, or for a whole batch when
// subjectID is empty.
func (v *ViewerTracker) IsSubjectUnread(ctx context.Context, subjectID string, chapters []models.Chapter, resources []models.Resource) bool {
	state := v.State(ctx)
	return IsSubjectUnread(subjectID, chapters, resources, state.SeenChapters, state.SeenResources)
}

func (v *ViewerTracker) CountUnreadResources(ctx context.Context, resources []models.Resource) int {
	return CountUnreadResources(resources, v.State(ctx).SeenResources)
}

func (v *ViewerTracker) IsAnnouncementUnread(ctx context.Context, a models.Announcement) bool {
	return IsAnnouncementUnread(a, v.State(ctx).LastSeenByBatch)
}

func (v *ViewerTracker) HasUnreadAnnouncements(ctx context.Context, batchID string, announcements []models.Announcement) bool {
	return HasUnreadAnnouncements(batchID, announcements, v.State(ctx).LastSeenByBatch)
}

// run switches the tracker to v's scope and calls fn under the tracker lock.
func (v *ViewerTracker) run(ctx context.Context, fn func(store ReadStateStore)) {
	v.t.mu.Lock()
	defer v.t.mu.Unlock()

	v.t.switchLocked(ctx, v.scope)
	fn(v.t.store)
}

type markFunc func(store ReadStateStore, ctx context.Context, scope models.ScopeKey, id string) (models.IDSet, error)

func (v *ViewerTracker) mark(ctx context.Context, id string, fn markFunc) (models.MarkResult, error) {
	var err error
	v.run(ctx, func(store ReadStateStore) {
		_, err = fn(store, ctx, v.scope, id)
	})
	if err != nil && !errors.Is(err, pkg.ErrStorage) {
		return models.MarkResult{}, err
	}
	res := models.MarkResult{ID: strings.TrimSpace(id), Persisted: err == nil}
	if err != nil {
		res.Warning = err.Error()
	}
	return res, err
}
