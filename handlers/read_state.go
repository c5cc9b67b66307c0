package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/services"
)

// ReadStateHandler serves the mark and unread endpoints of a session.
//
// Clients send content items the way they received them from the content
// API; both field naming conventions are accepted and normalized before
// any freshness rule runs.
type ReadStateHandler struct {
	sessions services.SessionService
}

func NewReadStateHandler(sessions services.SessionService) *ReadStateHandler {
	return &ReadStateHandler{sessions: sessions}
}

// MarkResourceRead godoc
// POST /api/sessions/{id}/resources/{resourceId}/read
func (h *ReadStateHandler) MarkResourceRead(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, r.PathValue("resourceId"), (*services.ViewerTracker).MarkResourceAsRead)
}

// MarkChapterRead godoc
// POST /api/sessions/{id}/chapters/{chapterId}/read
func (h *ReadStateHandler) MarkChapterRead(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, r.PathValue("chapterId"), (*services.ViewerTracker).MarkChapterAsRead)
}

// MarkPublicResourceRead godoc
// POST /api/sessions/{id}/public-resources/{resourceId}/read
func (h *ReadStateHandler) MarkPublicResourceRead(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, r.PathValue("resourceId"), (*services.ViewerTracker).MarkPublicResourceAsRead)
}

// MarkBatchSeen godoc
// POST /api/sessions/{id}/batches/{batchId}/seen
// Called when the viewer opens a batch's announcement timeline.
func (h *ReadStateHandler) MarkBatchSeen(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	result, err := tracker.MarkBatchAsSeen(r.Context(), r.PathValue("batchId"))
	if err != nil && !errors.Is(err, pkg.ErrStorage) {
		pkg.Error(w, err)
		return
	}
	if err != nil {
		log.Printf("[readstate] batch %s seen but not persisted: %v", result.BatchID, err)
	}
	pkg.JSON(w, http.StatusOK, result)
}

// ResourceUnread godoc
// POST /api/sessions/{id}/unread/resource
func (h *ReadStateHandler) ResourceUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.ResourcePayload
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.IsResourceUnread(r.Context(), req.Normalize())
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// PublicResourceUnread godoc
// POST /api/sessions/{id}/unread/public-resource
func (h *ReadStateHandler) PublicResourceUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.ResourcePayload
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.IsPublicResourceUnread(r.Context(), req.Normalize())
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// ChapterUnread godoc
// POST /api/sessions/{id}/unread/chapter
func (h *ReadStateHandler) ChapterUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.ChapterUnreadRequest
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.IsChapterUnread(r.Context(), req.Chapter.Normalize(), models.NormalizeResources(req.Resources))
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// SubjectUnread godoc
// POST /api/sessions/{id}/unread/subject
// Without subject_id the answer covers every chapter sent, i.e. a batch.
func (h *ReadStateHandler) SubjectUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.SubjectUnreadRequest
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.IsSubjectUnread(r.Context(), req.SubjectID,
		models.NormalizeChapters(req.Chapters), models.NormalizeResources(req.Resources))
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// AnnouncementUnread godoc
// POST /api/sessions/{id}/unread/announcement
func (h *ReadStateHandler) AnnouncementUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.AnnouncementPayload
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.IsAnnouncementUnread(r.Context(), req.Normalize())
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// BatchAnnouncementsUnread godoc
// POST /api/sessions/{id}/unread/batches/{batchId}/announcements
func (h *ReadStateHandler) BatchAnnouncementsUnread(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	var req models.AnnouncementsUnreadRequest
	if err := decodeBody(w, r, &req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	unread := tracker.HasUnreadAnnouncements(r.Context(), r.PathValue("batchId"), models.NormalizeAnnouncements(req.Announcements))
	pkg.JSON(w, http.StatusOK, models.UnreadResult{Unread: unread})
}

// tracker resolves the session of the request for the current viewer and
// writes the error response itself when that fails.
func (h *ReadStateHandler) tracker(w http.ResponseWriter, r *http.Request) (*services.ViewerTracker, bool) {
	tracker, err := h.sessions.Get(r.Context(), r.PathValue("id"), ViewerFrom(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return nil, false
	}
	return tracker, true
}

type trackerMark func(t *services.ViewerTracker, ctx context.Context, id string) (models.MarkResult, error)

// mark runs a mark operation. A failed durable write still answers 200:
// the viewer's current context already treats the item as read.
func (h *ReadStateHandler) mark(w http.ResponseWriter, r *http.Request, id string, fn trackerMark) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	result, err := fn(tracker, r.Context(), id)
	if err != nil && !errors.Is(err, pkg.ErrStorage) {
		pkg.Error(w, err)
		return
	}
	if err != nil {
		log.Printf("[readstate] %s marked but not persisted: %v", result.ID, err)
	}
	pkg.JSON(w, http.StatusOK, result)
}
