package main

import (
	"net/http"

	"github.com/campusdesk/portal/middleware"
	"github.com/campusdesk/portal/pkg"
)

// initRoutes registers every endpoint. All session routes run behind the
// viewer middleware, which resolves the signed-in viewer or the guest.
func initRoutes(mux *http.ServeMux, h *Handlers, svcs *Services) {
	viewerMw := middleware.NewViewerMiddleware(svcs.ViewerAuth)
	viewer := func(handler http.HandlerFunc) http.Handler {
		return viewerMw.Resolve(handler)
	}

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "readstate"})
	})

	// Sessions
	mux.Handle("POST /api/sessions", viewer(h.Session.Open))
	mux.Handle("DELETE /api/sessions/{id}", viewer(h.Session.Close))
	mux.Handle("GET /api/sessions/{id}/state", viewer(h.Session.State))

	// Marks
	mux.Handle("POST /api/sessions/{id}/resources/{resourceId}/read", viewer(h.ReadState.MarkResourceRead))
	mux.Handle("POST /api/sessions/{id}/chapters/{chapterId}/read", viewer(h.ReadState.MarkChapterRead))
	mux.Handle("POST /api/sessions/{id}/public-resources/{resourceId}/read", viewer(h.ReadState.MarkPublicResourceRead))
	mux.Handle("POST /api/sessions/{id}/batches/{batchId}/seen", viewer(h.ReadState.MarkBatchSeen))

	// Unread queries
	mux.Handle("POST /api/sessions/{id}/unread/resource", viewer(h.ReadState.ResourceUnread))
	mux.Handle("POST /api/sessions/{id}/unread/public-resource", viewer(h.ReadState.PublicResourceUnread))
	mux.Handle("POST /api/sessions/{id}/unread/chapter", viewer(h.ReadState.ChapterUnread))
	mux.Handle("POST /api/sessions/{id}/unread/subject", viewer(h.ReadState.SubjectUnread))
	mux.Handle("POST /api/sessions/{id}/unread/announcement", viewer(h.ReadState.AnnouncementUnread))
	mux.Handle("POST /api/sessions/{id}/unread/batches/{batchId}/announcements", viewer(h.ReadState.BatchAnnouncementsUnread))
}
