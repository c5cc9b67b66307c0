package handlers

import (
	"fmt"
	"net/http"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/pkg/ratelimit"
	"github.com/campusdesk/portal/services"
)

// SessionHandler opens and closes execution contexts.
type SessionHandler struct {
	sessions    services.SessionService
	openLimiter *ratelimit.Limiter
}

// NewSessionHandler builds the handler. openLimiter may be nil, which
// leaves session creation unthrottled.
func NewSessionHandler(sessions services.SessionService, openLimiter *ratelimit.Limiter) *SessionHandler {
	return &SessionHandler{sessions: sessions, openLimiter: openLimiter}
}

// stateResponse is the read state of the session's current viewer.
type stateResponse struct {
	Scope models.ScopeKey `json:"scope"`
	models.ReadState
}

// Open godoc
// POST /api/sessions
// Every session holds read state in memory until it expires, so openings
// are limited per client IP.
func (h *SessionHandler) Open(w http.ResponseWriter, r *http.Request) {
	ip := ratelimit.ExtractIP(r)
	if h.openLimiter != nil && !h.openLimiter.Allow(ip) {
		retryAfter := h.openLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			fmt.Sprintf("too many sessions opened, please try again in %s",
				ratelimit.FormatRetryMessage(retryAfter)))
		return
	}

	info, err := h.sessions.Open(r.Context(), ViewerFrom(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, info)
}

// Close godoc
// DELETE /api/sessions/{id}
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}

// State godoc
// GET /api/sessions/{id}/state
func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	tracker, err := h.sessions.Get(r.Context(), r.PathValue("id"), ViewerFrom(r.Context()))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, stateResponse{
		Scope:     tracker.Scope(),
		ReadState: tracker.State(r.Context()),
	})
}
