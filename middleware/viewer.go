// Package middleware holds the layers every request passes through before
// it reaches a handler. A middleware is a func(next http.Handler)
// http.Handler; it either calls next or answers the request itself.
package middleware

import (
	"net/http"
	"strings"

	"github.com/campusdesk/portal/handlers"
	"github.com/campusdesk/portal/pkg"
	"github.com/campusdesk/portal/services"
)

// ViewerMiddleware identifies the viewer behind a request.
type ViewerMiddleware struct {
	auth services.ViewerAuth
}

func NewViewerMiddleware(auth services.ViewerAuth) *ViewerMiddleware {
	return &ViewerMiddleware{auth: auth}
}

// Resolve stores the viewer id of the bearer token in the request context.
//
// Authentication is optional: no Authorization header means the guest
// viewer, and so does any request while token verification is not
// configured. A header that is present but malformed or fails
// verification answers 401, so a broken token never silently reads or
// writes the guest's state.
func (m *ViewerMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !m.auth.Enabled() {
			next.ServeHTTP(w, r.WithContext(handlers.WithViewer(r.Context(), "")))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		claims, err := m.auth.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			pkg.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithViewer(r.Context(), claims.ViewerID())))
	})
}
