package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// contextKey is a private type so context values set here cannot collide
// with keys from other packages.
type contextKey string

// ViewerContextKey carries the authenticated viewer id. ViewerMiddleware
// sets it; a missing or empty value means the guest viewer.
const ViewerContextKey contextKey = "viewer"

// WithViewer returns a copy of ctx carrying viewerID.
func WithViewer(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, ViewerContextKey, viewerID)
}

// ViewerFrom returns the viewer id stored in ctx, or "".
func ViewerFrom(ctx context.Context) string {
	viewerID, _ := ctx.Value(ViewerContextKey).(string)
	return viewerID
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
