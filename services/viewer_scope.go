package services

import (
	"strings"

	"github.com/campusdesk/portal/models"
)

// ResolveScope maps a viewer id to the key that namespaces its read state.
// An empty or blank id means nobody is signed in and resolves to the
// shared guest scope.
func ResolveScope(viewerID string) models.ScopeKey {
	id := strings.TrimSpace(viewerID)
	if id == "" {
		return models.GuestScope
	}
	return models.ScopeKey(id)
}
