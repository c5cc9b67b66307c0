package models

import "github.com/golang-jwt/jwt/v5"

// ViewerClaims is the payload of a viewer token issued by the
// authentication service. Older tokens only carry the standard subject.
type ViewerClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// ViewerID returns user_id, falling back to sub.
func (c *ViewerClaims) ViewerID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
