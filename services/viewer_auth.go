package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/campusdesk/portal/models"
	"github.com/campusdesk/portal/pkg"
)

// ViewerAuth verifies the bearer tokens that identify a viewer. Login and
// credential handling live elsewhere; this side only checks signatures.
type ViewerAuth interface {
	// Enabled reports whether a signing secret is configured. Without one
	// every request is served as the guest viewer.
	Enabled() bool
	ValidateToken(tokenString string) (*models.ViewerClaims, error)
	IssueToken(viewerID string, ttl time.Duration) (string, error)
}

type viewerAuth struct {
	secret []byte
}

func NewViewerAuth(secret string) ViewerAuth {
	return &viewerAuth{secret: []byte(secret)}
}

func (a *viewerAuth) Enabled() bool {
	return len(a.secret) > 0
}

func (a *viewerAuth) ValidateToken(tokenString string) (*models.ViewerClaims, error) {
	if !a.Enabled() {
		return nil, fmt.Errorf("%w: token verification is not configured", pkg.ErrUnauthorized)
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.ViewerClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.ViewerClaims)
	if !ok || !token.Valid || claims.ViewerID() == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}

// IssueToken signs an HS256 token for viewerID. The server never issues
// tokens itself; operators and tests use it.
func (a *viewerAuth) IssueToken(viewerID string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("%w: no signing secret", pkg.ErrInternal)
	}

	now := time.Now()
	claims := models.ViewerClaims{
		UserID: viewerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   viewerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
