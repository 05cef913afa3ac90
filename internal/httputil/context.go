package httputil

import (
	"context"
	"net/http"

	"mechat/internal/domain/models"
)

type contextKey string

const (
	userIDKey contextKey = "userID"
	claimsKey contextKey = "claims"
)

// WithUserID adds userID to the request context
func WithUserID(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	return r.WithContext(ctx)
}

// GetUserID retrieves userID from context, returns empty string if not found
func GetUserID(r *http.Request) string {
	userID, _ := r.Context().Value(userIDKey).(string)
	return userID
}

// WithClaims stores the verified token claims and their user ID
func WithClaims(r *http.Request, claims *models.SupabaseClaims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	ctx = context.WithValue(ctx, userIDKey, claims.GetUserID())
	return r.WithContext(ctx)
}

// GetClaims returns the verified claims, or nil on unauthenticated routes
func GetClaims(r *http.Request) *models.SupabaseClaims {
	claims, _ := r.Context().Value(claimsKey).(*models.SupabaseClaims)
	return claims
}
