package auth

import "mechat/internal/domain/models"

// JWTVerifier validates bearer tokens. The middleware depends on this
// interface only.
type JWTVerifier interface {
	// VerifyToken returns the token's claims, or domain.ErrUnauthorized when
	// the token is malformed, expired, badly signed or not a signed-in user.
	VerifyToken(tokenString string) (*models.SupabaseClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
