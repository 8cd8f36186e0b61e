package model

import "errors"

// AuthClaims are the identity fields embedded in a session token.
type AuthClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Token verification failures. Signature mismatch is reported separately
// from generic malformed tokens: it usually means the token was signed with
// a different JWT_SECRET (secret rotation or mismatched deployments).
var (
	// ErrTokenExpired is returned when a token is past its expiry
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenSignatureInvalid is returned when the signature does not verify
	ErrTokenSignatureInvalid = errors.New("invalid token signature")

	// ErrTokenMalformed is returned when a token cannot be parsed at all
	ErrTokenMalformed = errors.New("malformed token")
)
