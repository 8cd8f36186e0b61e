package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"deadpoets/internal/model"
)

// TokenService issues and verifies stateless session tokens.
// Tokens carry the user's identity claims and a 7-day expiry; there is no
// server-side revocation, so a token stays valid until it expires.
type TokenService struct {
	secret []byte
	maxAge time.Duration
}

// NewTokenService creates a token service signing with the given secret.
// maxAgeSeconds is the token lifetime.
func NewTokenService(secret string, maxAgeSeconds int) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		maxAge: time.Duration(maxAgeSeconds) * time.Second,
	}
}

// tokenClaims is the wire format of the session token payload.
type tokenClaims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Issue signs a new session token for the given user.
func (s *TokenService) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a token's signature and expiry and returns its claims.
// Each failure mode maps to a distinct sentinel: an expired token, a token
// signed with a different secret, or a token that cannot be parsed at all.
func (s *TokenService) Verify(tokenString string) (*model.AuthClaims, error) {
	var claims tokenClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, model.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, model.ErrTokenSignatureInvalid
		default:
			return nil, model.ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, model.ErrTokenMalformed
	}

	return &model.AuthClaims{
		ID:       claims.ID,
		Username: claims.Username,
		Email:    claims.Email,
	}, nil
}
