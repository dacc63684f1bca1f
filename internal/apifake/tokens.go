package apifake

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type accessClaims struct {
	UserID     string `json:"uid"`
	Generation int    `json:"gen"`
	jwt.RegisteredClaims
}

// issueAccessToken signs an HS256 token for u. Callers hold s.mu.
func (s *Server) issueAccessToken(u *user) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(s.accessTTL)
	claims := accessClaims{
		UserID:     u.ID,
		Generation: s.generation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiry, nil
}

// verifyAccessToken returns the username the token was issued to. Callers hold s.mu.
func (s *Server) verifyAccessToken(raw string) (string, error) {
	var claims accessClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if claims.Generation != s.generation {
		return "", fmt.Errorf("token generation %d revoked", claims.Generation)
	}
	if _, ok := s.users[claims.Subject]; !ok {
		return "", fmt.Errorf("unknown subject %q", claims.Subject)
	}
	return claims.Subject, nil
}

// issueRefreshToken creates an opaque refresh token for username. Callers hold s.mu.
func (s *Server) issueRefreshToken(username string) string {
	token := uuid.NewString()
	s.refreshTokens[token] = username
	return token
}
