package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"video-quiz-service/internal/domain"
)

// Authenticator resolves a bearer credential into the caller's user id.
// Bad credentials are reported as domain.ErrUnauthenticated; a failing backing
// store is reported as domain.ErrInternal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Claims carries the caller identity in the standard sub claim.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies HS256 tokens signed by the identity service.
type JWTAuthenticator struct {
	secret []byte
	issuer string
}

func NewJWTAuthenticator(secret, issuer string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret), issuer: issuer}
}

// Issue signs a token for userID. Used by local tooling and tests; production tokens
// come from the identity service.
func (a *JWTAuthenticator) Issue(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    a.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *JWTAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return claims.Subject, nil
}

// SessionLookup is satisfied by the memory and Redis session stores.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (string, error)
}

// SessionAuthenticator accepts opaque session tokens registered in a session store.
type SessionAuthenticator struct {
	sessions SessionLookup
}

func NewSessionAuthenticator(sessions SessionLookup) *SessionAuthenticator {
	return &SessionAuthenticator{sessions: sessions}
}

func (a *SessionAuthenticator) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthenticated
	}
	userID, err := a.sessions.Lookup(ctx, token)
	if errors.Is(err, domain.ErrUnauthenticated) {
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: session lookup: %v", domain.ErrInternal, err)
	}
	return userID, nil
}
