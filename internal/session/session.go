// Package session keeps the terminal's access token across restarts.
// The token is opaque to the client except for its expiry claim, which
// is inspected (unverified; verification is the server's job) to
// decide when a fresh login is needed.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shefospecial/victoriasystem/internal/kv"
)

const tokenKey = "session:token"

var ErrNoSession = errors.New("no stored session")

type Session struct {
	store kv.Store
}

func New(store kv.Store) *Session {
	return &Session{store: store}
}

// Token returns the stored token if it is present and not expired.
func (s *Session) Token(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, tokenKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return "", ErrNoSession
		}
		return "", err
	}

	token := string(raw)
	if expired(token) {
		if err := s.store.Delete(ctx, tokenKey); err != nil {
			log.Printf("[session] WARN: failed to drop expired token: %v", err)
		}
		return "", ErrNoSession
	}
	return token, nil
}

func (s *Session) Save(ctx context.Context, token string) error {
	return s.store.Set(ctx, tokenKey, []byte(token))
}

func (s *Session) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, tokenKey)
}

// expired reports whether the token carries an exp claim in the past.
// A token that does not parse as a JWT is treated as expired so the
// operator is sent back through login rather than hitting 401s.
func expired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
