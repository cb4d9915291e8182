// Package credential holds the process-wide commerce backend token and the
// background task that renews it.
package credential

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrNoToken is returned before the first successful exchange.
var ErrNoToken = errors.New("credential: no access token yet")

// Token is an immutable bearer token snapshot.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether t is past its expiry at now. A zero expiry never expires.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Cell publishes the current Token. One writer replaces whole snapshots;
// readers never observe a partial update.
type Cell struct {
	current atomic.Pointer[Token]
}

// Store replaces the published token.
func (c *Cell) Store(t Token) {
	c.current.Store(&t)
}

// Token returns the published token and whether one exists.
func (c *Cell) Token() (Token, bool) {
	if t := c.current.Load(); t != nil {
		return *t, true
	}
	return Token{}, false
}

// AccessToken returns the bearer value at call time.
func (c *Cell) AccessToken() (string, error) {
	t, ok := c.Token()
	if !ok || t.Value == "" {
		return "", ErrNoToken
	}
	return t.Value, nil
}
