package domain

import "time"

// SessionTTL is how long a login token stays valid.
const SessionTTL = 24 * time.Hour

// Session binds an opaque login token to a username until ExpiresAt.
type Session struct {
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TTL is the lifetime of the session measured on the clock that issued it.
// Sessions without an issue time fall back to the wall clock.
func (s Session) TTL() time.Duration {
	if s.IssuedAt.IsZero() {
		return time.Until(s.ExpiresAt)
	}
	return s.ExpiresAt.Sub(s.IssuedAt)
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
