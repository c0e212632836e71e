package models

import "time"

// ShareToken grants time-bounded access to exactly one file.
type ShareToken struct {
	ID    string
	Token string
	// UserID is the owner of FileID at issue time; redemption resolves the
	// file within that namespace only.
	UserID string
	FileID string
	// Email is empty for the direct UI flow.
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token is dead at now. Both instants are
// compared in UTC and the expiry instant itself already counts as expired.
func (s *ShareToken) ExpiredAt(now time.Time) bool {
	return !now.UTC().Before(s.ExpiresAt.UTC())
}
