package models

import "time"

// ShareLink maps an unguessable token to a file id. Resolving a link is not
// an authorization grant; the file's normal permission check still applies.
type ShareLink struct {
	Token     string
	FileID    string
	CreatedBy string
	CreatedAt time.Time
	// ExpiresAt is nil for links without expiry.
	ExpiresAt *time.Time
}

// Expired reports whether the link is past its expiry at the given time.
func (l *ShareLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
