package models

import "time"

// RefreshToken stores the server-side half of a refresh token. Only the
// SHA-256 hash of the raw token is persisted, so a database compromise cannot
// be replayed as a session. At most one non-revoked row per user is the
// protocol convention; issuing a new token revokes all prior rows.
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	User      *User      `json:"-"`
	TokenHash string     `gorm:"size:64;uniqueIndex;not null" json:"-"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time  `gorm:"index;not null" json:"expires_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

// Active reports whether the row can still mint access tokens.
func (t *RefreshToken) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
