package models

import "time"

// Badge is a catalog entry, seeded at startup and corrected idempotently.
// Hidden badges are excluded from public catalog listings until unlocked.
type Badge struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Code     string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Name     string `gorm:"size:100;not null" json:"name"`
	Category string `gorm:"size:50" json:"category"`
	IsHidden bool   `gorm:"default:false" json:"is_hidden"`
}

// UserBadge records an unlocked badge. Write-once per (user, badge); never
// deleted or updated.
type UserBadge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"user_id"`
	BadgeID   uint      `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_id"`
	Badge     *Badge    `json:"-"`
	AwardedAt time.Time `gorm:"not null" json:"awarded_at"`
}
