package models

import "time"

// Store is a physical shop participating in the game. Coordinates may be
// unset until the owner finishes onboarding, hence the pointer fields.
type Store struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Address       string     `gorm:"size:255" json:"address"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	BusinessHours string     `gorm:"size:100" json:"business_hours"`
	Description   string     `gorm:"type:text" json:"description"`
	QRCode        string     `gorm:"size:255;uniqueIndex;not null" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}
