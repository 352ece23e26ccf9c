package models

// Rank is an immutable catalog entry. The ordered list (ascending by
// ClearThreshold) is seeded once at startup; Position reflects that order so
// promotion/decay can compare ranks without re-sorting.
type Rank struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	Name             string  `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Position         int     `gorm:"not null" json:"position"`
	ClearThreshold   int     `gorm:"not null" json:"clear_threshold"`
	RewardMultiplier float64 `gorm:"not null;default:1" json:"reward_multiplier"`
}
