package models

import "time"

// StoreStamp accumulates a user's stamps at one store. Unique per
// (user, store); StampsCount is monotonically incremented.
type StoreStamp struct {
	ID          uint `gorm:"primaryKey" json:"id"`
	UserID      uint `gorm:"uniqueIndex:idx_user_store_stamp;not null" json:"user_id"`
	StoreID     uint `gorm:"uniqueIndex:idx_user_store_stamp;not null" json:"store_id"`
	StampsCount int  `gorm:"default:0" json:"stamps_count"`
	RewardGiven bool `gorm:"default:false" json:"reward_given"`
}

// StoreStampHistory is an append-only log of individual scans, used for the
// cooldown check and for badge counters. Rows are never mutated.
type StoreStampHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	StoreID   uint      `gorm:"index;not null" json:"store_id"`
	StampDate time.Time `gorm:"not null" json:"stamp_date"`
	StampedAt time.Time `gorm:"index;not null" json:"stamped_at"`
}

// StoreStampSetting enables the stamp card for a store. Scanning a store
// without one fails.
type StoreStampSetting struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StoreID   uint   `gorm:"uniqueIndex;not null" json:"store_id"`
	Store     *Store `json:"-"`
	MaxStamps int    `gorm:"default:10" json:"max_stamps"`
}

// StoreStampReward pays out when a user's count reaches StampThreshold
// exactly.
type StoreStampReward struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	StoreID           uint       `gorm:"index;not null" json:"store_id"`
	StampThreshold    int        `gorm:"not null" json:"stamp_threshold"`
	RewardType        RewardType `gorm:"size:20;default:coupon" json:"reward_type"`
	RewardCouponID    *uint      `json:"reward_coupon_id"`
	RewardCoupon      *Coupon    `json:"-"`
	RewardServiceDesc string     `gorm:"size:255" json:"reward_service_desc"`
}
