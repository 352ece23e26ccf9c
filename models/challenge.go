package models

import "time"

// RewardType tags what a challenge pays out on clear.
type RewardType string

const (
	RewardPoints  RewardType = "points"
	RewardCoupon  RewardType = "coupon"
	RewardService RewardType = "service"
)

// QuestType distinguishes chain-wide challenges from store-authored ones.
type QuestType string

const (
	QuestCommon        QuestType = "common"
	QuestStoreSpecific QuestType = "store_specific"
)

// ChallengeStatus is the state of a user's progress on a challenge.
type ChallengeStatus string

const (
	ChallengeInProgress ChallengeStatus = "in_progress"
	ChallengeCleared    ChallengeStatus = "cleared"
	ChallengeRetired    ChallengeStatus = "retired"
)

// Challenge is a store-bound quest cleared by scanning its QR code on site.
type Challenge struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StoreID        uint       `gorm:"index;not null" json:"store_id"`
	Store          *Store     `json:"-"`
	Title          string     `gorm:"size:100;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	QuestType      QuestType  `gorm:"size:20;default:store_specific" json:"quest_type"`
	RewardType     RewardType `gorm:"size:20;default:points" json:"reward_type"`
	RewardPoints   int        `json:"reward_points"`
	RewardDetail   string     `gorm:"size:255" json:"reward_detail"`
	RewardCouponID *uint      `json:"reward_coupon_id"`
	RewardCoupon   *Coupon    `json:"-"`
	QRCode         string     `gorm:"size:255" json:"-"`
	IsBanned       bool       `gorm:"default:false" json:"is_banned"`
	CreatedAt      time.Time  `json:"created_at"`
}

// UserChallenge joins a user to a challenge. One row per (user, challenge);
// re-clearing updates the row in place rather than inserting a duplicate.
type UserChallenge struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"uniqueIndex:idx_user_challenge;not null" json:"user_id"`
	ChallengeID     uint            `gorm:"uniqueIndex:idx_user_challenge;not null" json:"challenge_id"`
	Status          ChallengeStatus `gorm:"size:20;default:in_progress" json:"status"`
	ClearedAt       *time.Time      `gorm:"index" json:"cleared_at"`
	ApprovedByStore bool            `gorm:"default:false" json:"approved_by_store"`
}
