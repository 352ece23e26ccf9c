package models

import "time"

// CouponType controls where a coupon can be redeemed.
type CouponType string

const (
	CouponCommon        CouponType = "common"
	CouponStoreSpecific CouponType = "store_specific"
)

// Coupon is a redeemable benefit. Store-specific coupons may only be consumed
// at their bound store.
type Coupon struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StoreID     *uint      `json:"store_id"`
	Store       *Store     `json:"-"`
	Title       string     `gorm:"size:100;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Type        CouponType `gorm:"size:20;default:common" json:"type"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UserCoupon is ownership of a coupon by a user. Unique per (user, coupon);
// IsUsed flips exactly once on redemption.
type UserCoupon struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"uniqueIndex:idx_user_coupon;not null" json:"user_id"`
	CouponID  uint       `gorm:"uniqueIndex:idx_user_coupon;not null" json:"coupon_id"`
	IsUsed    bool       `gorm:"default:false" json:"is_used"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}
