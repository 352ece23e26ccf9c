package models

import "time"

// UserCouponUsageHistory is the user-facing half of the redemption ledger.
// Rows are only ever inserted, together with the store-facing half, in the
// same transaction.
type UserCouponUsageHistory struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"index;not null" json:"user_id"`
	CouponID   uint       `gorm:"not null" json:"coupon_id"`
	Coupon     *Coupon    `json:"-"`
	StoreID    uint       `gorm:"not null" json:"store_id"`
	Store      *Store     `json:"-"`
	CouponType CouponType `gorm:"size:20" json:"coupon_type"`
	UsedAt     time.Time  `gorm:"index;not null" json:"used_at"`
}

// StoreCouponUsageHistory is the store-facing half of the redemption ledger.
type StoreCouponUsageHistory struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	StoreID    uint       `gorm:"index;not null" json:"store_id"`
	UserID     uint       `gorm:"not null" json:"user_id"`
	CouponID   uint       `gorm:"not null" json:"coupon_id"`
	CouponType CouponType `gorm:"size:20" json:"coupon_type"`
	UsedAt     time.Time  `gorm:"index;not null" json:"used_at"`
}
