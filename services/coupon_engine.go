package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/models"
)

// RedeemResult describes one consumed coupon.
type RedeemResult struct {
	UserCouponID uint
	CouponID     uint
	CouponTitle  string
	CouponType   models.CouponType
	StoreID      uint
	StoreName    string
	UsedAt       time.Time
}

// CouponRedemptionEngine consumes a previously-granted coupon at a store and
// writes the dual usage ledger. The used flag and both ledger rows commit in
// one transaction: all visible or none.
type CouponRedemptionEngine struct {
	db *gorm.DB
}

// NewCouponRedemptionEngine creates a CouponRedemptionEngine.
func NewCouponRedemptionEngine(db *gorm.DB) *CouponRedemptionEngine {
	return &CouponRedemptionEngine{db: db}
}

// Redeem resolves the coupon and the scanning store, checks ownership and the
// store binding, and marks the coupon used exactly once.
func (e *CouponRedemptionEngine) Redeem(user *models.User, couponID uint, storeQR string, now time.Time) (*RedeemResult, error) {
	var coupon models.Coupon
	err := e.db.First(&coupon, couponID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("coupon: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load coupon: %w", err)
	}

	var store models.Store
	err = e.db.Where("qr_code = ?", storeQR).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}

	if coupon.Type == models.CouponStoreSpecific {
		if coupon.StoreID == nil || *coupon.StoreID != store.ID {
			return nil, fmt.Errorf("coupon not valid for this store: %w", ErrInvalidState)
		}
	}

	var owned models.UserCoupon
	err = e.db.Where("user_id = ? AND coupon_id = ?", user.ID, coupon.ID).First(&owned).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("coupon not owned: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load user coupon: %w", err)
	}
	if owned.IsUsed {
		return nil, fmt.Errorf("coupon: %w", ErrAlreadyUsed)
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		// Conditional update so a raced double-redeem flips the flag once.
		res := tx.Model(&models.UserCoupon{}).
			Where("id = ? AND is_used = ?", owned.ID, false).
			Updates(map[string]interface{}{"is_used": true, "used_at": now})
		if res.Error != nil {
			return fmt.Errorf("mark coupon used: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyUsed
		}

		if err := tx.Create(&models.UserCouponUsageHistory{
			UserID:     user.ID,
			CouponID:   coupon.ID,
			StoreID:    store.ID,
			CouponType: coupon.Type,
			UsedAt:     now,
		}).Error; err != nil {
			return fmt.Errorf("write user ledger: %w", err)
		}
		if err := tx.Create(&models.StoreCouponUsageHistory{
			StoreID:    store.ID,
			UserID:     user.ID,
			CouponID:   coupon.ID,
			CouponType: coupon.Type,
			UsedAt:     now,
		}).Error; err != nil {
			return fmt.Errorf("write store ledger: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &RedeemResult{
		UserCouponID: owned.ID,
		CouponID:     coupon.ID,
		CouponTitle:  coupon.Title,
		CouponType:   coupon.Type,
		StoreID:      store.ID,
		StoreName:    store.Name,
		UsedAt:       now,
	}, nil
}

// UserHistory returns the user-side usage ledger, newest first.
func (e *CouponRedemptionEngine) UserHistory(user *models.User) ([]models.UserCouponUsageHistory, error) {
	var entries []models.UserCouponUsageHistory
	err := e.db.Preload("Coupon").Preload("Store").
		Where("user_id = ?", user.ID).
		Order("used_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load usage history: %w", err)
	}
	return entries, nil
}
