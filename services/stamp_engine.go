package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
)

// StampScanResult describes one accepted scan.
type StampScanResult struct {
	StoreID           uint
	StoreName         string
	StampsCount       int
	StampedAt         time.Time
	RewardType        models.RewardType
	RewardDetail      string
	RewardCouponID    *uint
	RewardCouponTitle string
	NewBadges         []models.Badge
}

// StampCardEngine accumulates per-store stamps with a wall-clock cooldown and
// exact-threshold rewards.
type StampCardEngine struct {
	db     *gorm.DB
	badges *BadgeEngine
}

// NewStampCardEngine creates a StampCardEngine.
func NewStampCardEngine(db *gorm.DB) *StampCardEngine {
	return &StampCardEngine{db: db, badges: NewBadgeEngine(db)}
}

// Scan validates the store QR, enforces the cooldown, appends a history row
// and increments the user's stamp count by exactly one. A reward whose
// threshold equals the new count fires on this scan only.
func (e *StampCardEngine) Scan(user *models.User, storeID uint, claimedQR string, now time.Time) (*StampScanResult, error) {
	var store models.Store
	err := e.db.First(&store, storeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("store: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load store: %w", err)
	}
	if store.QRCode == "" || claimedQR != store.QRCode {
		return nil, fmt.Errorf("store qr mismatch: %w", ErrInvalidState)
	}

	var setting models.StoreStampSetting
	err = e.db.Where("store_id = ?", store.ID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("stamp setting: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load stamp setting: %w", err)
	}

	cooldown := time.Duration(config.Get().StampCooldownHrs) * time.Hour
	var latest models.StoreStampHistory
	err = e.db.Where("user_id = ? AND store_id = ?", user.ID, store.ID).
		Order("stamped_at DESC").First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load stamp history: %w", err)
	}
	if err == nil && now.Sub(latest.StampedAt) < cooldown {
		return nil, fmt.Errorf("stamped within cooldown: %w", ErrRateLimited)
	}

	result := &StampScanResult{
		StoreID:   store.ID,
		StoreName: store.Name,
		StampedAt: now,
	}

	err = e.db.Transaction(func(tx *gorm.DB) error {
		history := models.StoreStampHistory{
			UserID:    user.ID,
			StoreID:   store.ID,
			StampDate: startOfDay(now),
			StampedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("append stamp history: %w", err)
		}

		// Atomic insert-or-increment on the (user, store) key.
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "store_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"stamps_count": gorm.Expr("stamps_count + 1"),
			}),
		}).Create(&models.StoreStamp{
			UserID:      user.ID,
			StoreID:     store.ID,
			StampsCount: 1,
		}).Error
		if err != nil {
			return fmt.Errorf("increment stamp count: %w", err)
		}

		var stamp models.StoreStamp
		if err := tx.Where("user_id = ? AND store_id = ?", user.ID, store.ID).First(&stamp).Error; err != nil {
			return fmt.Errorf("reload stamp count: %w", err)
		}
		result.StampsCount = stamp.StampsCount

		// Exact match only: a reward at N fires on the scan that reaches N.
		var reward models.StoreStampReward
		err = tx.Preload("RewardCoupon").
			Where("store_id = ? AND stamp_threshold = ?", store.ID, stamp.StampsCount).
			First(&reward).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load stamp reward: %w", err)
		}

		result.RewardType = reward.RewardType
		switch reward.RewardType {
		case models.RewardCoupon:
			if reward.RewardCouponID != nil {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserCoupon{
					UserID:   user.ID,
					CouponID: *reward.RewardCouponID,
				}).Error; err != nil {
					return fmt.Errorf("grant stamp coupon: %w", err)
				}
				result.RewardCouponID = reward.RewardCouponID
				if reward.RewardCoupon != nil {
					result.RewardCouponTitle = reward.RewardCoupon.Title
					result.RewardDetail = reward.RewardCoupon.Title
				}
			}
		case models.RewardService:
			result.RewardDetail = reward.RewardServiceDesc
		}

		return tx.Model(&stamp).Update("reward_given", true).Error
	})
	if err != nil {
		return nil, err
	}

	newBadges, err := e.badges.AwardEligible(user, nil, &store.ID)
	if err != nil {
		return nil, err
	}
	result.NewBadges = newBadges

	return result, nil
}
