package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tjungami/CiquestWebApp/models"
)

// BadgeEngine unlocks badges once their condition holds. Awarding is
// write-once per (user, badge): re-evaluating an unlocked badge is a no-op
// and only fresh creations are reported back.
type BadgeEngine struct {
	db *gorm.DB
}

// NewBadgeEngine creates a BadgeEngine.
func NewBadgeEngine(db *gorm.DB) *BadgeEngine {
	return &BadgeEngine{db: db}
}

// counterRule ties a badge code to a lifetime aggregate threshold.
type counterRule struct {
	code      string
	threshold int
}

var (
	clearCountRules = []counterRule{
		{"quest_1", 1}, {"quest_10", 10}, {"quest_50", 50}, {"quest_200", 200},
	}
	stampCountRules = []counterRule{
		{"stamp_5", 5}, {"stamp_20", 20}, {"stamp_100", 100},
	}
	storeCountRules = []counterRule{
		{"shop_3", 3}, {"shop_10", 10}, {"shop_30", 30},
	}
)

// AwardEligible grants every badge whose condition the user currently meets
// and returns only the newly created ones. Thresholds are independent, so a
// single call can grant several badges at once. clearedAt gates the
// streak/time-of-day rules to the clear path; storeID gates the single-store
// stamp rule to scan/clear paths that know the store.
func (e *BadgeEngine) AwardEligible(user *models.User, clearedAt *time.Time, storeID *uint) ([]models.Badge, error) {
	byCode, err := e.loadCatalog()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var granted []models.Badge

	grant := func(code string) error {
		badge, ok := byCode[code]
		if !ok {
			return fmt.Errorf("badge %s missing from catalog", code)
		}
		res := e.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserBadge{
			UserID:    user.ID,
			BadgeID:   badge.ID,
			AwardedAt: now,
		})
		if res.Error != nil {
			return fmt.Errorf("grant badge %s: %w", code, res.Error)
		}
		if res.RowsAffected == 1 {
			granted = append(granted, badge)
		}
		return nil
	}

	grantThresholds := func(rules []counterRule, aggregate int64) error {
		for _, rule := range rules {
			if aggregate >= int64(rule.threshold) {
				if err := grant(rule.code); err != nil {
					return err
				}
			}
		}
		return nil
	}

	var totalClears int64
	err = e.db.Model(&models.UserChallenge{}).
		Where("user_id = ? AND status = ?", user.ID, models.ChallengeCleared).
		Count(&totalClears).Error
	if err != nil {
		return nil, fmt.Errorf("count clears: %w", err)
	}
	if err := grantThresholds(clearCountRules, totalClears); err != nil {
		return nil, err
	}

	var totalStamps int64
	err = e.db.Model(&models.StoreStampHistory{}).
		Where("user_id = ?", user.ID).
		Count(&totalStamps).Error
	if err != nil {
		return nil, fmt.Errorf("count stamps: %w", err)
	}
	if err := grantThresholds(stampCountRules, totalStamps); err != nil {
		return nil, err
	}

	var distinctStores int64
	err = e.db.Model(&models.UserChallenge{}).
		Joins("JOIN challenges ON challenges.id = user_challenges.challenge_id").
		Where("user_challenges.user_id = ? AND user_challenges.status = ?", user.ID, models.ChallengeCleared).
		Distinct("challenges.store_id").
		Count(&distinctStores).Error
	if err != nil {
		return nil, fmt.Errorf("count cleared stores: %w", err)
	}
	if err := grantThresholds(storeCountRules, distinctStores); err != nil {
		return nil, err
	}

	if clearedAt != nil {
		if clearedAt.Hour() < 5 {
			if err := grant("night_owl"); err != nil {
				return nil, err
			}
		}
		streak, err := e.hasClearStreak(user.ID, *clearedAt, 7)
		if err != nil {
			return nil, err
		}
		if streak {
			if err := grant("streak_7"); err != nil {
				return nil, err
			}
		}
	}

	if storeID != nil {
		var stamp models.StoreStamp
		err := e.db.Where("user_id = ? AND store_id = ?", user.ID, *storeID).First(&stamp).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load store stamp: %w", err)
		}
		if err == nil && stamp.StampsCount >= 10 {
			if err := grant("regular_10"); err != nil {
				return nil, err
			}
		}
	}

	return granted, nil
}

// hasClearStreak reports whether every calendar day in the trailing window
// ending at ref (inclusive) has at least one cleared challenge.
func (e *BadgeEngine) hasClearStreak(userID uint, ref time.Time, days int) (bool, error) {
	windowStart := startOfDay(ref).AddDate(0, 0, -(days - 1))

	var rows []models.UserChallenge
	err := e.db.Select("cleared_at").
		Where("user_id = ? AND status = ? AND cleared_at >= ?", userID, models.ChallengeCleared, windowStart).
		Find(&rows).Error
	if err != nil {
		return false, fmt.Errorf("load streak clears: %w", err)
	}

	seen := map[string]bool{}
	for _, row := range rows {
		if row.ClearedAt != nil {
			seen[row.ClearedAt.Format("2006-01-02")] = true
		}
	}
	for i := 0; i < days; i++ {
		day := windowStart.AddDate(0, 0, i)
		if !seen[day.Format("2006-01-02")] {
			return false, nil
		}
	}
	return true, nil
}

func (e *BadgeEngine) loadCatalog() (map[string]models.Badge, error) {
	var badges []models.Badge
	if err := e.db.Find(&badges).Error; err != nil {
		return nil, fmt.Errorf("load badge catalog: %w", err)
	}
	byCode := make(map[string]models.Badge, len(badges))
	for _, b := range badges {
		byCode[b.Code] = b
	}
	return byCode, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
