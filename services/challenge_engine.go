package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
)

// ClearResult describes everything a successful clear granted or changed.
type ClearResult struct {
	UserChallengeID   uint
	ChallengeID       uint
	Status            models.ChallengeStatus
	ClearedAt         time.Time
	Created           bool
	RewardType        models.RewardType
	RewardPoints      int
	RewardDetail      string
	RewardCouponID    *uint
	RewardCouponTitle string
	RewardGranted     bool
	UserPoints        int
	Rank              string
	RankID            uint
	RankMultiplier    float64
	PreviousRank      string
	PreviousRankID    uint
	RankUp            bool
	NewBadges         []models.Badge
}

// ChallengeRedemptionEngine validates and executes a clear-challenge request:
// proof of presence, per-day limits, idempotent clear, reward issuance, and
// derived-state recomputation. The multi-step sequence is not one global
// transaction; every resource-granting step is individually idempotent, so a
// partially completed clear is safe to re-run.
type ChallengeRedemptionEngine struct {
	db     *gorm.DB
	ranks  *RankEngine
	badges *BadgeEngine
}

// NewChallengeRedemptionEngine creates the engine with its collaborators.
func NewChallengeRedemptionEngine(db *gorm.DB) *ChallengeRedemptionEngine {
	return &ChallengeRedemptionEngine{
		db:     db,
		ranks:  NewRankEngine(db),
		badges: NewBadgeEngine(db),
	}
}

// Clear runs the full redemption sequence for one challenge. Mutates user's
// points and rank in place.
func (e *ChallengeRedemptionEngine) Clear(user *models.User, challengeID uint, claimedQR string, lat, lon float64, now time.Time) (*ClearResult, error) {
	cfg := config.Get()

	var challenge models.Challenge
	err := e.db.Preload("Store").Preload("RewardCoupon").First(&challenge, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("challenge: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge: %w", err)
	}
	if challenge.IsBanned {
		return nil, fmt.Errorf("challenge banned: %w", ErrNotFound)
	}

	if challenge.QRCode == "" || claimedQR != challenge.QRCode {
		return nil, fmt.Errorf("challenge qr mismatch: %w", ErrInvalidState)
	}
	if challenge.Store == nil {
		return nil, fmt.Errorf("challenge store unset: %w", ErrInvalidState)
	}
	if challenge.Store.Latitude == nil || challenge.Store.Longitude == nil {
		return nil, fmt.Errorf("store location unset: %w", ErrInvalidState)
	}

	if !WithinRadius(lat, lon, *challenge.Store.Latitude, *challenge.Store.Longitude, cfg.GeofenceRadiusM) {
		return nil, fmt.Errorf("not within %.0fm of the store: %w", cfg.GeofenceRadiusM, ErrOutOfRange)
	}

	todayStart := startOfDay(now)
	tomorrowStart := todayStart.AddDate(0, 0, 1)

	var sameDay int64
	err = e.db.Model(&models.UserChallenge{}).
		Where("user_id = ? AND challenge_id = ? AND status = ? AND cleared_at >= ? AND cleared_at < ?",
			user.ID, challenge.ID, models.ChallengeCleared, todayStart, tomorrowStart).
		Count(&sameDay).Error
	if err != nil {
		return nil, fmt.Errorf("check same-day clear: %w", err)
	}
	if sameDay > 0 {
		return nil, fmt.Errorf("cleared this challenge today: %w", ErrAlreadyClaimed)
	}

	var clearedToday int64
	err = e.db.Model(&models.UserChallenge{}).
		Where("user_id = ? AND status = ? AND cleared_at >= ? AND cleared_at < ?",
			user.ID, models.ChallengeCleared, todayStart, tomorrowStart).
		Count(&clearedToday).Error
	if err != nil {
		return nil, fmt.Errorf("count daily clears: %w", err)
	}
	if clearedToday >= int64(cfg.DailyClearLimit) {
		return nil, fmt.Errorf("daily clear limit reached: %w", ErrRateLimited)
	}

	// Pre-read only decides 200 vs 201; the upsert below is atomic on the
	// (user, challenge) unique key either way.
	var existing models.UserChallenge
	err = e.db.Where("user_id = ? AND challenge_id = ?", user.ID, challenge.ID).First(&existing).Error
	created := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load user challenge: %w", err)
	}

	err = e.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     models.ChallengeCleared,
			"cleared_at": now,
		}),
	}).Create(&models.UserChallenge{
		UserID:      user.ID,
		ChallengeID: challenge.ID,
		Status:      models.ChallengeCleared,
		ClearedAt:   &now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("upsert clear: %w", err)
	}

	var userChallenge models.UserChallenge
	if err := e.db.Where("user_id = ? AND challenge_id = ?", user.ID, challenge.ID).First(&userChallenge).Error; err != nil {
		return nil, fmt.Errorf("reload user challenge: %w", err)
	}

	previous := e.previousRank(user)
	currentRank, _, err := e.ranks.EnsureRank(user, now)
	if err != nil {
		return nil, err
	}

	result := &ClearResult{
		UserChallengeID: userChallenge.ID,
		ChallengeID:     challenge.ID,
		Status:          userChallenge.Status,
		ClearedAt:       now,
		Created:         created,
		RewardType:      challenge.RewardType,
		Rank:            currentRank.Name,
		RankID:          currentRank.ID,
		RankMultiplier:  currentRank.RewardMultiplier,
		PreviousRank:    previous.Name,
		PreviousRankID:  previous.ID,
		RankUp:          currentRank.Position > previous.Position,
	}

	if err := e.grantReward(user, &challenge, currentRank, result); err != nil {
		return nil, err
	}
	result.UserPoints = user.Points

	newBadges, err := e.badges.AwardEligible(user, &now, &challenge.StoreID)
	if err != nil {
		return nil, err
	}
	result.NewBadges = newBadges

	return result, nil
}

// grantReward dispatches on the challenge's reward type. Each branch guards
// its own resource against double-granting: points only move on this clear,
// coupons are insert-or-ignore on the ownership key, service rewards have no
// persisted side effect.
func (e *ChallengeRedemptionEngine) grantReward(user *models.User, challenge *models.Challenge, rank *models.Rank, result *ClearResult) error {
	switch challenge.RewardType {
	case models.RewardPoints:
		if challenge.RewardPoints > 0 {
			awarded := int(math.Round(float64(challenge.RewardPoints) * rank.RewardMultiplier))
			user.Points += awarded
			if err := e.db.Model(user).Update("points", user.Points).Error; err != nil {
				return fmt.Errorf("add points: %w", err)
			}
			result.RewardPoints = awarded
			result.RewardGranted = true
		}
	case models.RewardCoupon:
		if challenge.RewardCouponID != nil {
			res := e.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.UserCoupon{
				UserID:   user.ID,
				CouponID: *challenge.RewardCouponID,
			})
			if res.Error != nil {
				return fmt.Errorf("grant coupon: %w", res.Error)
			}
			result.RewardGranted = res.RowsAffected == 1
			result.RewardCouponID = challenge.RewardCouponID
			if challenge.RewardCoupon != nil {
				result.RewardCouponTitle = challenge.RewardCoupon.Title
			}
		}
	case models.RewardService:
		// Fulfilled by a human at the counter; nothing to persist.
		result.RewardGranted = true
	}

	result.RewardDetail = challenge.RewardDetail
	if result.RewardDetail == "" && challenge.RewardCoupon != nil {
		result.RewardDetail = challenge.RewardCoupon.Title
	}
	return nil
}

// previousRank resolves the rank the user held before this clear, falling
// back to the bottom of the ladder for first-time users.
func (e *ChallengeRedemptionEngine) previousRank(user *models.User) models.Rank {
	if user.Rank != nil {
		return *user.Rank
	}
	if user.RankID != nil {
		var rank models.Rank
		if err := e.db.First(&rank, *user.RankID).Error; err == nil {
			return rank
		}
	}
	ladder, err := loadRankLadder(e.db)
	if err != nil {
		return models.Rank{}
	}
	return ladder[0]
}
