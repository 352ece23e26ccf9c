package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/models"
)

// RankEngine walks a user up and down the fixed rank ladder. Decay happens
// lazily on first access in a new evaluation period, one step at most;
// promotion is uncapped within a period.
type RankEngine struct {
	db *gorm.DB
}

// NewRankEngine creates a RankEngine.
func NewRankEngine(db *gorm.DB) *RankEngine {
	return &RankEngine{db: db}
}

// PeriodStart returns the start of the bimonthly evaluation period containing
// t: local midnight on the 1st of the most recent odd-numbered month.
func PeriodStart(t time.Time) time.Time {
	month := t.Month()
	if month%2 == 0 {
		month--
	}
	return time.Date(t.Year(), month, 1, 0, 0, 0, 0, t.Location())
}

// EnsureRank evaluates decay and promotion for the user and persists any
// change in a single write. It returns the (possibly unchanged) current rank
// and the clear count inside the current period. Mutates user in place.
func (e *RankEngine) EnsureRank(user *models.User, now time.Time) (*models.Rank, int, error) {
	ladder, err := loadRankLadder(e.db)
	if err != nil {
		return nil, 0, err
	}

	pos := 0
	if user.RankID != nil {
		for i := range ladder {
			if ladder[i].ID == *user.RankID {
				pos = i
				break
			}
		}
	}

	dirty := user.RankID == nil

	// One-time-per-period step down, applied lazily. LastRankResetAt is
	// advanced to the current period start, so missing several periods
	// still costs a single step.
	periodStart := PeriodStart(now)
	if user.LastRankResetAt == nil || user.LastRankResetAt.Before(periodStart) {
		if pos > 0 {
			pos--
		}
		user.LastRankResetAt = &periodStart
		dirty = true
	}

	var clearCount int64
	err = e.db.Model(&models.UserChallenge{}).
		Where("user_id = ? AND status = ? AND cleared_at >= ?", user.ID, models.ChallengeCleared, periodStart).
		Count(&clearCount).Error
	if err != nil {
		return nil, 0, fmt.Errorf("count period clears: %w", err)
	}

	// Highest rank whose threshold is covered by this period's clears.
	target := 0
	for i := len(ladder) - 1; i >= 0; i-- {
		if int(clearCount) >= ladder[i].ClearThreshold {
			target = i
			break
		}
	}
	if target > pos {
		pos = target
		dirty = true
	}

	current := ladder[pos]
	if user.RankID == nil || *user.RankID != current.ID {
		user.RankID = &current.ID
		dirty = true
	}
	user.Rank = &current

	if dirty {
		err = e.db.Model(user).
			Select("rank_id", "last_rank_reset_at").
			Updates(map[string]interface{}{
				"rank_id":            user.RankID,
				"last_rank_reset_at": user.LastRankResetAt,
			}).Error
		if err != nil {
			return nil, 0, fmt.Errorf("persist rank: %w", err)
		}
	}
	return &current, int(clearCount), nil
}
