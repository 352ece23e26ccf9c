package services

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tjungami/CiquestWebApp/models"
)

// rankDef is one entry of the fixed ascending rank ladder.
type rankDef struct {
	Name       string
	Threshold  int
	Multiplier float64
}

// The ladder is ordered by clear threshold; position is the index. The bottom
// rank must have threshold 0 and multiplier 1.0.
var rankCatalog = []rankDef{
	{Name: "Bronze", Threshold: 0, Multiplier: 1.0},
	{Name: "Silver", Threshold: 25, Multiplier: 1.1},
	{Name: "Gold", Threshold: 50, Multiplier: 1.2},
	{Name: "Legend", Threshold: 100, Multiplier: 1.35},
	{Name: "Elite", Threshold: 200, Multiplier: 1.5},
}

type badgeDef struct {
	Code     string
	Name     string
	Category string
	Hidden   bool
}

var badgeCatalog = []badgeDef{
	{Code: "quest_1", Name: "First Clear", Category: "quest"},
	{Code: "quest_10", Name: "Quest Veteran", Category: "quest"},
	{Code: "quest_50", Name: "Quest Master", Category: "quest"},
	{Code: "quest_200", Name: "Quest Legend", Category: "quest"},
	{Code: "stamp_5", Name: "Stamp Collector", Category: "stamp"},
	{Code: "stamp_20", Name: "Stamp Enthusiast", Category: "stamp"},
	{Code: "stamp_100", Name: "Stamp Completionist", Category: "stamp"},
	{Code: "shop_3", Name: "Explorer", Category: "store"},
	{Code: "shop_10", Name: "Wanderer", Category: "store"},
	{Code: "shop_30", Name: "Pilgrim", Category: "store"},
	{Code: "night_owl", Name: "Night Owl", Category: "hidden", Hidden: true},
	{Code: "streak_7", Name: "One Week Streak", Category: "hidden", Hidden: true},
	{Code: "regular_10", Name: "Regular Customer", Category: "hidden", Hidden: true},
}

// EnsureCatalogs upserts the rank ladder and the badge catalog by natural key.
// Safe to run on every boot: definitions are corrected in place, never
// duplicated, and request-handling code paths never touch them.
func EnsureCatalogs(db *gorm.DB) error {
	for i, def := range rankCatalog {
		rank := models.Rank{
			Name:             def.Name,
			Position:         i,
			ClearThreshold:   def.Threshold,
			RewardMultiplier: def.Multiplier,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"position", "clear_threshold", "reward_multiplier"}),
		}).Create(&rank).Error
		if err != nil {
			return fmt.Errorf("ensure rank %s: %w", def.Name, err)
		}
	}

	for _, def := range badgeCatalog {
		badge := models.Badge{
			Code:     def.Code,
			Name:     def.Name,
			Category: def.Category,
			IsHidden: def.Hidden,
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "category", "is_hidden"}),
		}).Create(&badge).Error
		if err != nil {
			return fmt.Errorf("ensure badge %s: %w", def.Code, err)
		}
	}
	return nil
}

// loadRankLadder returns the seeded ranks ordered bottom to top.
func loadRankLadder(db *gorm.DB) ([]models.Rank, error) {
	var ranks []models.Rank
	if err := db.Order("position ASC").Find(&ranks).Error; err != nil {
		return nil, fmt.Errorf("load rank ladder: %w", err)
	}
	if len(ranks) == 0 {
		return nil, fmt.Errorf("rank ladder is empty; catalogs not seeded")
	}
	return ranks, nil
}
