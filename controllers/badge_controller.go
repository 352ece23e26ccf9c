package controllers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/utils"
)

const badgeCacheTTL = 10 * time.Minute

func badgeCacheKey(userID uint) string {
	return fmt.Sprintf("cache:user:badges:%d", userID)
}

// BadgeController lists the caller's unlocked badges.
type BadgeController struct {
	db *gorm.DB
}

// NewBadgeController creates a BadgeController.
func NewBadgeController(db *gorm.DB) *BadgeController {
	return &BadgeController{db: db}
}

type userBadgePayload struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	IsHidden  bool      `json:"is_hidden"`
	AwardedAt time.Time `json:"awarded_at"`
}

// ListMine returns the unlocked badges for the authenticated user, oldest
// award first. The list is cached per user and invalidated on new awards.
func (c *BadgeController) ListMine(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}

	key := badgeCacheKey(user.ID)
	if b, hit := utils.CacheGetBytes(key); hit {
		var cached []userBadgePayload
		if err := json.Unmarshal(b, &cached); err == nil {
			utils.Success(ctx, gin.H{"badges": cached})
			return
		}
	}

	var rows []models.UserBadge
	err := c.db.Preload("Badge").
		Where("user_id = ?", user.ID).
		Order("awarded_at ASC").
		Find(&rows).Error
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	payload := make([]userBadgePayload, 0, len(rows))
	for _, row := range rows {
		if row.Badge == nil {
			continue
		}
		payload = append(payload, userBadgePayload{
			Code:      row.Badge.Code,
			Name:      row.Badge.Name,
			Category:  row.Badge.Category,
			IsHidden:  row.Badge.IsHidden,
			AwardedAt: row.AwardedAt,
		})
	}

	utils.CacheSetJSON(key, payload, badgeCacheTTL)
	utils.Success(ctx, gin.H{"badges": payload})
}
