package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

// StampController exposes the stamp-card scan endpoint.
type StampController struct {
	engine *services.StampCardEngine
}

// NewStampController creates a StampController.
func NewStampController(db *gorm.DB) *StampController {
	return &StampController{engine: services.NewStampCardEngine(db)}
}

// Scan records one stamp for the scanned store.
func (c *StampController) Scan(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		StoreID uint   `json:"store_id" binding:"required"`
		StoreQR string `json:"store_qr" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	result, err := c.engine.Scan(user, req.StoreID, req.StoreQR, time.Now())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	invalidateBadgeCache(user.ID, result.NewBadges)

	utils.Success(ctx, gin.H{
		"store_id":            result.StoreID,
		"store_name":          utils.SanitizeText(result.StoreName),
		"stamps_count":        result.StampsCount,
		"stamped_at":          result.StampedAt,
		"reward_type":         result.RewardType,
		"reward_detail":       utils.SanitizeText(result.RewardDetail),
		"reward_coupon_id":    result.RewardCouponID,
		"reward_coupon_title": utils.SanitizeText(result.RewardCouponTitle),
		"new_badges":          badgePayloads(result.NewBadges),
	})
}
