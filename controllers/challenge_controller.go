package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

// ChallengeController exposes the clear-challenge endpoint.
type ChallengeController struct {
	engine *services.ChallengeRedemptionEngine
}

// NewChallengeController creates a ChallengeController.
func NewChallengeController(db *gorm.DB) *ChallengeController {
	return &ChallengeController{engine: services.NewChallengeRedemptionEngine(db)}
}

// Clear validates the scanned QR code and the caller's position, then runs
// the full redemption sequence. Responds 201 on a first-time clear and 200
// on a repeat clear of an already known challenge.
func (c *ChallengeController) Clear(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		ChallengeID uint     `json:"challenge_id" binding:"required"`
		QRCode      string   `json:"qr_code" binding:"required"`
		Lat         *float64 `json:"lat" binding:"required"`
		Lon         *float64 `json:"lon" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	result, err := c.engine.Clear(user, req.ChallengeID, req.QRCode, *req.Lat, *req.Lon, time.Now())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	invalidateBadgeCache(user.ID, result.NewBadges)

	payload := gin.H{
		"user_challenge_id":   result.UserChallengeID,
		"challenge_id":        result.ChallengeID,
		"status":              result.Status,
		"cleared_at":          result.ClearedAt,
		"reward_type":         result.RewardType,
		"reward_points":       result.RewardPoints,
		"reward_detail":       utils.SanitizeText(result.RewardDetail),
		"reward_coupon_id":    result.RewardCouponID,
		"reward_coupon_title": utils.SanitizeText(result.RewardCouponTitle),
		"reward_granted":      result.RewardGranted,
		"user_points":         result.UserPoints,
		"rank":                result.Rank,
		"rank_id":             result.RankID,
		"rank_multiplier":     result.RankMultiplier,
		"previous_rank":       result.PreviousRank,
		"previous_rank_id":    result.PreviousRankID,
		"rank_up":             result.RankUp,
		"new_badges":          badgePayloads(result.NewBadges),
	}
	if result.Created {
		utils.Created(ctx, payload)
		return
	}
	utils.Success(ctx, payload)
}
