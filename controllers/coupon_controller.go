package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

// CouponController exposes coupon redemption and the user-side usage ledger.
type CouponController struct {
	engine *services.CouponRedemptionEngine
}

// NewCouponController creates a CouponController.
func NewCouponController(db *gorm.DB) *CouponController {
	return &CouponController{engine: services.NewCouponRedemptionEngine(db)}
}

// Redeem consumes one owned coupon at the store identified by the scanned QR.
func (c *CouponController) Redeem(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}

	type request struct {
		CouponID uint   `json:"coupon_id" binding:"required"`
		StoreQR  string `json:"store_qr" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	result, err := c.engine.Redeem(user, req.CouponID, req.StoreQR, time.Now())
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"user_coupon_id": result.UserCouponID,
		"coupon_id":      result.CouponID,
		"coupon_title":   utils.SanitizeText(result.CouponTitle),
		"coupon_type":    result.CouponType,
		"store_id":       result.StoreID,
		"store_name":     utils.SanitizeText(result.StoreName),
		"used_at":        result.UsedAt,
	})
}

type couponHistoryPayload struct {
	ID          uint              `json:"id"`
	CouponID    uint              `json:"coupon_id"`
	CouponTitle string            `json:"coupon_title"`
	CouponType  models.CouponType `json:"coupon_type"`
	StoreID     uint              `json:"store_id"`
	StoreName   string            `json:"store_name"`
	UsedAt      time.Time         `json:"used_at"`
}

// History lists the caller's coupon redemptions, newest first.
func (c *CouponController) History(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}

	entries, err := c.engine.UserHistory(user)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	payload := make([]couponHistoryPayload, 0, len(entries))
	for _, e := range entries {
		item := couponHistoryPayload{
			ID:         e.ID,
			CouponID:   e.CouponID,
			CouponType: e.CouponType,
			StoreID:    e.StoreID,
			UsedAt:     e.UsedAt,
		}
		if e.Coupon != nil {
			item.CouponTitle = utils.SanitizeText(e.Coupon.Title)
		}
		if e.Store != nil {
			item.StoreName = utils.SanitizeText(e.Store.Name)
		}
		payload = append(payload, item)
	}
	utils.Success(ctx, gin.H{"history": payload})
}
