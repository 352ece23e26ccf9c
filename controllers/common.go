package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Tjungami/CiquestWebApp/middleware"
	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

// respondServiceError maps an engine failure onto the JSON envelope. The
// wrapped detail goes to the log, not the client.
func respondServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		utils.Error(ctx, http.StatusUnauthorized, 40111, "token has expired")
	case errors.Is(err, services.ErrTokenInvalid):
		utils.Error(ctx, http.StatusUnauthorized, 40112, "invalid token")
	case errors.Is(err, services.ErrUnauthorized):
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
	case errors.Is(err, services.ErrInvalidState):
		utils.Error(ctx, http.StatusBadRequest, 40010, "target is not configured for this operation")
	case errors.Is(err, services.ErrOutOfRange):
		utils.Error(ctx, http.StatusBadRequest, 40020, "not within range of the store")
	case errors.Is(err, services.ErrAlreadyClaimed):
		utils.Error(ctx, http.StatusBadRequest, 40030, "already cleared this challenge today")
	case errors.Is(err, services.ErrAlreadyUsed):
		utils.Error(ctx, http.StatusBadRequest, 40031, "coupon already used")
	case errors.Is(err, services.ErrRateLimited):
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "limit reached, try again later")
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("internal error: %v", err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal error")
	}
}

// mustCurrentUser pulls the authenticated user set by the auth middleware.
func mustCurrentUser(ctx *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return nil, false
	}
	return user, true
}

// badgePayload is the wire shape of a newly granted badge.
type badgePayload struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

func badgePayloads(badges []models.Badge) []badgePayload {
	out := make([]badgePayload, 0, len(badges))
	for _, b := range badges {
		out = append(out, badgePayload{Code: b.Code, Name: b.Name, Category: b.Category})
	}
	return out
}

// invalidateBadgeCache drops the cached badge list after new awards.
func invalidateBadgeCache(userID uint, newBadges []models.Badge) {
	if len(newBadges) > 0 {
		utils.InvalidateByPrefix(badgeCacheKey(userID))
	}
}
