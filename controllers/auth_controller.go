package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// AuthController handles registration, login, Google sign-in, and the
// refresh-token lifecycle.
type AuthController struct {
	db     *gorm.DB
	tokens *services.TokenService
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB, tokens *services.TokenService) *AuthController {
	return &AuthController{db: db, tokens: tokens}
}

type userPayload struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	RankID    *uint     `json:"rank_id"`
	Rank      string    `json:"rank"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

func serializeUser(user *models.User) userPayload {
	payload := userPayload{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		RankID:    user.RankID,
		Points:    user.Points,
		CreatedAt: user.CreatedAt,
	}
	if user.Rank != nil {
		payload.Rank = user.Rank.Name
	}
	return payload
}

// issueSession mints the access/refresh pair for a freshly authenticated user.
func (a *AuthController) issueSession(ctx *gin.Context, user *models.User, status int) {
	access, err := a.tokens.IssueAccessToken(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	refresh, err := a.tokens.IssueRefreshToken(user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to generate token")
		return
	}
	utils.Respond(ctx, status, 0, "success", gin.H{
		"user":    serializeUser(user),
		"access":  access,
		"refresh": refresh,
	})
}

// Register handles local account creation with bcrypt hashing.
func (a *AuthController) Register(ctx *gin.Context) {
	type request struct {
		Username      string `json:"username" binding:"required,min=2,max=64"`
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password" binding:"required,min=6,max=72"`
		CaptchaID     string `json:"captcha_id"`
		CaptchaAnswer string `json:"captcha_answer"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	if config.Get().RegisterCaptchaEnabled {
		if !utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
			utils.Error(ctx, http.StatusBadRequest, 40060, "captcha answer is wrong or expired")
			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var existing models.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		utils.Error(ctx, http.StatusConflict, 40901, "email already exists")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to hash password")
		return
	}

	user := models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        email,
		PasswordHash: hash,
	}
	if err := a.db.Create(&user).Error; err != nil {
		// Unique index on email closes the check-then-create race.
		utils.Error(ctx, http.StatusConflict, 40901, "email already exists")
		return
	}

	a.issueSession(ctx, &user, http.StatusCreated)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64})
}

// Login verifies email+password and returns user, access and refresh tokens.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	var user models.User
	err := a.db.Preload("Rank").
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		First(&user).Error
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "email address or password is incorrect")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "email address or password is incorrect")
		return
	}

	a.issueSession(ctx, &user, http.StatusOK)
}

// GoogleLogin exchanges a Google access token for a verified email and signs
// the user in, creating the account on first sight.
func (a *AuthController) GoogleLogin(ctx *gin.Context) {
	type request struct {
		AccessToken string `json:"access_token" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	info, err := a.fetchGoogleUserInfo(ctx.Request.Context(), req.AccessToken)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "google token verification failed")
		return
	}
	if info.Email == "" || !info.VerifiedEmail {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "google account email is not verified")
		return
	}

	email := strings.ToLower(info.Email)
	var user models.User
	err = a.db.Preload("Rank").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		username := info.Name
		if username == "" {
			username = strings.SplitN(email, "@", 2)[0]
		}
		user = models.User{
			Username: username,
			Email:    email,
			Provider: "google",
		}
		if err := a.db.Create(&user).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create user")
			return
		}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to load user")
		return
	}

	a.issueSession(ctx, &user, http.StatusOK)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (a *AuthController) fetchGoogleUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = 10 * time.Second

	resp, err := client.Get(googleUserInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("userinfo request rejected")
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (a *AuthController) Refresh(ctx *gin.Context) {
	type request struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "refresh is required")
		return
	}

	access, err := a.tokens.Refresh(req.Refresh)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"access": access})
}

// Logout revokes the stored refresh token. Access tokens already issued stay
// valid until their own expiry.
func (a *AuthController) Logout(ctx *gin.Context) {
	type request struct {
		Refresh string `json:"refresh" binding:"required"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "refresh is required")
		return
	}

	if err := a.tokens.Revoke(req.Refresh); err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, ok := mustCurrentUser(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, serializeUser(user))
}
