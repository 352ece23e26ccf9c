package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenClaims defines the JWT payload: {sub, type, jti?, iat, exp}.
type TokenClaims struct {
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService issues short-lived stateless access tokens and longer-lived
// stateful refresh tokens. Refresh tokens are persisted hash-only; the store
// is authoritative for revocation and expiry.
type TokenService struct {
	db *gorm.DB
}

// NewTokenService creates a TokenService.
func NewTokenService(db *gorm.DB) *TokenService {
	return &TokenService{db: db}
}

// IssueAccessToken signs a stateless access token for the user.
func (s *TokenService) IssueAccessToken(user *models.User) (string, error) {
	cfg := config.Get()
	now := time.Now()
	claims := TokenClaims{
		TokenType: tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.AccessLifetimeSec) * time.Second)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// IssueRefreshToken signs a refresh token and persists its SHA-256 hash.
// All previously non-revoked rows for the user are revoked first, so one
// active session per user holds at the refresh layer. Access tokens already
// in the wild stay valid until their own expiry.
func (s *TokenService) IssueRefreshToken(user *models.User) (string, error) {
	cfg := config.Get()
	now := time.Now()
	exp := now.Add(time.Duration(cfg.RefreshLifetimeSec) * time.Second)
	claims := TokenClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", err
	}

	if err := s.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", user.ID).
		Update("revoked_at", now).Error; err != nil {
		return "", fmt.Errorf("revoke previous refresh tokens: %w", err)
	}

	record := models.RefreshToken{
		UserID:    user.ID,
		TokenHash: HashToken(raw),
		IssuedAt:  now,
		ExpiresAt: exp,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return raw, nil
}

// Refresh verifies a raw refresh token against both its signature and the
// stored record and issues a fresh access token. The refresh token itself is
// not rotated, preserving session continuity.
func (s *TokenService) Refresh(raw string) (string, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return "", err
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", ErrTokenInvalid
	}

	var record models.RefreshToken
	err = s.db.Where("token_hash = ? AND revoked_at IS NULL", HashToken(raw)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("look up refresh token: %w", err)
	}
	// The store wins over the signature on expiry.
	if !time.Now().Before(record.ExpiresAt) {
		return "", ErrTokenExpired
	}

	user, err := s.loadUser(record.UserID)
	if err != nil {
		return "", err
	}
	return s.IssueAccessToken(user)
}

// Revoke marks the stored record for the raw refresh token as revoked.
// Revoking an unknown or already-revoked token is ErrUnauthorized, never a
// crash.
func (s *TokenService) Revoke(raw string) error {
	var record models.RefreshToken
	err := s.db.Where("token_hash = ? AND revoked_at IS NULL", HashToken(raw)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("look up refresh token: %w", err)
	}
	now := time.Now()
	record.RevokedAt = &now
	return s.db.Model(&record).Update("revoked_at", now).Error
}

// ResolveUser verifies an access token and loads its subject with rank
// preloaded. Every authenticated entry point goes through here.
func (s *TokenService) ResolveUser(raw string) (*models.User, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrTokenInvalid
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrUnauthorized
	}
	return s.loadUser(uint(id))
}

func (s *TokenService) parse(raw string) (*TokenClaims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) loadUser(id uint) (*models.User, error) {
	var user models.User
	err := s.db.Preload("Rank").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

// HashToken returns the hex SHA-256 digest persisted in place of raw tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
