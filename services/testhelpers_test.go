package services

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
)

// openTestDB opens an in-memory SQLite database with all tables migrated and
// the rank/badge catalogs seeded.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	config.SetForTesting(config.AppConfig{
		JWTSecret:          "test-secret",
		AccessLifetimeSec:  900,
		RefreshLifetimeSec: 14 * 24 * 3600,
		GeofenceRadiusM:    50,
		DailyClearLimit:    5,
		StampCooldownHrs:   4,
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Rank{},
		&models.Store{},
		&models.Challenge{},
		&models.UserChallenge{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.UserCouponUsageHistory{},
		&models.StoreCouponUsageHistory{},
		&models.Badge{},
		&models.UserBadge{},
		&models.StoreStamp{},
		&models.StoreStampHistory{},
		&models.StoreStampSetting{},
		&models.StoreStampReward{},
		&models.RefreshToken{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	if err := EnsureCatalogs(db); err != nil {
		t.Fatalf("seed catalogs: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := models.User{Username: "tester", Email: email}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

func floatPtr(v float64) *float64 { return &v }

// createTestStore seeds a store at the given coordinates with a known QR.
func createTestStore(t *testing.T, db *gorm.DB, name, qr string, lat, lon float64) *models.Store {
	t.Helper()
	store := models.Store{
		Name:      name,
		Latitude:  floatPtr(lat),
		Longitude: floatPtr(lon),
		QRCode:    qr,
	}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return &store
}

// createTestChallenge seeds a points-rewarding challenge at the store.
func createTestChallenge(t *testing.T, db *gorm.DB, store *models.Store, qr string, points int) *models.Challenge {
	t.Helper()
	challenge := models.Challenge{
		StoreID:      store.ID,
		Title:        "Order the daily special",
		RewardType:   models.RewardPoints,
		RewardPoints: points,
		QRCode:       qr,
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return &challenge
}

// seedClears inserts n cleared user_challenge rows at clearedAt, each against
// its own synthetic challenge on the store.
func seedClears(t *testing.T, db *gorm.DB, user *models.User, store *models.Store, n int, clearedAt time.Time) {
	t.Helper()
	for i := 0; i < n; i++ {
		challenge := models.Challenge{
			StoreID:      store.ID,
			Title:        "seeded",
			RewardType:   models.RewardPoints,
			RewardPoints: 1,
			QRCode:       "seed-qr",
		}
		if err := db.Create(&challenge).Error; err != nil {
			t.Fatalf("create seeded challenge: %v", err)
		}
		row := models.UserChallenge{
			UserID:      user.ID,
			ChallengeID: challenge.ID,
			Status:      models.ChallengeCleared,
			ClearedAt:   &clearedAt,
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("create seeded clear: %v", err)
		}
	}
}
