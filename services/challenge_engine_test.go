package services

import (
	"errors"
	"testing"
	"time"

	"github.com/Tjungami/CiquestWebApp/models"
)

const (
	testLat = 35.6812
	testLon = 139.7671
)

func TestClearFirstTime(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "clear@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
	result, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, now)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}

	if !result.Created {
		t.Error("first clear should report a newly created row")
	}
	if result.Status != models.ChallengeCleared {
		t.Errorf("status = %s, want cleared", result.Status)
	}
	// Bronze multiplier is 1.0, so 15 base points land unchanged.
	if result.RewardPoints != 15 {
		t.Errorf("reward points = %d, want 15", result.RewardPoints)
	}
	if !result.RewardGranted {
		t.Error("points reward not marked granted")
	}
	if result.UserPoints != 15 {
		t.Errorf("user points = %d, want 15", result.UserPoints)
	}
	if result.Rank != "Bronze" {
		t.Errorf("rank = %s, want Bronze", result.Rank)
	}
	if !badgeCodes(result.NewBadges)["quest_1"] {
		t.Error("quest_1 badge not granted on first clear")
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.Points != 15 {
		t.Errorf("persisted points = %d, want 15", reloaded.Points)
	}
}

func TestClearRankMultiplierRounds(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "mult@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	// Mid-period so the seeded clears land on an earlier day than now.
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.Local)
	periodStart := PeriodStart(now)
	user.LastRankResetAt = &periodStart
	if err := db.Model(user).Update("last_rank_reset_at", periodStart).Error; err != nil {
		t.Fatalf("set reset marker: %v", err)
	}
	// 25 prior clears this period promote to Silver (x1.1) on this clear.
	seedClears(t, db, user, store, 25, periodStart.Add(time.Hour))

	result, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, now)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if result.Rank != "Silver" {
		t.Fatalf("rank = %s, want Silver", result.Rank)
	}
	if !result.RankUp {
		t.Error("promotion on this clear should set rank_up")
	}
	// round(15 * 1.1) = 17
	if result.RewardPoints != 17 {
		t.Errorf("reward points = %d, want 17", result.RewardPoints)
	}
}

func TestClearUnknownChallenge(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "missing@example.com")

	_, err := engine.Clear(user, 9999, "qr", testLat, testLon, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("clear unknown challenge = %v, want ErrNotFound", err)
	}
}

func TestClearBannedChallenge(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "banned@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)
	if err := db.Model(challenge).Update("is_banned", true).Error; err != nil {
		t.Fatalf("ban challenge: %v", err)
	}

	_, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("clear banned challenge = %v, want ErrNotFound", err)
	}
}

func TestClearQRMismatch(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "qr@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	_, err := engine.Clear(user, challenge.ID, "stolen-qr", testLat, testLon, time.Now())
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("clear with wrong qr = %v, want ErrInvalidState", err)
	}
}

func TestClearStoreWithoutCoordinates(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "coords@example.com")

	store := models.Store{Name: "Unmapped", QRCode: "unmapped-qr"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	challenge := createTestChallenge(t, db, &store, "challenge-qr", 15)

	_, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, time.Now())
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("clear at unmapped store = %v, want ErrInvalidState", err)
	}
}

func TestClearOutsideGeofence(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "far@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	// ~111m north of the store against a 50m radius.
	_, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat+0.001, testLon, time.Now())
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("clear outside geofence = %v, want ErrOutOfRange", err)
	}
}

func TestClearSameChallengeSameDay(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "sameday@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
	if _, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, now); err != nil {
		t.Fatalf("first clear: %v", err)
	}

	_, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, now.Add(2*time.Hour))
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("same-day repeat = %v, want ErrAlreadyClaimed", err)
	}
}

func TestClearAgainNextDayUpdatesInPlace(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "nextday@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)
	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)

	day1 := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
	first, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, day1)
	if err != nil {
		t.Fatalf("first clear: %v", err)
	}

	second, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("next-day clear: %v", err)
	}
	if second.Created {
		t.Error("re-clear must report the existing row, not a new one")
	}
	if second.UserChallengeID != first.UserChallengeID {
		t.Error("re-clear created a second user_challenge row")
	}

	var rows int64
	db.Model(&models.UserChallenge{}).
		Where("user_id = ? AND challenge_id = ?", user.ID, challenge.ID).
		Count(&rows)
	if rows != 1 {
		t.Errorf("user_challenge rows = %d, want 1", rows)
	}
}

func TestClearDailyLimit(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "limit@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)

	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
	// Five distinct clears today exhaust the budget.
	seedClears(t, db, user, store, 5, now)

	challenge := createTestChallenge(t, db, store, "challenge-qr", 15)
	_, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, now.Add(time.Hour))
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("clear past daily limit = %v, want ErrRateLimited", err)
	}
}

func TestClearCouponRewardGrantedOnce(t *testing.T) {
	db := openTestDB(t)
	engine := NewChallengeRedemptionEngine(db)
	user := createTestUser(t, db, "couponreward@example.com")
	store := createTestStore(t, db, "Ramen Shop", "store-qr", testLat, testLon)

	coupon := models.Coupon{Title: "Free Gyoza", Type: models.CouponCommon}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	challenge := models.Challenge{
		StoreID:        store.ID,
		Title:          "Collect the set",
		RewardType:     models.RewardCoupon,
		RewardCouponID: &coupon.ID,
		QRCode:         "challenge-qr",
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	day1 := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
	first, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, day1)
	if err != nil {
		t.Fatalf("first clear: %v", err)
	}
	if !first.RewardGranted {
		t.Error("coupon not granted on first clear")
	}
	if first.RewardDetail != "Free Gyoza" {
		t.Errorf("reward detail = %q, want coupon title fallback", first.RewardDetail)
	}

	second, err := engine.Clear(user, challenge.ID, "challenge-qr", testLat, testLon, day1.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("next-day clear: %v", err)
	}
	if second.RewardGranted {
		t.Error("coupon granted twice for the same challenge")
	}

	var owned int64
	db.Model(&models.UserCoupon{}).
		Where("user_id = ? AND coupon_id = ?", user.ID, coupon.ID).
		Count(&owned)
	if owned != 1 {
		t.Errorf("user_coupon rows = %d, want 1", owned)
	}
}
