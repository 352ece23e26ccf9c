package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/middleware"
	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/services"
)

const (
	wireLat = 36.5551
	wireLon = 139.8825
)

// newGameRouter mounts the three game endpoints behind a stub auth layer
// that injects the given user, so requests exercise binding and response
// serialization end to end.
func newGameRouter(t *testing.T) (*gin.Engine, *gorm.DB, *models.User) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config.SetForTesting(config.AppConfig{
		JWTSecret:          "test-secret",
		AccessLifetimeSec:  900,
		RefreshLifetimeSec: 14 * 24 * 3600,
		GeofenceRadiusM:    50,
		DailyClearLimit:    5,
		StampCooldownHrs:   4,
		RedisHost:          "127.0.0.1",
		RedisPort:          1,
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
	if err := services.EnsureCatalogs(db); err != nil {
		t.Fatalf("seed catalogs: %v", err)
	}

	user := models.User{Username: "tester", Email: "wire@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	r := gin.New()
	r.Use(func(ctx *gin.Context) {
		var u models.User
		if err := db.Preload("Rank").First(&u, user.ID).Error; err != nil {
			ctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		ctx.Set(middleware.ContextUserKey, &u)
		ctx.Next()
	})
	r.POST("/user-challenges/clear", NewChallengeController(db).Clear)
	r.POST("/stamps/scan", NewStampController(db).Scan)
	r.POST("/coupons/redeem", NewCouponController(db).Redeem)
	return r, db, &user
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var envelope struct {
		Code    int                        `json:"code"`
		Message string                     `json:"message"`
		Data    map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response %s: %v", w.Body.String(), err)
	}
	return envelope.Data
}

func TestClearWireContract(t *testing.T) {
	r, db, _ := newGameRouter(t)

	lat, lon := wireLat, wireLon
	store := models.Store{Name: "Soba House", Latitude: &lat, Longitude: &lon, QRCode: "store-qr"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	challenge := models.Challenge{
		StoreID:      store.ID,
		Title:        "Order the special",
		RewardType:   models.RewardPoints,
		RewardPoints: 15,
		QRCode:       "cq",
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	w := postJSON(t, r, "/user-challenges/clear",
		`{"challenge_id":`+jsonUint(challenge.ID)+`,"qr_code":"cq","lat":36.5551,"lon":139.8825}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	for _, key := range []string{
		"user_challenge_id", "challenge_id", "status", "cleared_at",
		"reward_type", "reward_points", "reward_detail", "reward_granted",
		"user_points", "rank", "rank_id", "rank_multiplier",
		"previous_rank", "previous_rank_id", "rank_up", "new_badges",
	} {
		if _, ok := data[key]; !ok {
			t.Errorf("clear response missing %q; body %s", key, w.Body.String())
		}
	}
	if _, ok := data["points"]; ok {
		t.Error(`clear response carries "points"; the field is named "user_points"`)
	}

	var userPoints int
	if err := json.Unmarshal(data["user_points"], &userPoints); err != nil {
		t.Fatalf("user_points not a number: %v", err)
	}
	if userPoints != 15 {
		t.Errorf("user_points = %d, want 15", userPoints)
	}

	var badges []map[string]any
	if err := json.Unmarshal(data["new_badges"], &badges); err != nil {
		t.Fatalf("new_badges not a list: %v", err)
	}
	if len(badges) != 1 || badges[0]["code"] != "quest_1" {
		t.Errorf("new_badges = %v, want the first-clear badge", badges)
	}
}

func TestClearRequestBindsLatLon(t *testing.T) {
	r, db, _ := newGameRouter(t)

	lat, lon := wireLat, wireLon
	store := models.Store{Name: "Soba House", Latitude: &lat, Longitude: &lon, QRCode: "store-qr"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	challenge := models.Challenge{
		StoreID:      store.ID,
		Title:        "Order the special",
		RewardType:   models.RewardPoints,
		RewardPoints: 15,
		QRCode:       "cq",
	}
	if err := db.Create(&challenge).Error; err != nil {
		t.Fatalf("create challenge: %v", err)
	}

	// Long-form coordinate keys are not part of the contract.
	w := postJSON(t, r, "/user-challenges/clear",
		`{"challenge_id":`+jsonUint(challenge.ID)+`,"qr_code":"cq","latitude":36.5551,"longitude":139.8825}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("latitude/longitude keys bound; status = %d, want 400", w.Code)
	}
}

func TestScanWireContract(t *testing.T) {
	r, db, _ := newGameRouter(t)

	lat, lon := wireLat, wireLon
	store := models.Store{Name: "Soba House", Latitude: &lat, Longitude: &lon, QRCode: "store-qr"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	setting := models.StoreStampSetting{StoreID: store.ID, MaxStamps: 10}
	if err := db.Create(&setting).Error; err != nil {
		t.Fatalf("create setting: %v", err)
	}

	w := postJSON(t, r, "/stamps/scan",
		`{"store_id":`+jsonUint(store.ID)+`,"store_qr":"store-qr"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	for _, key := range []string{
		"store_id", "store_name", "stamps_count", "stamped_at",
		"reward_type", "reward_detail", "new_badges",
	} {
		if _, ok := data[key]; !ok {
			t.Errorf("scan response missing %q; body %s", key, w.Body.String())
		}
	}

	var count int
	if err := json.Unmarshal(data["stamps_count"], &count); err != nil {
		t.Fatalf("stamps_count not a number: %v", err)
	}
	if count != 1 {
		t.Errorf("stamps_count = %d, want 1", count)
	}

	// The old short key must not bind.
	w = postJSON(t, r, "/stamps/scan",
		`{"store_id":`+jsonUint(store.ID)+`,"qr_code":"store-qr"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("qr_code key bound on scan; status = %d, want 400", w.Code)
	}
}

func TestRedeemWireContract(t *testing.T) {
	r, db, user := newGameRouter(t)

	lat, lon := wireLat, wireLon
	store := models.Store{Name: "Soba House", Latitude: &lat, Longitude: &lon, QRCode: "store-qr"}
	if err := db.Create(&store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	coupon := models.Coupon{Title: "One Free Side", Type: models.CouponCommon}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon: %v", err)
	}
	owned := models.UserCoupon{UserID: user.ID, CouponID: coupon.ID}
	if err := db.Create(&owned).Error; err != nil {
		t.Fatalf("grant coupon: %v", err)
	}

	w := postJSON(t, r, "/coupons/redeem",
		`{"coupon_id":`+jsonUint(coupon.ID)+`,"store_qr":"store-qr"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}

	data := decodeData(t, w)
	for _, key := range []string{
		"user_coupon_id", "coupon_id", "coupon_title", "coupon_type",
		"store_id", "store_name", "used_at",
	} {
		if _, ok := data[key]; !ok {
			t.Errorf("redeem response missing %q; body %s", key, w.Body.String())
		}
	}

	var title string
	if err := json.Unmarshal(data["coupon_title"], &title); err != nil {
		t.Fatalf("coupon_title not a string: %v", err)
	}
	if title != "One Free Side" {
		t.Errorf("coupon_title = %q", title)
	}
}

func jsonUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
