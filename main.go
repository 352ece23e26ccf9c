package main

import (
	"github.com/Tjungami/CiquestWebApp/config"
	"github.com/Tjungami/CiquestWebApp/models"
	"github.com/Tjungami/CiquestWebApp/routes"
	"github.com/Tjungami/CiquestWebApp/services"
	"github.com/Tjungami/CiquestWebApp/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
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
	)

	// Seed the rank ladder and badge catalog, correcting drifted rows.
	if err := services.EnsureCatalogs(db); err != nil {
		utils.Sugar.Fatalf("seed catalogs: %v", err)
	}

	r := routes.SetupRouter(db)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
