package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/waretrack/waretrack-backend/internal/catalog"
	"github.com/waretrack/waretrack-backend/internal/users"
	"github.com/waretrack/waretrack-backend/pkg/config"
	"github.com/waretrack/waretrack-backend/pkg/db"
	"github.com/waretrack/waretrack-backend/pkg/enums"
	pkgerrors "github.com/waretrack/waretrack-backend/pkg/errors"
	"github.com/waretrack/waretrack-backend/pkg/logger"
	"github.com/waretrack/waretrack-backend/pkg/migrate"
	"github.com/waretrack/waretrack-backend/pkg/security"
)

// Seeds a local database with an admin user and a handful of products and
// locations so the API is usable right away. Safe to re-run: existing rows
// are left alone.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "seed"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	if cfg.App.IsProd() {
		fmt.Fprintln(os.Stderr, "refusing to seed a production environment")
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	seedUsers(ctx, logg, users.NewRepository(dbClient.DB()), cfg)

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "catalog service", err)

	seedCatalog(ctx, logg, catalogService)

	logg.Info(ctx, "seed complete")
}

func seedUsers(ctx context.Context, logg *logger.Logger, repo *users.Repository, cfg *config.Config) {
	accounts := []struct {
		username string
		password string
		role     enums.UserRole
		fullName string
		email    string
	}{
		{"admin", "admin123!", enums.UserRoleAdmin, "Site Admin", "admin@waretrack.local"},
		{"supervisor", "super123!", enums.UserRoleSupervisor, "Floor Supervisor", "supervisor@waretrack.local"},
		{"clerk", "clerk123!", enums.UserRoleUser, "Warehouse Clerk", "clerk@waretrack.local"},
	}

	for _, account := range accounts {
		uctx := logg.WithField(ctx, "username", account.username)

		if _, err := repo.FindByUsername(ctx, account.username); err == nil {
			logg.Info(uctx, "user already present, skipping")
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logg.Error(uctx, "failed to look up user", err)
			os.Exit(1)
		}

		hash, err := security.HashPassword(account.password, cfg.Password)
		if err != nil {
			logg.Error(uctx, "failed to hash password", err)
			os.Exit(1)
		}

		if _, err := repo.Create(ctx, users.CreateUserDTO{
			Username:     account.username,
			PasswordHash: hash,
			Role:         account.role,
			FullName:     account.fullName,
			Email:        account.email,
		}); err != nil {
			logg.Error(uctx, "failed to create user", err)
			os.Exit(1)
		}
		logg.Info(uctx, "seeded user")
	}
}

func seedCatalog(ctx context.Context, logg *logger.Logger, svc catalog.Service) {
	locations := []catalog.CreateLocationInput{
		{Code: "WH-MAIN", Name: "Main Warehouse", Description: ptr("Primary storage hall")},
		{Code: "WH-COLD", Name: "Cold Storage", Description: ptr("Temperature controlled room")},
		{Code: "SHOP-01", Name: "Shop Floor", Description: ptr("Front of house shelving")},
	}
	for _, input := range locations {
		lctx := logg.WithField(ctx, "code", input.Code)
		if _, err := svc.CreateLocation(ctx, input); err != nil {
			if pkgerrors.As(err).Code() == pkgerrors.CodeDuplicateKey {
				logg.Info(lctx, "location already present, skipping")
				continue
			}
			logg.Error(lctx, "failed to create location", err)
			os.Exit(1)
		}
		logg.Info(lctx, "seeded location")
	}

	products := []catalog.CreateProductInput{
		{Code: "SKU-0001", Name: "Pallet Wrap 500mm", Category: ptr("packaging"), UnitPriceCents: 1250, MinStockLevel: 10, MaxStockLevel: 200},
		{Code: "SKU-0002", Name: "Cardboard Box Medium", Category: ptr("packaging"), UnitPriceCents: 95, MinStockLevel: 50, MaxStockLevel: 1000},
		{Code: "SKU-0003", Name: "Thermal Label Roll", Category: ptr("consumables"), UnitPriceCents: 480, MinStockLevel: 20, MaxStockLevel: 300},
		{Code: "SKU-0004", Name: "Safety Gloves L", Category: ptr("safety"), UnitPriceCents: 320, MinStockLevel: 15, MaxStockLevel: 0},
	}
	for _, input := range products {
		pctx := logg.WithField(ctx, "code", input.Code)
		if _, err := svc.CreateProduct(ctx, input); err != nil {
			if pkgerrors.As(err).Code() == pkgerrors.CodeDuplicateKey {
				logg.Info(pctx, "product already present, skipping")
				continue
			}
			logg.Error(pctx, "failed to create product", err)
			os.Exit(1)
		}
		logg.Info(pctx, "seeded product")
	}
}

func ptr[T any](v T) *T { return &v }

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
