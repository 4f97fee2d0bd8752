// Package main provides a CLI tool for seeding the database with demo data
// and printing a development access token.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"erpcore/internal/app"
	"erpcore/internal/config"
	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/internal/core/types"
	"erpcore/internal/domain/auth"
	"erpcore/internal/domain/catalogs/customer"
	"erpcore/internal/domain/catalogs/product"
	"erpcore/internal/domain/documents/purchase"
	"erpcore/internal/domain/registers/stock"
	"erpcore/pkg/logger"
)

const seedUserID = "seed"

type demoProduct struct {
	ref, name, price, minStock, opening string
	service                             bool
}

var demoProducts = []demoProduct{
	{ref: "CHR-OAK", name: "Oak chair", price: "4500", minStock: "5", opening: "40"},
	{ref: "TBL-OAK", name: "Oak table", price: "32000", minStock: "2", opening: "8"},
	{ref: "LMP-DSK", name: "Desk lamp", price: "2800", minStock: "10", opening: "6"},
	{ref: "SRV-ASM", name: "Assembly service", price: "1500", service: true},
}

var demoCustomers = []struct{ name, email, phone string }{
	{"Atlas Mobilier", "achats@atlas-mobilier.dz", "0550 12 34 56"},
	{"Hotel El Djazair", "economat@eldjazair.dz", "021 23 09 33"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID:  seedUserID,
		Email:   "seed@erpcore.local",
		IsAdmin: true,
	})

	if os.Getenv("SEED_DEMO_DATA") != "false" {
		pg, err := app.NewPostgres(ctx, cfg)
		if err != nil {
			log.Fatalw("failed to connect to database", "error", err)
		}
		defer pg.Close()
		log.Info("connected to database")

		if err := seedDemoData(ctx, pg.Services, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	token, err := devToken(cfg)
	if err != nil {
		log.Fatalw("failed to sign development token", "error", err)
	}
	fmt.Println(token)

	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, svc *app.Services, log *logger.Logger) error {
	log.Info("seeding demo data...")

	var created []*product.Product
	for _, dp := range demoProducts {
		p := product.NewProduct(dp.name, dp.ref)
		p.UnitPrice = types.MustMoney(dp.price)
		if dp.service {
			p.Kind = product.KindService
			p.TrackStock = false
		} else {
			p.MinStock = types.MustQuantity(dp.minStock)
		}

		if err := svc.Products.Create(ctx, p); err != nil {
			if apperror.HasCode(err, apperror.CodeDuplicate) {
				log.Infow("product already exists", "reference", dp.ref)
				continue
			}
			return fmt.Errorf("create product %s: %w", dp.ref, err)
		}
		created = append(created, p)

		if dp.opening == "" {
			continue
		}
		if _, err := svc.Stock.Record(ctx, stock.Entry{
			ProductID: p.ID,
			Type:      stock.MovementIn,
			Quantity:  types.MustQuantity(dp.opening),
			Notes:     "opening stock",
		}); err != nil {
			return fmt.Errorf("record opening stock for %s: %w", dp.ref, err)
		}
	}
	log.Infow("products seeded", "created", len(created))
	if len(created) == 0 {
		log.Info("demo data already present")
		return nil
	}

	for _, dc := range demoCustomers {
		c := customer.NewCustomer(dc.name)
		c.Email = dc.email
		c.Phone = dc.phone
		if err := svc.Customers.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer %s: %w", dc.name, err)
		}
		log.Infow("customer seeded", "code", c.Code, "name", c.Name)
	}

	// A pending purchase order restocks the lamps that start below minimum.
	for _, p := range created {
		if p.Reference != "LMP-DSK" {
			continue
		}
		expected := time.Now().AddDate(0, 0, 14)
		po, err := svc.Purchases.Create(ctx, purchase.CreateInput{
			SupplierName:         "Lumiere Import",
			ExpectedDeliveryDate: &expected,
			Items: []purchase.ItemInput{{
				ProductID: p.ID,
				Quantity:  types.MustQuantity("20"),
				UnitPrice: types.MustMoney("1700"),
			}},
		})
		if err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if _, err := svc.Purchases.MarkSent(ctx, po.ID); err != nil {
			return fmt.Errorf("send purchase order: %w", err)
		}
		log.Infow("purchase order seeded", "code", po.Code)
	}
	return nil
}

// devToken signs an admin token with the configured secret.
func devToken(cfg *config.Config) (string, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return "", fmt.Errorf("auth.jwt_secret is required in production")
		}
		secret = auth.DevelopmentSecret
	}
	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         secret,
		Issuer:         cfg.Auth.Issuer,
		AccessTokenTTL: cfg.Auth.TokenTTL,
	})
	token, _, err := jwtService.GenerateAccessToken(auth.Principal{
		UserID:  "dev-admin",
		Email:   "admin@erpcore.local",
		Roles:   []string{"admin"},
		IsAdmin: true,
	})
	return token, err
}
