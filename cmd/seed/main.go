package main

import (
	"flag"
	"time"

	"github.com/storefront-next/internal/app"
	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	demoAdminID  uint = 1
	demoVendorID uint = 2
	demoUserID   uint = 3
)

type productSeed struct {
	Title    string
	Slug     string
	Price    string
	Stock    int
	Category string
}

func main() {
	var withTokens bool
	flag.BoolVar(&withTokens, "tokens", true, "输出开发用访问令牌")
	flag.Parse()

	cfg := config.Load()
	cfg.Queue.Enabled = false
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()

	if err := app.InitDatabase(cfg); err != nil {
		log.Fatalw("seed_database_init_failed", "error", err)
	}
	container, err := provider.NewContainer(cfg, models.DB)
	if err != nil {
		log.Fatalw("seed_container_init_failed", "error", err)
	}
	defer container.Close()

	categoryIDs := seedCategories(container, log)
	productIDs := seedProducts(container, log, categoryIDs)
	seedDiscount(container, log, productIDs)

	if withTokens {
		for _, item := range []struct {
			userID uint
			role   string
		}{
			{demoAdminID, constants.RoleAdmin},
			{demoVendorID, constants.RoleVendor},
			{demoUserID, constants.RoleCustomer},
		} {
			token, expiresAt, err := container.Tokens.Generate(item.userID, item.role)
			if err != nil {
				log.Fatalw("seed_token_failed", "role", item.role, "error", err)
			}
			log.Infow("seed_dev_token", "user_id", item.userID, "role", item.role, "expires_at", expiresAt, "token", token)
		}
	}
}

func seedCategories(c *provider.Container, log *zap.SugaredLogger) map[string]uint {
	names := []string{"Electronics", "Home Office", "Accessories"}
	ids := make(map[string]uint, len(names))
	for _, name := range names {
		existing, err := c.CategoryRepo.GetBySlug(slug.Make(name))
		if err != nil {
			log.Warnw("seed_category_lookup_failed", "name", name, "error", err)
			continue
		}
		if existing != nil {
			ids[name] = existing.ID
			log.Infow("seed_category_exists", "slug", existing.Slug)
			continue
		}
		category, err := c.CategoryService.Create(service.CategoryInput{Name: name})
		if err != nil {
			log.Warnw("seed_category_failed", "name", name, "error", err)
			continue
		}
		ids[name] = category.ID
		log.Infow("seed_category_created", "slug", category.Slug)
	}
	return ids
}

func seedProducts(c *provider.Container, log *zap.SugaredLogger, categoryIDs map[string]uint) []uint {
	vendor := service.Actor{UserID: demoVendorID, Role: constants.RoleVendor}
	seeds := []productSeed{
		{Title: "Mechanical Keyboard", Slug: "mechanical-keyboard", Price: "89.90", Stock: 40, Category: "Electronics"},
		{Title: "Standing Desk", Slug: "standing-desk", Price: "349.00", Stock: 12, Category: "Home Office"},
		{Title: "USB-C Hub", Slug: "usb-c-hub", Price: "39.50", Stock: 100, Category: "Accessories"},
	}
	ids := make([]uint, 0, len(seeds))
	for _, seed := range seeds {
		existing, err := c.ProductRepo.GetBySlug(seed.Slug)
		if err != nil {
			log.Warnw("seed_product_lookup_failed", "slug", seed.Slug, "error", err)
			continue
		}
		if existing != nil {
			ids = append(ids, existing.ID)
			log.Infow("seed_product_exists", "slug", seed.Slug)
			continue
		}
		input := service.ProductInput{
			Title:         seed.Title,
			Slug:          seed.Slug,
			Price:         decimal.RequireFromString(seed.Price),
			StockQuantity: seed.Stock,
		}
		if id, ok := categoryIDs[seed.Category]; ok {
			input.CategoryIDs = []uint{id}
		}
		product, err := c.ProductService.Create(vendor, input)
		if err != nil {
			log.Warnw("seed_product_failed", "slug", seed.Slug, "error", err)
			continue
		}
		ids = append(ids, product.ID)
		log.Infow("seed_product_created", "slug", product.Slug, "price", product.Price.String())
	}
	return ids
}

func seedDiscount(c *provider.Container, log *zap.SugaredLogger, productIDs []uint) {
	if len(productIDs) == 0 {
		return
	}
	vendor := service.Actor{UserID: demoVendorID, Role: constants.RoleVendor}
	existing, _, err := c.DiscountService.List(vendor, repository.DiscountListFilter{Page: 1, PageSize: 1})
	if err != nil {
		log.Warnw("seed_discount_lookup_failed", "error", err)
		return
	}
	if len(existing) > 0 {
		log.Infow("seed_discount_exists", "discount_id", existing[0].ID)
		return
	}
	percentage := decimal.NewFromInt(15)
	now := time.Now().UTC()
	discount, err := c.DiscountService.Create(vendor, service.DiscountInput{
		Name:         "Launch Week 15%",
		DiscountType: constants.DiscountTypePercentage,
		Percentage:   &percentage,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.AddDate(0, 0, 7),
		ProductIDs:   productIDs[:1],
	})
	if err != nil {
		log.Warnw("seed_discount_failed", "error", err)
		return
	}
	log.Infow("seed_discount_created", "discount_id", discount.ID, "status", discount.Status)
}
