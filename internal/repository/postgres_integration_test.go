//go:build integration
// +build integration

package repository

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	all := models.AllModels()
	_ = db.Migrator().DropTable(append(all, "product_categories", "discount_products", "discount_categories")...)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}
	if err := models.SeedLookups(db); err != nil {
		t.Fatalf("seed lookups failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(append(all, "product_categories", "discount_products", "discount_categories")...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresSearchIsCaseInsensitive(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewProductRepository(db)
	product := &models.Product{VendorID: 1, Title: "Rocket Booster", Slug: "pg-rocket", Price: models.MustMoney("99.00"), IsActive: true}
	if err := repo.Create(product, nil); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	rows, total, err := repo.List(ProductListFilter{Page: 1, PageSize: 10, Search: "rocket"})
	if err != nil {
		t.Fatalf("product search failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("ILIKE search want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresUsageLimitUnderContention(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewDiscountRepository(db)
	limit := 5
	now := time.Now().UTC()
	discount := &models.Discount{
		Name:         "pg-limited",
		DiscountType: "fixed",
		FixedAmount:  ptrMoney("1.00"),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		UsageLimit:   &limit,
		IsActive:     true,
		Status:       "active",
		CreatedBy:    1,
	}
	if err := repo.Create(discount, nil, nil); err != nil {
		t.Fatalf("create discount failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TryIncrementUsage(discount.ID)
			if err != nil {
				t.Errorf("increment failed: %v", err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if granted != limit {
		t.Fatalf("want %d redemptions got %d", limit, granted)
	}
}

func TestPostgresLockOpenCartSerializesWriters(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	order := &models.Order{OrderNumber: "ORD9000000001", UserID: 42, StatusID: 8, PaymentStatusID: 1, Version: 1}
	if err := repo.Create(order); err != nil {
		t.Fatalf("create cart failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Transaction(func(tx *gorm.DB) error {
				locked, err := repo.WithTx(tx).LockOpenCart(42, 8)
				if err != nil {
					return err
				}
				locked.UpdatedAt = time.Now().UTC()
				return repo.WithTx(tx).SaveWithVersion(locked, locked.Version)
			})
			if err != nil {
				t.Errorf("locked update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload cart failed: %v", err)
	}
	if got.Version != 6 {
		t.Fatalf("row lock should serialize writers, want version 6 got %d", got.Version)
	}
}

func TestPostgresConcurrentCartCreateKeepsOneCart(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewOrderRepository(db)
	owner := uint(43)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.Transaction(func(tx *gorm.DB) error {
				txRepo := repo.WithTx(tx)
				cart, err := txRepo.LockOpenCart(owner, 8)
				if err != nil || cart != nil {
					return err
				}
				userID := owner
				return txRepo.Create(&models.Order{
					OrderNumber:     fmt.Sprintf("ORD91000000%02d", i),
					UserID:          owner,
					StatusID:        8,
					PaymentStatusID: 1,
					CartOwner:       &userID,
					Version:         1,
				})
			})
			if err != nil {
				if !strings.Contains(strings.ToLower(err.Error()), "duplicate key") {
					t.Errorf("unexpected cart create error: %v", err)
					return
				}
				mu.Lock()
				conflicts++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	var count int64
	if err := db.Model(&models.Order{}).Where("user_id = ? AND status_id = ?", owner, 8).Count(&count).Error; err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("want exactly one open cart got %d (conflicts=%d)", count, conflicts)
	}
}
