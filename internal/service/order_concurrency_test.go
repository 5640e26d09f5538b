package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"gorm.io/gorm"
)

// staleCartRepo 模拟并发首次加购：前几次加锁读取看不到已存在的购物车
type staleCartRepo struct {
	repository.OrderRepository
	misses *int32
}

func (r staleCartRepo) WithTx(tx *gorm.DB) repository.OrderRepository {
	return staleCartRepo{OrderRepository: r.OrderRepository.WithTx(tx), misses: r.misses}
}

func (r staleCartRepo) LockOpenCart(userID, cartStatusID uint) (*models.Order, error) {
	if atomic.AddInt32(r.misses, -1) >= 0 {
		return nil, nil
	}
	return r.OrderRepository.LockOpenCart(userID, cartStatusID)
}

func countOpenCarts(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.Order{}).
		Joins("JOIN order_statuses ON order_statuses.id = orders.status_id").
		Where("orders.user_id = ? AND order_statuses.code = ?", userID, constants.OrderStatusCart).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count carts failed: %v", err)
	}
	return count
}

func TestCartCreateRaceMergesIntoExistingCart(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_create_race")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()

	if _, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 2}}, nil); err != nil {
		t.Fatalf("first add failed: %v", err)
	}

	misses := int32(1)
	racing := NewCartService(
		staleCartRepo{OrderRepository: repository.NewOrderRepository(f.db), misses: &misses},
		f.products,
		repository.NewStatusLookupRepository(f.db),
		DefaultPricingPolicy(),
		OrderNumberPolicy{Prefix: "ORD", Digits: 10, MaxAttempts: 5},
		nil,
	)
	order, err := racing.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 3}}, nil)
	if err != nil {
		t.Fatalf("add after lost race should retry and merge, got %v", err)
	}
	if got := countOpenCarts(t, f.db, 1); got != 1 {
		t.Fatalf("user must keep exactly one cart, got %d", got)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 5 {
		t.Fatalf("retry should merge into the existing line, got %+v", order.Items)
	}

	misses = maxCartCreateAttempts
	if _, err := racing.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil); !errors.Is(err, ErrOrderConcurrentUpdate) {
		t.Fatalf("exhausted retries should surface a concurrent update, got %v", err)
	}
}

func TestCheckoutClearsCartOwnerSoUserCanStartNewCart(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_owner_release")
	shirt := f.createProduct(t, "shirt", "20.00")

	first := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	var stored models.Order
	if err := f.db.First(&stored, first.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if stored.CartOwner != nil {
		t.Fatalf("checked-out order should release cart owner, got %v", *stored.CartOwner)
	}

	next, err := f.cart.AddItems(context.Background(), 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("new cart after checkout failed: %v", err)
	}
	if next.ID == first.ID {
		t.Fatalf("new cart should be a new order")
	}
}

func TestConcurrentFirstAddCreatesOneCart(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_concurrent_first_add")
	shirt := f.createProduct(t, "shirt", "20.00")

	const workers = 8
	var (
		wg        sync.WaitGroup
		succeeded int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.cart.AddItems(context.Background(), 2, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
			if err == nil {
				atomic.AddInt32(&succeeded, 1)
				return
			}
			if !errors.Is(err, ErrOrderConcurrentUpdate) {
				t.Errorf("unexpected add error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := countOpenCarts(t, f.db, 2); got != 1 {
		t.Fatalf("concurrent first adds must share one cart, got %d", got)
	}
	cart, err := f.cart.GetCart(2)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Items[0].Quantity != int(succeeded) {
		t.Fatalf("quantity should equal successful adds (%d), got %+v", succeeded, cart.Items)
	}
}

func TestConcurrentCartMutationsStayConsistent(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_concurrent_mutations")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()

	seeded, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("seed cart failed: %v", err)
	}
	itemID := seeded.Items[0].ID

	var (
		wg   sync.WaitGroup
		adds int32
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
			if err == nil {
				atomic.AddInt32(&adds, 1)
				return
			}
			if !errors.Is(err, ErrOrderConcurrentUpdate) {
				t.Errorf("unexpected add error: %v", err)
			}
		}()
	}
	wg.Wait()

	cart, err := f.cart.GetCart(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart.Items[0].Quantity != 1+int(adds) {
		t.Fatalf("quantities should sum: want %d got %d", 1+int(adds), cart.Items[0].Quantity)
	}

	requested := []int{2, 3, 4, 5}
	for _, qty := range requested {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			if _, err := f.cart.UpdateItem(ctx, 1, itemID, qty); err != nil && !errors.Is(err, ErrOrderConcurrentUpdate) {
				t.Errorf("unexpected update error: %v", err)
			}
		}(qty)
	}
	wg.Wait()

	cart, err = f.cart.GetCart(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	line := cart.Items[0]
	if line.Quantity < 2 || line.Quantity > 5 {
		t.Fatalf("final quantity should be one of the requested values, got %d", line.Quantity)
	}
	if !line.Total.Equal(line.LineTotal()) || !cart.Subtotal.Equal(line.Total.Decimal) {
		t.Fatalf("totals out of sync: line=%s subtotal=%s qty=%d", line.Total, cart.Subtotal, line.Quantity)
	}
}

func TestConcurrentCheckoutNeverExceedsUsageLimit(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_concurrent_usage")
	shirt := f.createProduct(t, "shirt", "20.00")
	limit := 3
	limited := f.createDiscount(t, DiscountInput{
		Name:         "first three",
		DiscountType: constants.DiscountTypeFixed,
		FixedAmount:  decimalRef("4.00"),
		ProductIDs:   []uint{shirt.ID},
		UsageLimit:   &limit,
	})

	const buyers = 10
	ctx := context.Background()
	for userID := uint(1); userID <= buyers; userID++ {
		if _, err := f.cart.AddItems(ctx, userID, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, testShipping); err != nil {
			t.Fatalf("add items for user %d failed: %v", userID, err)
		}
	}

	var wg sync.WaitGroup
	for userID := uint(1); userID <= buyers; userID++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			if _, err := f.orders.Checkout(ctx, userID, CheckoutInput{}); err != nil {
				t.Errorf("checkout for user %d failed: %v", userID, err)
			}
		}(userID)
	}
	wg.Wait()

	reloaded, err := f.discounts.Get(testAdmin, limited.ID)
	if err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if reloaded.UsageCount > limit {
		t.Fatalf("usage limit exceeded under contention: usage_count=%d limit=%d", reloaded.UsageCount, limit)
	}

	var discountedLines int64
	if err := f.db.Model(&models.OrderItem{}).Where("discount_id = ?", limited.ID).Count(&discountedLines).Error; err != nil {
		t.Fatalf("count discounted lines failed: %v", err)
	}
	if int(discountedLines) != reloaded.UsageCount {
		t.Fatalf("discounted lines (%d) should match usage_count (%d)", discountedLines, reloaded.UsageCount)
	}
	_, usages, err := f.discounts.ListUsages(testAdmin, repository.DiscountUsageListFilter{})
	if err != nil {
		t.Fatalf("list usages failed: %v", err)
	}
	if int(usages) != reloaded.UsageCount {
		t.Fatalf("usage rows (%d) should match usage_count (%d)", usages, reloaded.UsageCount)
	}
}
