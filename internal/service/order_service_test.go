package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []NotifyInput
	err   error
	panic bool
}

func (n *recordingNotifier) Send(_ context.Context, input NotifyInput) error {
	if n.panic {
		panic("notifier exploded")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, input)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type orderFixture struct {
	db        *gorm.DB
	cart      *CartService
	orders    *OrderService
	discounts *DiscountService
	products  *repository.GormProductRepository
	notifier  *recordingNotifier
	now       time.Time
}

var (
	testAdmin    = Actor{UserID: 900, Role: constants.RoleAdmin}
	testVendor   = Actor{UserID: 500, Role: constants.RoleVendor}
	testShipping = &models.ShippingInfo{Address: "1 Main St", City: "Springfield", Country: "US"}
)

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if err := models.SeedLookups(db); err != nil {
		t.Fatalf("seed lookups failed: %v", err)
	}
	return db
}

func setupOrderServiceTest(t *testing.T, name string) *orderFixture {
	t.Helper()
	db := openServiceTestDB(t, name)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	lookupRepo := repository.NewStatusLookupRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	usageRepo := repository.NewDiscountUsageRepository(db)
	priceHistoryRepo := repository.NewPriceHistoryRepository(db)
	notifier := &recordingNotifier{}

	cart := NewCartService(orderRepo, productRepo, lookupRepo, DefaultPricingPolicy(), OrderNumberPolicy{Prefix: "ORD", Digits: 10, MaxAttempts: 5}, nil)
	cart.now = func() time.Time { return now }
	orders := NewOrderService(orderRepo, productRepo, lookupRepo, discountRepo, usageRepo, notifier, DefaultPricingPolicy(), nil)
	orders.now = func() time.Time { return now }
	discounts := NewDiscountService(discountRepo, productRepo, categoryRepo, usageRepo, priceHistoryRepo)
	discounts.now = func() time.Time { return now }

	return &orderFixture{
		db:        db,
		cart:      cart,
		orders:    orders,
		discounts: discounts,
		products:  productRepo,
		notifier:  notifier,
		now:       now,
	}
}

func (f *orderFixture) createProduct(t *testing.T, slug, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		VendorID:      testVendor.UserID,
		Title:         "Product " + slug,
		Slug:          slug,
		Price:         models.MustMoney(price),
		StockQuantity: 100,
		IsActive:      true,
	}
	if err := f.products.Create(product, nil); err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func (f *orderFixture) createDiscount(t *testing.T, input DiscountInput) *models.Discount {
	t.Helper()
	if input.StartDate.IsZero() {
		input.StartDate = f.now.Add(-time.Hour)
	}
	if input.EndDate.IsZero() {
		input.EndDate = f.now.Add(24 * time.Hour)
	}
	if input.Name == "" {
		input.Name = "discount"
	}
	d, err := f.discounts.Create(testAdmin, input)
	if err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	return d
}

func (f *orderFixture) checkoutUser(t *testing.T, userID uint, items ...CartItemInput) *models.Order {
	t.Helper()
	if _, err := f.cart.AddItems(context.Background(), userID, items, testShipping); err != nil {
		t.Fatalf("add items failed: %v", err)
	}
	order, err := f.orders.Checkout(context.Background(), userID, CheckoutInput{})
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func decimalRef(raw string) *decimal.Decimal {
	d := decimal.RequireFromString(raw)
	return &d
}

func TestCartAddItemsCreatesCartAndPricesIt(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_add")
	shirt := f.createProduct(t, "shirt", "20.00")
	hat := f.createProduct(t, "hat", "15.00")

	order, err := f.cart.AddItems(context.Background(), 1, []CartItemInput{
		{ProductID: shirt.ID, Quantity: 2},
		{ProductID: hat.ID, Quantity: 1},
	}, nil)
	if err != nil {
		t.Fatalf("add items failed: %v", err)
	}
	if order.Status.Code != constants.OrderStatusCart || order.PaymentStatus.Code != constants.PaymentStatusPending {
		t.Fatalf("unexpected statuses: %s/%s", order.Status.Code, order.PaymentStatus.Code)
	}
	if len(order.OrderNumber) != 13 {
		t.Fatalf("unexpected order number %q", order.OrderNumber)
	}
	if order.Subtotal.String() != "55.00" || order.TaxAmount.String() != "5.50" ||
		order.ShippingCost.String() != "10.00" || order.Total.String() != "70.50" {
		t.Fatalf("unexpected totals: subtotal=%s tax=%s shipping=%s total=%s",
			order.Subtotal, order.TaxAmount, order.ShippingCost, order.Total)
	}
	if len(order.StatusHistory) != 1 || order.StatusHistory[0].Note != constants.OrderNoteCartCreated {
		t.Fatalf("cart creation should record one history row: %+v", order.StatusHistory)
	}
}

func TestCartAddItemsMergesPerProduct(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_merge")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()

	if _, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 2}}, nil); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	merged, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 2}}, nil)
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}

	g := setupOrderServiceTest(t, "cart_merge_single")
	single := g.createProduct(t, "shirt", "20.00")
	once, err := g.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: single.ID, Quantity: 4}}, nil)
	if err != nil {
		t.Fatalf("single add failed: %v", err)
	}

	if len(merged.Items) != 1 || merged.Items[0].Quantity != 4 {
		t.Fatalf("expected one merged line of 4, got %+v", merged.Items)
	}
	if !merged.Total.Equal(once.Total.Decimal) || !merged.Subtotal.Equal(once.Subtotal.Decimal) {
		t.Fatalf("merged cart should price like a single add: %s vs %s", merged.Total, once.Total)
	}
}

func TestCartAddItemsExplicitPriceWins(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_explicit_price")
	shirt := f.createProduct(t, "shirt", "20.00")
	order, err := f.cart.AddItems(context.Background(), 1, []CartItemInput{
		{ProductID: shirt.ID, Quantity: 1, Price: decimalRef("12.00")},
	}, nil)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if order.Items[0].Price.String() != "12.00" {
		t.Fatalf("explicit price should be used, got %s", order.Items[0].Price)
	}
}

func TestCartMergeKeepsFirstPriceSnapshot(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_merge_snapshot")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()

	if _, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1, Price: decimalRef("12.00")}}, nil); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	merged, err := f.cart.AddItems(ctx, 1, []CartItemInput{
		{ProductID: shirt.ID, Quantity: 1, Price: decimalRef("9.00")},
		{ProductID: shirt.ID, Quantity: 1},
	}, nil)
	if err != nil {
		t.Fatalf("merge add failed: %v", err)
	}
	if len(merged.Items) != 1 || merged.Items[0].Quantity != 3 {
		t.Fatalf("expected one merged line of 3, got %+v", merged.Items)
	}
	if merged.Items[0].Price.String() != "12.00" || merged.Items[0].Total.String() != "36.00" {
		t.Fatalf("merge must keep the first snapshot: price=%s total=%s", merged.Items[0].Price, merged.Items[0].Total)
	}
}

func TestCartAddItemsValidation(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_validation")
	shirt := f.createProduct(t, "shirt", "20.00")
	hidden := f.createProduct(t, "hidden", "5.00")
	if err := f.db.Model(&models.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name  string
		items []CartItemInput
		want  error
	}{
		{"no items", nil, ErrItemsRequired},
		{"zero quantity", []CartItemInput{{ProductID: shirt.ID, Quantity: 0}}, ErrInvalidQuantity},
		{"negative price", []CartItemInput{{ProductID: shirt.ID, Quantity: 1, Price: decimalRef("-1")}}, ErrInvalidPrice},
		{"missing product", []CartItemInput{{ProductID: 9999, Quantity: 1}}, ErrProductNotFound},
		{"inactive product", []CartItemInput{{ProductID: hidden.ID, Quantity: 1}}, ErrProductNotFound},
	}
	for _, tc := range cases {
		_, err := f.cart.AddItems(ctx, 1, tc.items, nil)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, err)
		}
	}
	if !errors.Is(ErrInvalidQuantity, ErrValidation) || !errors.Is(ErrProductNotFound, ErrNotFound) {
		t.Fatalf("sentinels should classify by kind")
	}
}

func TestCartUpdateAndRemoveItem(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_update_remove")
	shirt := f.createProduct(t, "shirt", "20.00")
	hat := f.createProduct(t, "hat", "15.00")
	ctx := context.Background()

	order, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}, {ProductID: hat.ID, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	shirtLine := order.Items[0]

	updated, err := f.cart.UpdateItem(ctx, 1, shirtLine.ID, 3)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Subtotal.String() != "75.00" {
		t.Fatalf("subtotal after update want 75.00 got %s", updated.Subtotal)
	}
	if updated.Version <= order.Version {
		t.Fatalf("version should increase on mutation")
	}

	if _, err := f.cart.UpdateItem(ctx, 2, shirtLine.ID, 2); !errors.Is(err, ErrOrderItemNotFound) {
		t.Fatalf("other user should not see the item, got %v", err)
	}
	if _, err := f.cart.UpdateItem(ctx, 1, shirtLine.ID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("zero quantity should fail validation, got %v", err)
	}

	if err := f.cart.RemoveItem(ctx, 1, shirtLine.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	cart, err := f.cart.GetCart(1)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(cart.Items) != 1 || cart.Subtotal.String() != "15.00" {
		t.Fatalf("unexpected cart after remove: items=%d subtotal=%s", len(cart.Items), cart.Subtotal)
	}

	if err := f.cart.RemoveItem(ctx, 1, cart.Items[0].ID); err != nil {
		t.Fatalf("remove last item failed: %v", err)
	}
	empty, err := f.cart.GetCart(1)
	if err != nil {
		t.Fatalf("get empty cart failed: %v", err)
	}
	if !empty.Total.IsZero() || !empty.ShippingCost.IsZero() {
		t.Fatalf("empty cart should cost nothing, got total=%s shipping=%s", empty.Total, empty.ShippingCost)
	}
}

func TestGetCartWithoutCartReturnsEmptySnapshot(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_empty_snapshot")
	cart, err := f.cart.GetCart(77)
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if cart.ID != 0 || len(cart.Items) != 0 || cart.Status.Code != constants.OrderStatusCart {
		t.Fatalf("unexpected snapshot: %+v", cart)
	}
}

func TestCartItemsFrozenAfterCheckout(t *testing.T) {
	f := setupOrderServiceTest(t, "cart_frozen")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})

	if _, err := f.cart.UpdateItem(context.Background(), 1, order.Items[0].ID, 5); !errors.Is(err, ErrOrderNotCart) {
		t.Fatalf("expected ErrOrderNotCart, got %v", err)
	}
	if err := f.cart.RemoveItem(context.Background(), 1, order.Items[0].ID); !errors.Is(err, ErrOrderNotCart) {
		t.Fatalf("expected ErrOrderNotCart on remove, got %v", err)
	}

	next, err := f.cart.AddItems(context.Background(), 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("add after checkout failed: %v", err)
	}
	if next.ID == order.ID {
		t.Fatalf("a new cart should be opened after checkout")
	}
}

func TestCheckoutMovesCartToPending(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_pending")
	shirt := f.createProduct(t, "shirt", "20.00")
	hat := f.createProduct(t, "hat", "15.00")

	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 2}, CartItemInput{ProductID: hat.ID, Quantity: 1})

	if order.Status.Code != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status.Code)
	}
	if order.Total.String() != "70.50" {
		t.Fatalf("expected total 70.50, got %s", order.Total)
	}
	if len(order.StatusHistory) != 2 || order.StatusHistory[1].Note != constants.OrderNoteCreated {
		t.Fatalf("expected cart + created history rows, got %+v", order.StatusHistory)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one notification, got %d", f.notifier.count())
	}
}

func TestCheckoutRequiresShippingAndItems(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_guards")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()

	if _, err := f.orders.Checkout(ctx, 1, CheckoutInput{}); !errors.Is(err, ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
	order, err := f.cart.AddItems(ctx, 1, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := f.orders.Checkout(ctx, 1, CheckoutInput{}); !errors.Is(err, ErrShippingAddressRequired) {
		t.Fatalf("expected shipping error, got %v", err)
	}
	if err := f.cart.RemoveItem(ctx, 1, order.Items[0].ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, err := f.orders.Checkout(ctx, 1, CheckoutInput{Shipping: testShipping}); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
}

func TestCheckoutAppliesBestSingleDiscountPerLine(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_discount")
	shirt := f.createProduct(t, "shirt", "20.00")
	hat := f.createProduct(t, "hat", "15.00")

	f.createDiscount(t, DiscountInput{
		Name:         "ten percent",
		DiscountType: constants.DiscountTypePercentage,
		Percentage:   decimalRef("10"),
		ProductIDs:   []uint{shirt.ID},
	})
	best := f.createDiscount(t, DiscountInput{
		Name:         "five off",
		DiscountType: constants.DiscountTypeFixed,
		FixedAmount:  decimalRef("5.00"),
		ProductIDs:   []uint{shirt.ID},
	})

	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 2}, CartItemInput{ProductID: hat.ID, Quantity: 1})

	if order.DiscountAmount.String() != "5.00" {
		t.Fatalf("discounts must not stack, want 5.00 got %s", order.DiscountAmount)
	}
	// 55.00 + 5.50 + 10.00 - 5.00
	if order.Total.String() != "65.50" {
		t.Fatalf("unexpected total %s", order.Total)
	}
	var shirtLine *models.OrderItem
	for i := range order.Items {
		if order.Items[i].ProductID == shirt.ID {
			shirtLine = &order.Items[i]
		}
	}
	if shirtLine == nil || shirtLine.DiscountID == nil || *shirtLine.DiscountID != best.ID {
		t.Fatalf("shirt line should carry the best discount: %+v", shirtLine)
	}

	usages, total, err := f.discounts.ListUsages(testAdmin, repository.DiscountUsageListFilter{})
	if err != nil {
		t.Fatalf("list usages failed: %v", err)
	}
	if total != 1 || usages[0].DiscountAmount.String() != "5.00" || usages[0].FinalPrice.String() != "35.00" {
		t.Fatalf("unexpected usage rows: %+v", usages)
	}
	reloaded, err := f.discounts.Get(testAdmin, best.ID)
	if err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if reloaded.UsageCount != 1 {
		t.Fatalf("usage_count should be 1, got %d", reloaded.UsageCount)
	}
}

func TestCheckoutNeverExceedsUsageLimit(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_usage_limit")
	shirt := f.createProduct(t, "shirt", "20.00")
	limited := f.createDiscount(t, DiscountInput{
		Name:         "first two",
		DiscountType: constants.DiscountTypeFixed,
		FixedAmount:  decimalRef("3.00"),
		ProductIDs:   []uint{shirt.ID},
		UsageLimit:   intRef(2),
	})
	fallback := f.createDiscount(t, DiscountInput{
		Name:         "one off",
		DiscountType: constants.DiscountTypeFixed,
		FixedAmount:  decimalRef("1.00"),
		ProductIDs:   []uint{shirt.ID},
	})

	for userID := uint(1); userID <= 4; userID++ {
		order := f.checkoutUser(t, userID, CartItemInput{ProductID: shirt.ID, Quantity: 1})
		wantID := limited.ID
		if userID > 2 {
			wantID = fallback.ID
		}
		if order.Items[0].DiscountID == nil || *order.Items[0].DiscountID != wantID {
			t.Fatalf("user %d: expected discount %d, got %+v", userID, wantID, order.Items[0].DiscountID)
		}
	}

	reloaded, err := f.discounts.Get(testAdmin, limited.ID)
	if err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if reloaded.UsageCount != 2 {
		t.Fatalf("usage limit exceeded: usage_count=%d", reloaded.UsageCount)
	}
}

func TestCheckoutRespectsMinOrderAmount(t *testing.T) {
	f := setupOrderServiceTest(t, "checkout_min_order")
	shirt := f.createProduct(t, "shirt", "20.00")
	f.createDiscount(t, DiscountInput{
		Name:           "big spender",
		DiscountType:   constants.DiscountTypeFixed,
		FixedAmount:    decimalRef("10.00"),
		ProductIDs:     []uint{shirt.ID},
		MinOrderAmount: decimalRef("100.00"),
	})

	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	if !order.DiscountAmount.IsZero() {
		t.Fatalf("min order amount not met, discount should be 0, got %s", order.DiscountAmount)
	}
}

func TestSetOrderStatusRecordsOneHistoryRowPerTransition(t *testing.T) {
	f := setupOrderServiceTest(t, "status_history")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	ctx := context.Background()

	steps := []string{"confirmed", "processing", "shipped", "delivered"}
	var msg string
	var err error
	for _, code := range steps {
		order, msg, err = f.orders.SetOrderStatus(ctx, order.ID, testAdmin, code, "")
		if err != nil {
			t.Fatalf("transition to %s failed: %v", code, err)
		}
	}
	if msg != "Order status updated to Delivered" {
		t.Fatalf("unexpected message %q", msg)
	}
	view, err := f.orders.ListStatusHistory(Actor{UserID: 1, Role: constants.RoleCustomer}, order.ID)
	if err != nil {
		t.Fatalf("list history failed: %v", err)
	}
	// cart + pending + 4 transitions
	if view.HistoryCount != 6 {
		t.Fatalf("expected 6 history rows, got %d", view.HistoryCount)
	}
	if view.CurrentStatus != "Delivered" {
		t.Fatalf("unexpected current status %q", view.CurrentStatus)
	}
	if order.DeliveredAt == nil {
		t.Fatalf("delivered_at should be stamped")
	}
	if f.notifier.count() != 1+len(steps) {
		t.Fatalf("expected %d notifications, got %d", 1+len(steps), f.notifier.count())
	}
}

func TestSetOrderStatusRejectsDisallowedTransition(t *testing.T) {
	f := setupOrderServiceTest(t, "status_reject")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	ctx := context.Background()

	if _, _, err := f.orders.SetOrderStatus(ctx, order.ID, testAdmin, "delivered", ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("pending -> delivered should be rejected, got %v", err)
	}
	if _, _, err := f.orders.SetOrderStatus(ctx, order.ID, testAdmin, "nope", ""); !errors.Is(err, ErrOrderStatusNotFound) {
		t.Fatalf("unknown code should be not found, got %v", err)
	}
	if _, _, err := f.orders.SetOrderStatus(ctx, order.ID, Actor{UserID: 1, Role: constants.RoleCustomer}, "confirmed", ""); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("customers cannot set status, got %v", err)
	}
	if _, _, err := f.orders.SetOrderStatus(ctx, 9999, testAdmin, "confirmed", ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order should be not found, got %v", err)
	}
	reloaded, err := f.orders.GetOrderForAdmin(order.ID)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status.Code != constants.OrderStatusPending || len(reloaded.StatusHistory) != 2 {
		t.Fatalf("rejected transitions must not change state: %s, %d rows", reloaded.Status.Code, len(reloaded.StatusHistory))
	}
}

func TestCustomStatusCannotRewindLifecycle(t *testing.T) {
	f := setupOrderServiceTest(t, "status_custom_rewind")
	onHold := &models.OrderStatus{ID: 100, Code: "on_hold", Name: "On Hold", IsActive: true}
	if err := f.db.Create(onHold).Error; err != nil {
		t.Fatalf("create custom status failed: %v", err)
	}
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	ctx := context.Background()

	for _, code := range []string{"confirmed", "shipped", "delivered", "on_hold"} {
		if _, _, err := f.orders.SetOrderStatus(ctx, order.ID, testAdmin, code, ""); err != nil {
			t.Fatalf("transition to %s failed: %v", code, err)
		}
	}
	if _, _, err := f.orders.SetOrderStatus(ctx, order.ID, testAdmin, "pending", ""); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("delivered -> on_hold -> pending must be rejected, got %v", err)
	}
	if _, err := f.orders.CancelOrder(ctx, order.ID, testAdmin, ""); !errors.Is(err, ErrOrderCannotCancel) {
		t.Fatalf("delivered order parked in a custom status must not cancel, got %v", err)
	}
	refunded, _, err := f.orders.SetOrderStatus(ctx, order.ID, testAdmin, "refunded", "")
	if err != nil {
		t.Fatalf("on_hold -> refunded after delivery should be allowed: %v", err)
	}
	if refunded.Status.Code != constants.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %s", refunded.Status.Code)
	}
}

func TestCancelOrderGuards(t *testing.T) {
	f := setupOrderServiceTest(t, "cancel_guards")
	shirt := f.createProduct(t, "shirt", "20.00")
	ctx := context.Background()
	customer := Actor{UserID: 1, Role: constants.RoleCustomer}

	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	if _, err := f.orders.CancelOrder(ctx, order.ID, Actor{UserID: 2, Role: constants.RoleCustomer}, ""); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other customers must not cancel, got %v", err)
	}
	cancelled, err := f.orders.CancelOrder(ctx, order.ID, customer, "")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status.Code != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status.Code)
	}
	last := cancelled.StatusHistory[len(cancelled.StatusHistory)-1]
	if last.Note != constants.OrderNoteCancelledUser {
		t.Fatalf("unexpected cancel note %q", last.Note)
	}
	if _, err := f.orders.CancelOrder(ctx, order.ID, customer, ""); !errors.Is(err, ErrOrderCannotCancel) {
		t.Fatalf("second cancel should fail, got %v", err)
	}

	shipped := f.checkoutUser(t, 3, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	for _, code := range []string{"confirmed", "shipped"} {
		if _, _, err := f.orders.SetOrderStatus(ctx, shipped.ID, testAdmin, code, ""); err != nil {
			t.Fatalf("advance to %s failed: %v", code, err)
		}
	}
	before, _ := f.orders.GetOrderForAdmin(shipped.ID)
	if _, err := f.orders.CancelOrder(ctx, shipped.ID, testAdmin, "too late"); !errors.Is(err, ErrOrderCannotCancel) {
		t.Fatalf("shipped order cannot be cancelled, got %v", err)
	}
	after, _ := f.orders.GetOrderForAdmin(shipped.ID)
	if after.Status.Code != constants.OrderStatusShipped || len(after.StatusHistory) != len(before.StatusHistory) || after.Version != before.Version {
		t.Fatalf("failed cancel must leave state unchanged")
	}
}

func TestSetPaymentStatusStampsPaidAtOnce(t *testing.T) {
	f := setupOrderServiceTest(t, "payment_status")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	ctx := context.Background()
	historyBefore := len(order.StatusHistory)

	paid, err := f.orders.SetPaymentStatus(ctx, order.ID, testAdmin, "paid")
	if err != nil {
		t.Fatalf("set paid failed: %v", err)
	}
	if paid.PaidAt == nil {
		t.Fatalf("paid_at should be stamped")
	}
	firstPaidAt := *paid.PaidAt

	f.orders.now = func() time.Time { return f.now.Add(72 * time.Hour) }
	again, err := f.orders.SetPaymentStatus(ctx, order.ID, testAdmin, "paid")
	if err != nil {
		t.Fatalf("repeat paid failed: %v", err)
	}
	if !again.PaidAt.Equal(firstPaidAt) {
		t.Fatalf("paid_at must not be overwritten: %v vs %v", again.PaidAt, firstPaidAt)
	}
	if len(again.StatusHistory) != historyBefore {
		t.Fatalf("payment changes must not add order history rows")
	}

	if _, err := f.orders.SetPaymentStatus(ctx, order.ID, testAdmin, "refunded"); err != nil {
		t.Fatalf("paid -> refunded failed: %v", err)
	}
	if _, err := f.orders.SetPaymentStatus(ctx, order.ID, testAdmin, "paid"); !errors.Is(err, ErrPaymentStatusInvalid) {
		t.Fatalf("refunded is terminal, got %v", err)
	}
}

func TestNotifierFailureDoesNotFailTransition(t *testing.T) {
	f := setupOrderServiceTest(t, "notify_failure")
	shirt := f.createProduct(t, "shirt", "20.00")
	f.notifier.err = errors.New("queue down")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})

	f.notifier.panic = true
	updated, _, err := f.orders.SetOrderStatus(context.Background(), order.ID, testAdmin, "confirmed", "")
	if err != nil {
		t.Fatalf("transition should succeed despite notifier failure: %v", err)
	}
	if updated.Status.Code != constants.OrderStatusConfirmed {
		t.Fatalf("status should be persisted, got %s", updated.Status.Code)
	}
}

func TestOrderQueries(t *testing.T) {
	f := setupOrderServiceTest(t, "order_queries")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 3})
	customer := Actor{UserID: 1, Role: constants.RoleCustomer}

	items, err := f.orders.ListOrderItems(customer, order.ID)
	if err != nil {
		t.Fatalf("list items failed: %v", err)
	}
	if items.ItemsCount != 1 || items.OrderNumber != order.OrderNumber || items.OrderStatus != "Pending" {
		t.Fatalf("unexpected items view: %+v", items)
	}
	if _, err := f.orders.ListOrderItems(Actor{UserID: 2, Role: constants.RoleCustomer}, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other users should not see the order, got %v", err)
	}

	mine, total, err := f.orders.ListOrdersByUser(repository.OrderListFilter{UserID: 1, Page: 1, PageSize: 10})
	if err != nil || total != 1 || len(mine) != 1 {
		t.Fatalf("list by user: total=%d err=%v", total, err)
	}

	if _, err := f.cart.AddItems(context.Background(), 2, []CartItemInput{{ProductID: shirt.ID, Quantity: 1}}, nil); err != nil {
		t.Fatalf("open second cart failed: %v", err)
	}
	all, total, err := f.orders.ListOrdersForAdmin(repository.OrderListFilter{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 1 || all[0].ID != order.ID {
		t.Fatalf("admin list should hide carts by default: total=%d", total)
	}
}

func TestUpdateOrderDetails(t *testing.T) {
	f := setupOrderServiceTest(t, "order_details")
	shirt := f.createProduct(t, "shirt", "20.00")
	order := f.checkoutUser(t, 1, CartItemInput{ProductID: shirt.ID, Quantity: 1})
	tracking := " 1Z999 "

	updated, err := f.orders.UpdateOrderDetails(context.Background(), order.ID, testAdmin, OrderDetailsInput{TrackingNumber: &tracking})
	if err != nil {
		t.Fatalf("update details failed: %v", err)
	}
	if updated.TrackingNumber != "1Z999" {
		t.Fatalf("unexpected tracking number %q", updated.TrackingNumber)
	}
	if _, err := f.orders.UpdateOrderDetails(context.Background(), order.ID, Actor{UserID: 1}, OrderDetailsInput{}); !errors.Is(err, ErrAdminOnly) {
		t.Fatalf("customers cannot edit details, got %v", err)
	}
}
