package service

import (
	"testing"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func pricedItem(price string, quantity int) models.OrderItem {
	return models.OrderItem{Price: models.MustMoney(price), Quantity: quantity}
}

func assertMoney(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: want %s got %s", label, want, got.String())
	}
}

func TestRecalculateOrderScenario(t *testing.T) {
	items := []models.OrderItem{pricedItem("20.00", 2), pricedItem("15.00", 1)}
	totals := RecalculateOrder(items, DefaultPricingPolicy())

	assertMoney(t, "subtotal", totals.Subtotal, "55.00")
	assertMoney(t, "tax", totals.TaxAmount, "5.50")
	assertMoney(t, "shipping", totals.ShippingCost, "10.00")
	assertMoney(t, "discount", totals.DiscountAmount, "0")
	assertMoney(t, "total", totals.Total, "70.50")
}

func TestRecalculateOrderEmpty(t *testing.T) {
	totals := RecalculateOrder(nil, DefaultPricingPolicy())
	assertMoney(t, "subtotal", totals.Subtotal, "0")
	assertMoney(t, "shipping", totals.ShippingCost, "0")
	assertMoney(t, "total", totals.Total, "0")
}

func TestRecalculateOrderCapsLineDiscount(t *testing.T) {
	item := pricedItem("4.00", 1)
	item.DiscountAmount = models.MustMoney("9.00")
	totals := RecalculateOrder([]models.OrderItem{item}, PricingPolicy{TaxRate: decimal.Zero, ShippingCost: decimal.Zero})

	assertMoney(t, "discount", totals.DiscountAmount, "4.00")
	assertMoney(t, "total", totals.Total, "0")
}

func TestRecalculateOrderTaxRoundsHalfEven(t *testing.T) {
	totals := RecalculateOrder([]models.OrderItem{pricedItem("0.25", 1)}, DefaultPricingPolicy())
	// 0.25 × 0.10 = 0.025 → 0.02
	assertMoney(t, "tax", totals.TaxAmount, "0.02")
}

func TestOrderTotalsApplyTo(t *testing.T) {
	order := &models.Order{}
	RecalculateOrder([]models.OrderItem{pricedItem("10.00", 3)}, DefaultPricingPolicy()).ApplyTo(order)
	if order.Subtotal.String() != "30.00" || order.TaxAmount.String() != "3.00" || order.Total.String() != "43.00" {
		t.Fatalf("unexpected order totals: %+v", order)
	}
}

func TestNewPricingPolicyFallsBackOnInvalidConfig(t *testing.T) {
	policy := NewPricingPolicy(config.PricingConfig{TaxRate: "abc", ShippingCost: "4.99"})
	assertMoney(t, "tax rate", policy.TaxRate, "0.10")
	assertMoney(t, "shipping", policy.ShippingCost, "4.99")
}

func TestRankLineDiscounts(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	small := *activeDiscount(now, constants.DiscountTypeFixed)
	small.ID = 1
	small.FixedAmount = moneyRef("2.00")

	bigLate := *activeDiscount(now, constants.DiscountTypeFixed)
	bigLate.ID = 3
	bigLate.FixedAmount = moneyRef("5.00")

	bigEarly := *activeDiscount(now, constants.DiscountTypePercentage)
	bigEarly.ID = 2
	bigEarly.Percentage = moneyRef("25")

	minOrder := *activeDiscount(now, constants.DiscountTypeFixed)
	minOrder.ID = 4
	minOrder.FixedAmount = moneyRef("8.00")
	minOrder.MinOrderAmount = models.MustMoney("100.00")

	ranked := rankLineDiscounts([]models.Discount{small, bigLate, bigEarly, minOrder},
		decimal.RequireFromString("10.00"), 2, decimal.RequireFromString("20.00"), now)

	if len(ranked) != 3 {
		t.Fatalf("min order discount should be filtered, got %d candidates", len(ranked))
	}
	wantOrder := []uint{2, 3, 1}
	for i, id := range wantOrder {
		if ranked[i].discount.ID != id {
			t.Fatalf("position %d: want discount %d got %d", i, id, ranked[i].discount.ID)
		}
	}
}
