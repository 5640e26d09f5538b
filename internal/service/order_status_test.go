package service

import (
	"testing"
	"time"

	"github.com/storefront-next/internal/models"
)

func TestCanTransitionOrder(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"cart", "pending", true},
		{"cart", "cancelled", true},
		{"cart", "shipped", false},
		{"cart", "cart", false},
		{"cart", "on_hold", false},
		{"pending", "confirmed", true},
		{"pending", "processing", true},
		{"pending", "shipped", false},
		{"pending", "pending", true},
		{"confirmed", "shipped", true},
		{"processing", "delivered", false},
		{"shipped", "delivered", true},
		{"shipped", "cancelled", false},
		{"delivered", "refunded", true},
		{"delivered", "pending", false},
		{"cancelled", "pending", false},
		{"cancelled", "cancelled", false},
		{"refunded", "refunded", false},
		{"pending", "cart", false},
		{"pending", "on_hold", true},
		{"cancelled", "on_hold", false},
		{" Pending ", "CONFIRMED", true},
		{"pending", "", false},
	}
	for _, tc := range cases {
		if got := CanTransitionOrder(tc.from, tc.to, tc.from); got != tc.want {
			t.Fatalf("%q -> %q: want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestCanTransitionOrderFromCustomStatusFollowsAnchor(t *testing.T) {
	cases := []struct {
		name          string
		from, to, via string
		want          bool
	}{
		{"resume to anchor successor", "on_hold", "processing", "pending", true},
		{"return to anchor", "on_hold", "pending", "pending", true},
		{"skip ahead of anchor", "on_hold", "delivered", "pending", false},
		{"rewind after delivery", "on_hold", "pending", "delivered", false},
		{"refund after delivery", "on_hold", "refunded", "delivered", true},
		{"cancel after shipping", "on_hold", "cancelled", "shipped", false},
		{"custom to custom", "on_hold", "awaiting_stock", "delivered", true},
		{"no known anchor", "on_hold", "pending", "", false},
		{"cart anchor", "on_hold", "pending", "cart", false},
		{"never back to cart", "on_hold", "cart", "pending", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransitionOrder(tc.from, tc.to, tc.via); got != tc.want {
				t.Fatalf("%q -> %q via %q: want %v got %v", tc.from, tc.to, tc.via, tc.want, got)
			}
		})
	}
}

func TestCanCancelOrder(t *testing.T) {
	for _, code := range []string{"cancelled", "delivered", "shipped"} {
		if CanCancelOrder(code) {
			t.Fatalf("%s should not be cancellable", code)
		}
	}
	for _, code := range []string{"cart", "pending", "confirmed", "processing"} {
		if !CanCancelOrder(code) {
			t.Fatalf("%s should be cancellable", code)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"pending", "paid", true},
		{"pending", "refunded", false},
		{"failed", "pending", true},
		{"paid", "partially_refunded", true},
		{"partially_refunded", "refunded", true},
		{"partially_refunded", "paid", false},
		{"refunded", "paid", false},
		{"paid", "paid", true},
	}
	for _, tc := range cases {
		if got := CanTransitionPayment(tc.from, tc.to); got != tc.want {
			t.Fatalf("%q -> %q: want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestStampOrderMilestonesNeverOverwrites(t *testing.T) {
	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)
	order := &models.Order{}

	stampOrderMilestones(order, "delivered", first)
	stampOrderMilestones(order, "delivered", later)
	if order.DeliveredAt == nil || !order.DeliveredAt.Equal(first) {
		t.Fatalf("delivered_at should keep the first stamp, got %v", order.DeliveredAt)
	}

	stampOrderMilestones(order, "paid", first)
	stampPaidAt(order, later)
	if order.PaidAt == nil || !order.PaidAt.Equal(first) {
		t.Fatalf("paid_at should keep the first stamp, got %v", order.PaidAt)
	}

	other := &models.Order{}
	stampOrderMilestones(other, "processing", first)
	if other.PaidAt != nil || other.DeliveredAt != nil {
		t.Fatalf("non-milestone status should not stamp anything")
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	policy := OrderNumberPolicy{Prefix: "ORD", Digits: 10, MaxAttempts: 3}
	number, err := generateOrderNumber(policy, func(string) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(number) != 13 || number[:3] != "ORD" {
		t.Fatalf("unexpected order number %q", number)
	}
	for _, r := range number[3:] {
		if r < '0' || r > '9' {
			t.Fatalf("order number suffix should be digits: %q", number)
		}
	}

	attempts := 0
	_, err = generateOrderNumber(policy, func(string) (bool, error) {
		attempts++
		return true, nil
	})
	if err != ErrOrderNumberExhausted {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
