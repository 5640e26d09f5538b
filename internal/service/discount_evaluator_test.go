package service

import (
	"testing"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

func moneyRef(raw string) *models.Money {
	m := models.MustMoney(raw)
	return &m
}

func intRef(v int) *int {
	return &v
}

func activeDiscount(now time.Time, discountType string) *models.Discount {
	return &models.Discount{
		ID:           1,
		DiscountType: discountType,
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		IsActive:     true,
	}
}

func TestEvaluateDiscount(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	percentage := activeDiscount(now, constants.DiscountTypePercentage)
	percentage.Percentage = moneyRef("20")

	capped := activeDiscount(now, constants.DiscountTypePercentage)
	capped.Percentage = moneyRef("50")
	capped.MaxDiscountAmount = moneyRef("15.00")

	tenPercent := activeDiscount(now, constants.DiscountTypePercentage)
	tenPercent.Percentage = moneyRef("10")

	fixed := activeDiscount(now, constants.DiscountTypeFixed)
	fixed.FixedAmount = moneyRef("5.00")

	bxgy := activeDiscount(now, constants.DiscountTypeBuyXGetY)
	bxgy.BuyQuantity = intRef(2)
	bxgy.GetQuantity = intRef(1)

	inactive := activeDiscount(now, constants.DiscountTypeFixed)
	inactive.FixedAmount = moneyRef("5.00")
	inactive.IsActive = false

	notStarted := activeDiscount(now, constants.DiscountTypeFixed)
	notStarted.FixedAmount = moneyRef("5.00")
	notStarted.StartDate = now.Add(time.Minute)

	endsNow := activeDiscount(now, constants.DiscountTypeFixed)
	endsNow.FixedAmount = moneyRef("5.00")
	endsNow.EndDate = now

	exhausted := activeDiscount(now, constants.DiscountTypeFixed)
	exhausted.FixedAmount = moneyRef("5.00")
	exhausted.UsageLimit = intRef(2)
	exhausted.UsageCount = 2

	cases := []struct {
		name     string
		discount *models.Discount
		price    string
		quantity int
		want     string
	}{
		{"percentage of unit price", percentage, "50.00", 1, "10.00"},
		{"percentage ignores quantity", tenPercent, "100.00", 3, "10.00"},
		{"percentage capped by max", capped, "50.00", 2, "15.00"},
		{"percentage below cap", capped, "20.00", 4, "10.00"},
		{"fixed amount", fixed, "12.00", 1, "5.00"},
		{"fixed amount with quantity", fixed, "12.00", 4, "5.00"},
		{"fixed capped by unit price", fixed, "3.00", 1, "3.00"},
		{"fixed capped by unit price with quantity", fixed, "3.00", 2, "3.00"},
		{"buy two get one with remainder", bxgy, "10.00", 7, "20.00"},
		{"buy two get one below bundle", bxgy, "10.00", 2, "0"},
		{"inactive discount", inactive, "12.00", 1, "0"},
		{"not yet started", notStarted, "12.00", 1, "0"},
		{"end is exclusive", endsNow, "12.00", 1, "0"},
		{"usage limit reached", exhausted, "12.00", 1, "0"},
		{"nil discount", nil, "12.00", 1, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EvaluateDiscount(tc.discount, decimal.RequireFromString(tc.price), tc.quantity, now)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("want %s got %s", tc.want, got.String())
			}
		})
	}
}

func TestEvaluateDiscountRoundsHalfEven(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := activeDiscount(now, constants.DiscountTypePercentage)
	d.Percentage = moneyRef("12.5")

	// 0.20 × 12.5% = 0.025 → 0.02
	got := EvaluateDiscount(d, decimal.RequireFromString("0.20"), 1, now)
	if !got.Equal(decimal.RequireFromString("0.02")) {
		t.Fatalf("expected banker's rounding to 0.02, got %s", got.String())
	}
}

func TestBuildEvaluation(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	d := activeDiscount(now, constants.DiscountTypePercentage)
	d.ID = 9
	d.Percentage = moneyRef("25")

	result := buildEvaluation(3, d, decimal.RequireFromString("40.00"), 2, now)
	if result.DiscountID != 9 || result.ProductID != 3 || result.Quantity != 2 {
		t.Fatalf("unexpected identity fields: %+v", result)
	}
	if result.OriginalPrice.String() != "40.00" {
		t.Fatalf("original price should be the unit price, got %s", result.OriginalPrice)
	}
	if result.DiscountAmount.String() != "10.00" || result.FinalPrice.String() != "30.00" {
		t.Fatalf("unexpected amounts: discount=%s final=%s", result.DiscountAmount, result.FinalPrice)
	}
	if result.Percentage.String() != "25.00" {
		t.Fatalf("unexpected percentage: %s", result.Percentage)
	}

	bxgy := activeDiscount(now, constants.DiscountTypeBuyXGetY)
	bxgy.BuyQuantity = intRef(1)
	bxgy.GetQuantity = intRef(1)
	result = buildEvaluation(3, bxgy, decimal.RequireFromString("40.00"), 4, now)
	if result.DiscountAmount.String() != "80.00" || result.FinalPrice.String() != "0.00" {
		t.Fatalf("free units above unit price should floor final at zero: discount=%s final=%s", result.DiscountAmount, result.FinalPrice)
	}
}

func TestDiscountAppliesTo(t *testing.T) {
	product := &models.Product{ID: 5, Categories: []models.Category{{ID: 2}}}
	cases := []struct {
		name     string
		discount *models.Discount
		want     bool
	}{
		{"apply to all", &models.Discount{ApplyToAllProducts: true}, true},
		{"explicit product", &models.Discount{Products: []models.Product{{ID: 5}}}, true},
		{"matching category", &models.Discount{Categories: []models.Category{{ID: 2}}}, true},
		{"other category", &models.Discount{Categories: []models.Category{{ID: 3}}}, false},
		{"empty scope", &models.Discount{}, false},
	}
	for _, tc := range cases {
		if got := discountAppliesTo(tc.discount, product); got != tc.want {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestResolveDiscountStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	base := func() *models.Discount { return activeDiscount(now, constants.DiscountTypeFixed) }

	scheduled := base()
	scheduled.StartDate = now.Add(time.Hour)
	scheduled.EndDate = now.Add(2 * time.Hour)

	expired := base()
	expired.EndDate = now

	cancelled := base()
	cancelled.IsActive = false

	cases := []struct {
		name string
		d    *models.Discount
		want string
	}{
		{"active", base(), constants.DiscountStatusActive},
		{"scheduled", scheduled, constants.DiscountStatusScheduled},
		{"expired at end", expired, constants.DiscountStatusExpired},
		{"cancelled wins over window", cancelled, constants.DiscountStatusCancelled},
	}
	for _, tc := range cases {
		if got := ResolveDiscountStatus(tc.d, now); got != tc.want {
			t.Fatalf("%s: want %s got %s", tc.name, tc.want, got)
		}
	}
}
