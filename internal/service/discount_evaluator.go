package service

import (
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// IsDiscountCurrentlyActive 已启用、处于 [start, end) 且未用尽
func IsDiscountCurrentlyActive(d *models.Discount, now time.Time) bool {
	if d == nil || !d.IsActive {
		return false
	}
	if now.Before(d.StartDate) || !now.Before(d.EndDate) {
		return false
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return false
	}
	return true
}

// EvaluateDiscount 计算单个折扣对一行商品的优惠金额，未生效时为 0。
// percentage 与 fixed 按单价计算；buy_x_get_y 按赠送件数计算。
func EvaluateDiscount(d *models.Discount, price decimal.Decimal, quantity int, now time.Time) decimal.Decimal {
	if !IsDiscountCurrentlyActive(d, now) {
		return decimal.Zero
	}
	return discountAmount(d, price, quantity)
}

// discountAmount 不判断有效期的纯计算
func discountAmount(d *models.Discount, price decimal.Decimal, quantity int) decimal.Decimal {
	if d == nil || quantity < 1 || !price.IsPositive() {
		return decimal.Zero
	}
	lineTotal := price.Mul(decimal.NewFromInt(int64(quantity)))
	var amount decimal.Decimal
	switch d.DiscountType {
	case constants.DiscountTypePercentage:
		if d.Percentage == nil {
			return decimal.Zero
		}
		amount = price.Mul(d.Percentage.Decimal).Div(hundred)
		if d.MaxDiscountAmount != nil && amount.GreaterThan(d.MaxDiscountAmount.Decimal) {
			amount = d.MaxDiscountAmount.Decimal
		}
	case constants.DiscountTypeFixed:
		if d.FixedAmount == nil {
			return decimal.Zero
		}
		amount = decimal.Min(d.FixedAmount.Decimal, price)
	case constants.DiscountTypeBuyXGetY:
		if d.BuyQuantity == nil || d.GetQuantity == nil {
			return decimal.Zero
		}
		bundle := *d.BuyQuantity + *d.GetQuantity
		if *d.GetQuantity < 1 || bundle < 1 || quantity < bundle {
			return decimal.Zero
		}
		freeUnits := (quantity / bundle) * *d.GetQuantity
		amount = price.Mul(decimal.NewFromInt(int64(freeUnits)))
	default:
		return decimal.Zero
	}
	if amount.IsNegative() {
		return decimal.Zero
	}
	return models.RoundMoney(decimal.Min(amount, lineTotal))
}

// DiscountEvaluation 折扣试算结果，原价、折后价与折扣比例均以单价为基准
type DiscountEvaluation struct {
	ProductID      uint         `json:"product_id"`
	DiscountID     uint         `json:"discount_id"`
	Quantity       int          `json:"quantity"`
	OriginalPrice  models.Money `json:"original_price"`
	DiscountAmount models.Money `json:"discount_amount"`
	FinalPrice     models.Money `json:"final_price"`
	Percentage     models.Money `json:"percentage"`
}

func buildEvaluation(productID uint, d *models.Discount, price decimal.Decimal, quantity int, now time.Time) DiscountEvaluation {
	original := models.RoundMoney(price)
	amount := EvaluateDiscount(d, price, quantity, now)
	final := original.Sub(amount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	percentage := decimal.Zero
	if original.IsPositive() {
		percentage = amount.Div(original).Mul(hundred)
	}
	result := DiscountEvaluation{
		ProductID:      productID,
		Quantity:       quantity,
		OriginalPrice:  models.NewMoneyFromDecimal(original),
		DiscountAmount: models.NewMoneyFromDecimal(amount),
		FinalPrice:     models.NewMoneyFromDecimal(final),
		Percentage:     models.NewMoneyFromDecimal(percentage),
	}
	if d != nil {
		result.DiscountID = d.ID
	}
	return result
}

// discountAppliesTo 折扣范围是否覆盖商品（指定商品、指定分类、全部商品取并集）
func discountAppliesTo(d *models.Discount, product *models.Product) bool {
	if d == nil || product == nil {
		return false
	}
	if d.ApplyToAllProducts {
		return true
	}
	for _, p := range d.Products {
		if p.ID == product.ID {
			return true
		}
	}
	if len(d.Categories) == 0 {
		return false
	}
	owned := make(map[uint]struct{}, len(product.Categories))
	for _, c := range product.Categories {
		owned[c.ID] = struct{}{}
	}
	for _, c := range d.Categories {
		if _, ok := owned[c.ID]; ok {
			return true
		}
	}
	return false
}
