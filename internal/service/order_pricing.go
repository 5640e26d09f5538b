package service

import (
	"sort"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/models"

	"github.com/shopspring/decimal"
)

// PricingPolicy 计价策略：税率与固定运费
type PricingPolicy struct {
	TaxRate      decimal.Decimal
	ShippingCost decimal.Decimal
}

// DefaultPricingPolicy 10% 税率，运费 10.00
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		TaxRate:      decimal.RequireFromString("0.10"),
		ShippingCost: decimal.RequireFromString("10.00"),
	}
}

// NewPricingPolicy 从配置构建计价策略，配置无效时回退默认值
func NewPricingPolicy(cfg config.PricingConfig) PricingPolicy {
	policy := DefaultPricingPolicy()
	if rate, err := cfg.TaxRateDecimal(); err == nil {
		policy.TaxRate = rate
	}
	if shipping, err := cfg.ShippingCostDecimal(); err == nil {
		policy.ShippingCost = shipping
	}
	return policy
}

// OrderTotals 订单金额汇总
type OrderTotals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingCost   decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// RecalculateOrder 由订单项重新计算金额，所有结果按银行家舍入保留两位
// total = subtotal + tax + shipping - discount，行优惠不超过行合计
func RecalculateOrder(items []models.OrderItem, policy PricingPolicy) OrderTotals {
	subtotal := decimal.Zero
	discount := decimal.Zero
	for i := range items {
		line := items[i].LineTotal()
		subtotal = subtotal.Add(line)
		lineDiscount := items[i].DiscountAmount.Decimal
		if lineDiscount.IsNegative() {
			lineDiscount = decimal.Zero
		}
		discount = discount.Add(decimal.Min(lineDiscount, line))
	}
	subtotal = models.RoundMoney(subtotal)
	discount = models.RoundMoney(discount)
	tax := models.RoundMoney(subtotal.Mul(policy.TaxRate))
	shipping := decimal.Zero
	if len(items) > 0 {
		shipping = models.RoundMoney(policy.ShippingCost)
	}
	return OrderTotals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		ShippingCost:   shipping,
		DiscountAmount: discount,
		Total:          subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

// ApplyTo 写回订单头
func (t OrderTotals) ApplyTo(order *models.Order) {
	if order == nil {
		return
	}
	order.Subtotal = models.NewMoneyFromDecimal(t.Subtotal)
	order.TaxAmount = models.NewMoneyFromDecimal(t.TaxAmount)
	order.ShippingCost = models.NewMoneyFromDecimal(t.ShippingCost)
	order.DiscountAmount = models.NewMoneyFromDecimal(t.DiscountAmount)
	order.Total = models.NewMoneyFromDecimal(t.Total)
}

// refreshItemTotals 重算每行 total
func refreshItemTotals(items []models.OrderItem) {
	for i := range items {
		items[i].Total = models.NewMoneyFromDecimal(items[i].LineTotal())
	}
}

type lineDiscount struct {
	discount *models.Discount
	amount   decimal.Decimal
}

// rankLineDiscounts 过滤出可用折扣并排序：金额降序，金额相同按 ID 升序
func rankLineDiscounts(discounts []models.Discount, price decimal.Decimal, quantity int, subtotal decimal.Decimal, now time.Time) []lineDiscount {
	ranked := make([]lineDiscount, 0, len(discounts))
	for i := range discounts {
		d := &discounts[i]
		if d.MinOrderAmount.IsPositive() && subtotal.LessThan(d.MinOrderAmount.Decimal) {
			continue
		}
		amount := EvaluateDiscount(d, price, quantity, now)
		if !amount.IsPositive() {
			continue
		}
		ranked = append(ranked, lineDiscount{discount: d, amount: amount})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if !ranked[i].amount.Equal(ranked[j].amount) {
			return ranked[i].amount.GreaterThan(ranked[j].amount)
		}
		return ranked[i].discount.ID < ranked[j].discount.ID
	})
	return ranked
}
