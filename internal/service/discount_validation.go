package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"

	"github.com/shopspring/decimal"
)

// DiscountInput 创建/更新折扣输入
type DiscountInput struct {
	Name               string
	Description        string
	DiscountType       string
	Percentage         *decimal.Decimal
	FixedAmount        *decimal.Decimal
	BuyQuantity        *int
	GetQuantity        *int
	StartDate          time.Time
	EndDate            time.Time
	ProductIDs         []uint
	CategoryIDs        []uint
	ApplyToAllProducts bool
	UsageLimit         *int
	MinOrderAmount     *decimal.Decimal
	MaxDiscountAmount  *decimal.Decimal
	IsActive           *bool
}

// ValidateDiscount 校验类型字段与时间窗口，返回全部字段错误
func ValidateDiscount(input DiscountInput) error {
	var errs FieldErrors
	if strings.TrimSpace(input.Name) == "" {
		errs.add("name", "name is required")
	}

	switch input.DiscountType {
	case constants.DiscountTypePercentage:
		switch {
		case input.Percentage == nil:
			errs.add("percentage", "percentage is required for percentage discounts")
		case !input.Percentage.IsPositive() || input.Percentage.GreaterThan(hundred):
			errs.add("percentage", "percentage must be greater than 0 and at most 100")
		}
	case constants.DiscountTypeFixed:
		switch {
		case input.FixedAmount == nil:
			errs.add("fixed_amount", "fixed_amount is required for fixed discounts")
		case !input.FixedAmount.IsPositive():
			errs.add("fixed_amount", "fixed_amount must be greater than 0")
		}
	case constants.DiscountTypeBuyXGetY:
		if input.BuyQuantity == nil || *input.BuyQuantity < 1 {
			errs.add("buy_quantity", "buy_quantity of at least 1 is required for buy_x_get_y discounts")
		}
		if input.GetQuantity == nil || *input.GetQuantity < 1 {
			errs.add("get_quantity", "get_quantity of at least 1 is required for buy_x_get_y discounts")
		}
	default:
		errs = append(errs, ErrInvalidDiscountType)
	}

	if input.StartDate.IsZero() {
		errs.add("start_date", "start_date is required")
	}
	if input.EndDate.IsZero() {
		errs.add("end_date", "end_date is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && !input.StartDate.Before(input.EndDate) {
		errs.add("end_date", "end_date must be after start_date")
	}
	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		errs.add("usage_limit", "usage_limit must be at least 1")
	}
	if input.MinOrderAmount != nil && input.MinOrderAmount.IsNegative() {
		errs.add("min_order_amount", "min_order_amount must not be negative")
	}
	if input.MaxDiscountAmount != nil && !input.MaxDiscountAmount.IsPositive() {
		errs.add("max_discount_amount", "max_discount_amount must be greater than 0")
	}
	return errs.orNil()
}
