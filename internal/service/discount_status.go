package service

import (
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
)

// ResolveDiscountStatus 由 (now, start, end, is_active) 推导折扣状态
func ResolveDiscountStatus(d *models.Discount, now time.Time) string {
	switch {
	case d == nil || !d.IsActive:
		return constants.DiscountStatusCancelled
	case now.Before(d.StartDate):
		return constants.DiscountStatusScheduled
	case !now.Before(d.EndDate):
		return constants.DiscountStatusExpired
	default:
		return constants.DiscountStatusActive
	}
}

// refreshDiscountStatus 持久化前调用
func refreshDiscountStatus(d *models.Discount, now time.Time) {
	if d == nil {
		return
	}
	d.Status = ResolveDiscountStatus(d, now)
}
