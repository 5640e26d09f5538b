package models

import (
	"github.com/storefront-next/internal/constants"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultOrderStatuses 预置订单状态
func DefaultOrderStatuses() []OrderStatus {
	return []OrderStatus{
		{ID: 1, Code: constants.OrderStatusPending, Name: "Pending", Description: "Order placed, awaiting confirmation", Color: "#F59E0B", SortOrder: 1, IsActive: true},
		{ID: 2, Code: constants.OrderStatusConfirmed, Name: "Confirmed", Description: "Order confirmed", Color: "#3B82F6", SortOrder: 2, IsActive: true},
		{ID: 3, Code: constants.OrderStatusProcessing, Name: "Processing", Description: "Order is being prepared", Color: "#6366F1", SortOrder: 3, IsActive: true},
		{ID: 4, Code: constants.OrderStatusShipped, Name: "Shipped", Description: "Order handed to carrier", Color: "#8B5CF6", SortOrder: 4, IsActive: true},
		{ID: 5, Code: constants.OrderStatusDelivered, Name: "Delivered", Description: "Order delivered", Color: "#10B981", SortOrder: 5, IsActive: true},
		{ID: 6, Code: constants.OrderStatusCancelled, Name: "Cancelled", Description: "Order cancelled", Color: "#EF4444", SortOrder: 6, IsActive: true},
		{ID: 7, Code: constants.OrderStatusRefunded, Name: "Refunded", Description: "Order refunded", Color: "#6B7280", SortOrder: 7, IsActive: true},
		{ID: 8, Code: constants.OrderStatusCart, Name: "Cart", Description: "Open shopping cart", Color: "#9CA3AF", SortOrder: 0, IsActive: true},
	}
}

// DefaultPaymentStatuses 预置支付状态
func DefaultPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		{ID: 1, Code: constants.PaymentStatusPending, Name: "Pending", Description: "Awaiting payment", SortOrder: 1, IsActive: true},
		{ID: 2, Code: constants.PaymentStatusPaid, Name: "Paid", Description: "Payment received", SortOrder: 2, IsActive: true},
		{ID: 3, Code: constants.PaymentStatusFailed, Name: "Failed", Description: "Payment failed", SortOrder: 3, IsActive: true},
		{ID: 4, Code: constants.PaymentStatusRefunded, Name: "Refunded", Description: "Payment refunded", SortOrder: 4, IsActive: true},
		{ID: 5, Code: constants.PaymentStatusPartiallyRefunded, Name: "Partially Refunded", Description: "Payment partially refunded", SortOrder: 5, IsActive: true},
	}
}

// SeedLookups 写入预置状态行，已存在的行保持不变
func SeedLookups(db *gorm.DB) error {
	if db == nil {
		db = DB
	}
	return db.Transaction(func(tx *gorm.DB) error {
		orderStatuses := DefaultOrderStatuses()
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&orderStatuses).Error; err != nil {
			return err
		}
		paymentStatuses := DefaultPaymentStatuses()
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&paymentStatuses).Error
	})
}
