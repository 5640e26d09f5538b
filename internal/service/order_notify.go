package service

import (
	"context"
	"fmt"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
)

// notifyBestEffort 通知失败只记录日志，不影响已提交的订单变更
func notifyBestEffort(ctx context.Context, notifier Notifier, m *metrics.Metrics, input NotifyInput) {
	if notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			m.ObserveNotifyFailure()
			logger.WithContext(ctx).Warnw("order_notify_panic_recovered", "user_id", input.UserID, "panic", r)
		}
	}()
	if err := notifier.Send(ctx, input); err != nil {
		m.ObserveNotifyFailure()
		logger.WithContext(ctx).Warnw("order_notify_enqueue_failed",
			"user_id", input.UserID,
			"type", input.TypeCode,
			"error", err,
		)
	}
}

func orderActionURL(order *models.Order) string {
	return fmt.Sprintf("/orders/%d", order.ID)
}

func orderCreatedNotice(order *models.Order) NotifyInput {
	return NotifyInput{
		UserID:    order.UserID,
		Title:     "Order Placed",
		Message:   fmt.Sprintf("Your order %s has been placed. Total: %s", order.OrderNumber, order.Total.String()),
		TypeCode:  constants.NotificationTypeOrder,
		ActionURL: orderActionURL(order),
	}
}

func orderStatusNotice(order *models.Order, statusName string) NotifyInput {
	return NotifyInput{
		UserID:    order.UserID,
		Title:     "Order Status Updated",
		Message:   fmt.Sprintf("Your order %s status has been updated to %s", order.OrderNumber, statusName),
		TypeCode:  constants.NotificationTypeOrder,
		ActionURL: orderActionURL(order),
	}
}

func paymentStatusNotice(order *models.Order, statusName string) NotifyInput {
	return NotifyInput{
		UserID:    order.UserID,
		Title:     "Payment Status Updated",
		Message:   fmt.Sprintf("Payment for order %s is now %s", order.OrderNumber, statusName),
		TypeCode:  constants.NotificationTypeOrder,
		ActionURL: orderActionURL(order),
	}
}
