package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/models"
)

// orderTransitions 预置订单状态的合法流转
var orderTransitions = map[string][]string{
	constants.OrderStatusCart:       {constants.OrderStatusPending, constants.OrderStatusCancelled},
	constants.OrderStatusPending:    {constants.OrderStatusConfirmed, constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed:  {constants.OrderStatusProcessing, constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered, constants.OrderStatusRefunded},
	constants.OrderStatusDelivered:  {constants.OrderStatusRefunded},
	constants.OrderStatusCancelled:  {},
	constants.OrderStatusRefunded:   {},
}

// paymentTransitions 预置支付状态的合法流转
var paymentTransitions = map[string][]string{
	constants.PaymentStatusPending:           {constants.PaymentStatusPaid, constants.PaymentStatusFailed},
	constants.PaymentStatusFailed:            {constants.PaymentStatusPending, constants.PaymentStatusPaid},
	constants.PaymentStatusPaid:              {constants.PaymentStatusRefunded, constants.PaymentStatusPartiallyRefunded},
	constants.PaymentStatusPartiallyRefunded: {constants.PaymentStatusRefunded},
	constants.PaymentStatusRefunded:          {},
}

// 不可取消的订单状态
var nonCancellableStatuses = map[string]struct{}{
	constants.OrderStatusCancelled: {},
	constants.OrderStatusDelivered: {},
	constants.OrderStatusShipped:   {},
}

func normalizeStatusCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func isTerminal(table map[string][]string, code string) bool {
	next, ok := table[code]
	return ok && len(next) == 0
}

// canTransition 按表判断；表外的自定义状态可在非终态之间自由流转
func canTransition(table map[string][]string, from, to string) bool {
	if isTerminal(table, from) {
		return false
	}
	if from == to {
		return true
	}
	next, fromKnown := table[from]
	_, toKnown := table[to]
	if fromKnown && toKnown {
		return containsCode(next, to)
	}
	return true
}

// CanTransitionOrder 订单状态流转校验
// cart 只能按表流出且不可再次进入；重复进入同一非终态视为合法。
// anchor 是订单最近经过的预置状态：处于自定义状态时，只能回到 anchor 或 anchor 的表内后继
func CanTransitionOrder(from, to, anchor string) bool {
	from = normalizeStatusCode(from)
	to = normalizeStatusCode(to)
	if to == "" || to == constants.OrderStatusCart {
		return false
	}
	if from == constants.OrderStatusCart {
		return containsCode(orderTransitions[from], to)
	}
	_, fromKnown := orderTransitions[from]
	_, toKnown := orderTransitions[to]
	if fromKnown || !toKnown {
		return canTransition(orderTransitions, from, to)
	}
	anchor = normalizeStatusCode(anchor)
	next, anchorKnown := orderTransitions[anchor]
	if !anchorKnown || anchor == constants.OrderStatusCart {
		return false
	}
	return to == anchor || containsCode(next, to)
}

// isKnownOrderStatus 是否为预置订单状态
func isKnownOrderStatus(code string) bool {
	_, ok := orderTransitions[normalizeStatusCode(code)]
	return ok
}

func containsCode(codes []string, target string) bool {
	for _, code := range codes {
		if code == target {
			return true
		}
	}
	return false
}

// CanCancelOrder 已取消、已发货、已送达的订单不可取消
func CanCancelOrder(current string) bool {
	_, blocked := nonCancellableStatuses[normalizeStatusCode(current)]
	return !blocked
}

// CanTransitionPayment 支付状态流转校验
func CanTransitionPayment(from, to string) bool {
	from = normalizeStatusCode(from)
	to = normalizeStatusCode(to)
	if to == "" {
		return false
	}
	return canTransition(paymentTransitions, from, to)
}

// stampOrderMilestones 首次到达 delivered/paid 时记录时间，已有值不覆盖
func stampOrderMilestones(order *models.Order, orderCode string, now time.Time) {
	code := normalizeStatusCode(orderCode)
	if code != constants.OrderStatusCart {
		// 离开 cart 状态后释放唯一约束，用户可以开新的购物车
		order.CartOwner = nil
	}
	switch code {
	case constants.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			at := now
			order.DeliveredAt = &at
		}
	case constants.OrderStatusPaid:
		stampPaidAt(order, now)
	}
}

func stampPaidAt(order *models.Order, now time.Time) {
	if order.PaidAt == nil {
		at := now
		order.PaidAt = &at
	}
}
