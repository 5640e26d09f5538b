package service

import (
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// OrderItemsView 订单项列表
type OrderItemsView struct {
	OrderNumber string             `json:"order_number"`
	OrderStatus string             `json:"order_status"`
	ItemsCount  int                `json:"items_count"`
	Items       []models.OrderItem `json:"items"`
}

// OrderHistoryView 订单状态历史（新到旧）
type OrderHistoryView struct {
	OrderNumber   string                      `json:"order_number"`
	CurrentStatus string                      `json:"current_status"`
	HistoryCount  int                         `json:"history_count"`
	History       []models.OrderStatusHistory `json:"history"`
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.StatusCode = normalizeStatusCode(filter.StatusCode)
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 管理端订单列表，默认不含购物车
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	filter.StatusCode = normalizeStatusCode(filter.StatusCode)
	if filter.StatusCode == "" {
		filter.ExcludeCart = true
	}
	return s.orderRepo.ListAdmin(filter)
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrderItems 订单项列表，管理员可查看任意订单
func (s *OrderService) ListOrderItems(actor Actor, orderID uint) (*OrderItemsView, error) {
	order, err := s.visibleOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.orderRepo.ListItems(order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderItemsView{
		OrderNumber: order.OrderNumber,
		OrderStatus: order.Status.Name,
		ItemsCount:  len(items),
		Items:       items,
	}, nil
}

// ListStatusHistory 订单状态历史
func (s *OrderService) ListStatusHistory(actor Actor, orderID uint) (*OrderHistoryView, error) {
	order, err := s.visibleOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	history, err := s.orderRepo.ListHistory(order.ID)
	if err != nil {
		return nil, err
	}
	return &OrderHistoryView{
		OrderNumber:   order.OrderNumber,
		CurrentStatus: order.Status.Name,
		HistoryCount:  len(history),
		History:       history,
	}, nil
}

func (s *OrderService) visibleOrder(actor Actor, orderID uint) (*models.Order, error) {
	if actor.IsAdmin() {
		return s.GetOrderForAdmin(orderID)
	}
	return s.GetOrderByUser(orderID, actor.UserID)
}
