package admin

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderStatusRequest 变更订单状态请求
type OrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// PaymentStatusRequest 变更支付状态请求
type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// OrderDetailsRequest 更新物流单号与备注请求
type OrderDetailsRequest struct {
	TrackingNumber *string `json:"tracking_number"`
	Notes          *string `json:"notes"`
}

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Note string `json:"note"`
}

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from must be RFC3339", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to must be RFC3339", err)
		return
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      handlershared.ParseOptionalUintQuery(c, "user_id"),
		StatusCode:  strings.TrimSpace(c.Query("status")),
		OrderNumber: strings.TrimSpace(c.Query("order_number")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch orders")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 管理端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForAdmin(id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch order")
		return
	}
	response.Success(c, order)
}

// ListOrderItems 管理端订单项
func (h *Handler) ListOrderItems(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.OrderService.ListOrderItems(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch order items")
		return
	}
	response.Success(c, view)
}

// ListOrderHistory 管理端订单状态历史
func (h *Handler) ListOrderHistory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.OrderService.ListStatusHistory(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch order history")
		return
	}
	response.Success(c, view)
}

// UpdateOrderStatus 变更订单状态
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondServiceError(c, service.ErrStatusCodeRequired, "")
		return
	}
	order, msg, err := h.OrderService.SetOrderStatus(c.Request.Context(), id, actor, req.Status, req.Note)
	if err != nil {
		respondServiceError(c, err, "failed to update order status")
		return
	}
	requestLog(c).Infow("admin_order_status_updated",
		"order_id", order.ID,
		"status", order.Status.Code,
		"operator_id", actor.UserID,
	)
	response.SuccessWithMsg(c, msg, order)
}

// UpdatePaymentStatus 变更支付状态
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "payment_status is required", err)
		return
	}
	order, err := h.OrderService.SetPaymentStatus(c.Request.Context(), id, actor, req.PaymentStatus)
	if err != nil {
		respondServiceError(c, err, "failed to update payment status")
		return
	}
	response.Success(c, order)
}

// UpdateOrderDetails 更新物流单号与备注
func (h *Handler) UpdateOrderDetails(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req OrderDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid order details", err)
		return
	}
	order, err := h.OrderService.UpdateOrderDetails(c.Request.Context(), id, actor, service.OrderDetailsInput{
		TrackingNumber: req.TrackingNumber,
		Notes:          req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "failed to update order")
		return
	}
	response.Success(c, order)
}

// CancelOrder 管理员取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid cancel request", err)
			return
		}
	}
	order, err := h.OrderService.CancelOrder(c.Request.Context(), id, actor, strings.TrimSpace(req.Note))
	if err != nil {
		respondServiceError(c, err, "failed to cancel order")
		return
	}
	response.Success(c, order)
}
