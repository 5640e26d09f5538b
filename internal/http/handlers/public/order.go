package public

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Note string `json:"note"`
}

// ListOrders 我的订单
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	orders, total, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		StatusCode: strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch orders")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 我的订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderByUser(id, uid)
	if err != nil {
		respondServiceError(c, err, "failed to fetch order")
		return
	}
	response.Success(c, order)
}

// ListOrderItems 订单项
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

// ListOrderHistory 订单状态历史
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

// CancelOrder 用户取消订单
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
