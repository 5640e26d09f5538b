package admin

import (
	"strings"

	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StatusRequest 状态字典请求
type StatusRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

func (r StatusRequest) toInput() service.StatusInput {
	return service.StatusInput{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		SortOrder:   r.SortOrder,
		IsActive:    r.IsActive,
	}
}

// CreateOrderStatus 新增订单状态
func (h *Handler) CreateOrderStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid status request", err)
		return
	}
	status, err := h.LookupService.CreateOrderStatus(c.Request.Context(), req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to create order status")
		return
	}
	response.Success(c, status)
}

// UpdateOrderStatusLookup 修改订单状态
func (h *Handler) UpdateOrderStatusLookup(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid status request", err)
		return
	}
	status, err := h.LookupService.UpdateOrderStatus(c.Request.Context(), strings.TrimSpace(c.Param("code")), req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to update order status")
		return
	}
	response.Success(c, status)
}

// CreatePaymentStatus 新增支付状态
func (h *Handler) CreatePaymentStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid status request", err)
		return
	}
	status, err := h.LookupService.CreatePaymentStatus(c.Request.Context(), req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to create payment status")
		return
	}
	response.Success(c, status)
}

// UpdatePaymentStatusLookup 修改支付状态
func (h *Handler) UpdatePaymentStatusLookup(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid status request", err)
		return
	}
	status, err := h.LookupService.UpdatePaymentStatus(c.Request.Context(), strings.TrimSpace(c.Param("code")), req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to update payment status")
		return
	}
	response.Success(c, status)
}
