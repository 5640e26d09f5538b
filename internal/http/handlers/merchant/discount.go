package merchant

import (
	"strings"
	"time"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// DiscountRequest 折扣创建/更新请求
type DiscountRequest struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	DiscountType       string           `json:"discount_type"`
	Percentage         *decimal.Decimal `json:"percentage"`
	FixedAmount        *decimal.Decimal `json:"fixed_amount"`
	BuyQuantity        *int             `json:"buy_quantity"`
	GetQuantity        *int             `json:"get_quantity"`
	StartDate          time.Time        `json:"start_date"`
	EndDate            time.Time        `json:"end_date"`
	ProductIDs         []uint           `json:"product_ids"`
	CategoryIDs        []uint           `json:"category_ids"`
	ApplyToAllProducts bool             `json:"apply_to_all_products"`
	UsageLimit         *int             `json:"usage_limit"`
	MinOrderAmount     *decimal.Decimal `json:"min_order_amount"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount"`
	IsActive           *bool            `json:"is_active"`
}

func (r DiscountRequest) toInput() service.DiscountInput {
	return service.DiscountInput{
		Name:               r.Name,
		Description:        r.Description,
		DiscountType:       r.DiscountType,
		Percentage:         r.Percentage,
		FixedAmount:        r.FixedAmount,
		BuyQuantity:        r.BuyQuantity,
		GetQuantity:        r.GetQuantity,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		ProductIDs:         r.ProductIDs,
		CategoryIDs:        r.CategoryIDs,
		ApplyToAllProducts: r.ApplyToAllProducts,
		UsageLimit:         r.UsageLimit,
		MinOrderAmount:     r.MinOrderAmount,
		MaxDiscountAmount:  r.MaxDiscountAmount,
		IsActive:           r.IsActive,
	}
}

// ListDiscounts 折扣列表
func (h *Handler) ListDiscounts(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	discounts, total, err := h.DiscountService.List(actor, repository.DiscountListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch discounts")
		return
	}
	response.SuccessWithPage(c, discounts, response.BuildPagination(page, pageSize, total))
}

// GetDiscount 折扣详情
func (h *Handler) GetDiscount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	discount, err := h.DiscountService.Get(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch discount")
		return
	}
	response.Success(c, discount)
}

// CreateDiscount 创建折扣
func (h *Handler) CreateDiscount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid discount request", err)
		return
	}
	discount, err := h.DiscountService.Create(actor, req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to create discount")
		return
	}
	logger.WithContext(c.Request.Context()).Infow("vendor_discount_created",
		"discount_id", discount.ID,
		"user_id", actor.UserID,
		"status", discount.Status,
	)
	response.Success(c, discount)
}

// UpdateDiscount 更新折扣
func (h *Handler) UpdateDiscount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid discount request", err)
		return
	}
	discount, err := h.DiscountService.Update(actor, id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to update discount")
		return
	}
	response.Success(c, discount)
}

// CancelDiscount 取消折扣
func (h *Handler) CancelDiscount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	discount, err := h.DiscountService.Cancel(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to cancel discount")
		return
	}
	response.Success(c, discount)
}

// DeleteDiscount 删除折扣
func (h *Handler) DeleteDiscount(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.DiscountService.Delete(actor, id); err != nil {
		respondServiceError(c, err, "failed to delete discount")
		return
	}
	response.NoContent(c)
}

// DiscountStats 商家折扣统计
func (h *Handler) DiscountStats(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	stats, err := h.DiscountService.VendorStats(actor)
	if err != nil {
		respondServiceError(c, err, "failed to fetch discount stats")
		return
	}
	response.Success(c, stats)
}

// ListDiscountUsages 折扣核销记录
func (h *Handler) ListDiscountUsages(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	usages, total, err := h.DiscountService.ListUsages(actor, repository.DiscountUsageListFilter{
		Page:       page,
		PageSize:   pageSize,
		DiscountID: handlershared.ParseOptionalUintQuery(c, "discount_id"),
		UserID:     handlershared.ParseOptionalUintQuery(c, "user_id"),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch discount usages")
		return
	}
	response.SuccessWithPage(c, usages, response.BuildPagination(page, pageSize, total))
}
