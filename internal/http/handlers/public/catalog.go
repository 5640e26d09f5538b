package public

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// DiscountCalculateRequest 折扣试算请求
type DiscountCalculateRequest struct {
	ProductID  uint `json:"product_id" binding:"required"`
	DiscountID uint `json:"discount_id" binding:"required"`
	Quantity   int  `json:"quantity"`
}

// ListProducts 上架商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	products, total, err := h.ProductService.ListPublic(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		CategoryID: handlershared.ParseOptionalUintQuery(c, "category_id"),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch products")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetPublic(id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch product")
		return
	}
	response.Success(c, product)
}

// ListProductDiscounts 商品当前可用折扣
func (h *Handler) ListProductDiscounts(c *gin.Context) {
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	discounts, err := h.DiscountService.ListForProduct(id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch discounts")
		return
	}
	response.Success(c, discounts)
}

// ListCategories 启用中的分类
func (h *Handler) ListCategories(c *gin.Context) {
	filter := repository.CategoryListFilter{OnlyActive: true}
	if parentID := handlershared.ParseOptionalUintQuery(c, "parent_id"); parentID != 0 {
		filter.ParentID = &parentID
	}
	categories, err := h.CategoryService.List(filter)
	if err != nil {
		respondServiceError(c, err, "failed to fetch categories")
		return
	}
	response.Success(c, categories)
}

// GetCategory 分类详情
func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	category, err := h.CategoryService.Get(id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch category")
		return
	}
	if !category.IsActive {
		response.NotFound(c, "category not found")
		return
	}
	response.Success(c, category)
}

// ListActiveDiscounts 当前生效折扣
func (h *Handler) ListActiveDiscounts(c *gin.Context) {
	discounts, err := h.DiscountService.ListActive()
	if err != nil {
		respondServiceError(c, err, "failed to fetch discounts")
		return
	}
	response.Success(c, discounts)
}

// CalculateDiscount 试算折扣
func (h *Handler) CalculateDiscount(c *gin.Context) {
	var req DiscountCalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "product_id and discount_id are required", err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	result, err := h.DiscountService.Evaluate(req.ProductID, req.DiscountID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "failed to calculate discount")
		return
	}
	response.Success(c, result)
}

// ListOrderStatuses 订单状态字典
func (h *Handler) ListOrderStatuses(c *gin.Context) {
	statuses, err := h.LookupService.ListOrderStatuses(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch order statuses")
		return
	}
	response.Success(c, statuses)
}

// ListPaymentStatuses 支付状态字典
func (h *Handler) ListPaymentStatuses(c *gin.Context) {
	statuses, err := h.LookupService.ListPaymentStatuses(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "failed to fetch payment statuses")
		return
	}
	response.Success(c, statuses)
}
