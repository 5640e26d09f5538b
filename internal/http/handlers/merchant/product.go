package merchant

import (
	"strings"

	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/repository"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	VendorID      uint            `json:"vendor_id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	CategoryIDs   []uint          `json:"category_ids"`
	IsActive      *bool           `json:"is_active"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		VendorID:      r.VendorID,
		Title:         r.Title,
		Slug:          r.Slug,
		Description:   r.Description,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		CategoryIDs:   r.CategoryIDs,
		IsActive:      r.IsActive,
	}
}

// ListProducts 商家商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	page, pageSize := handlershared.ParsePagination(c)
	products, total, err := h.ProductService.ListVendorProducts(actor, repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		VendorID:   handlershared.ParseOptionalUintQuery(c, "vendor_id"),
		CategoryID: handlershared.ParseOptionalUintQuery(c, "category_id"),
		Search:     strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondServiceError(c, err, "failed to fetch products")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid product request", err)
		return
	}
	product, err := h.ProductService.Create(actor, req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to create product")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid product request", err)
		return
	}
	product, err := h.ProductService.Update(actor, id, req.toInput())
	if err != nil {
		respondServiceError(c, err, "failed to update product")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(actor, id); err != nil {
		respondServiceError(c, err, "failed to delete product")
		return
	}
	response.NoContent(c)
}

// ProductPriceHistory 商品价格历史
func (h *Handler) ProductPriceHistory(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	history, err := h.ProductService.PriceHistory(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch price history")
		return
	}
	response.Success(c, history)
}

// ProductDiscounts 商品关联折扣
func (h *Handler) ProductDiscounts(c *gin.Context) {
	actor, ok := getActor(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	discounts, err := h.DiscountService.ListVendorProductDiscounts(actor, id)
	if err != nil {
		respondServiceError(c, err, "failed to fetch discounts")
		return
	}
	response.Success(c, discounts)
}
