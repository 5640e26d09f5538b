package public

import (
	handlershared "github.com/storefront-next/internal/http/handlers/shared"
	"github.com/storefront-next/internal/http/response"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItemRequest 加购项
type CartItemRequest struct {
	ProductID uint             `json:"product_id" binding:"required"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

// AddCartItemsRequest 加购请求
type AddCartItemsRequest struct {
	Items    []CartItemRequest    `json:"items" binding:"required,dive"`
	Shipping *models.ShippingInfo `json:"shipping"`
}

// UpdateCartItemRequest 修改数量请求
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// ShippingRequest 收货信息请求
type ShippingRequest struct {
	models.ShippingInfo
	Notes *string `json:"notes"`
}

// CheckoutRequest 结算请求，收货信息可选
type CheckoutRequest struct {
	Shipping *models.ShippingInfo `json:"shipping"`
	Notes    *string              `json:"notes"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cart, err := h.CartService.GetCart(uid)
	if err != nil {
		respondServiceError(c, err, "failed to fetch cart")
		return
	}
	response.Success(c, cart)
}

// AddCartItems 加购，首次加购时创建购物车
func (h *Handler) AddCartItems(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid cart items", err)
		return
	}
	inputs := make([]service.CartItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, service.CartItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	cart, err := h.CartService.AddItems(c.Request.Context(), uid, inputs, req.Shipping)
	if err != nil {
		respondServiceError(c, err, "failed to update cart")
		return
	}
	response.Success(c, cart)
}

// UpdateCartItem 修改购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid quantity", err)
		return
	}
	cart, err := h.CartService.UpdateItem(c.Request.Context(), uid, itemID, req.Quantity)
	if err != nil {
		respondServiceError(c, err, "failed to update cart item")
		return
	}
	response.Success(c, cart)
}

// RemoveCartItem 删除购物车项
func (h *Handler) RemoveCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := handlershared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.RemoveItem(c.Request.Context(), uid, itemID); err != nil {
		respondServiceError(c, err, "failed to remove cart item")
		return
	}
	response.NoContent(c)
}

// UpdateCartShipping 更新收货信息
func (h *Handler) UpdateCartShipping(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ShippingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid shipping info", err)
		return
	}
	cart, err := h.CartService.UpdateShipping(c.Request.Context(), uid, req.ShippingInfo, req.Notes)
	if err != nil {
		respondServiceError(c, err, "failed to update shipping")
		return
	}
	response.Success(c, cart)
}

// Checkout 购物车结算
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "invalid checkout request", err)
			return
		}
	}
	order, err := h.OrderService.Checkout(c.Request.Context(), uid, service.CheckoutInput{
		Shipping: req.Shipping,
		Notes:    req.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "failed to checkout")
		return
	}
	response.Success(c, order)
}
