package service

import (
	"errors"
	"fmt"
	"strings"
)

// 错误类别，处理层通过 errors.Is 归类到 HTTP 状态
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrPermission   = errors.New("permission denied")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap 归类为 ErrValidation
func (e *FieldError) Unwrap() error { return ErrValidation }

// FieldErrors 多个字段错误
type FieldErrors []*FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Unwrap 归类为 ErrValidation，同时暴露每个字段错误
func (e FieldErrors) Unwrap() []error {
	list := make([]error, 0, len(e)+1)
	list = append(list, ErrValidation)
	for _, fe := range e {
		list = append(list, fe)
	}
	return list
}

func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e *FieldErrors) add(field, message string) {
	*e = append(*e, &FieldError{Field: field, Message: message})
}

// 未找到
var (
	ErrOrderNotFound         = newKindError(ErrNotFound, "order not found")
	ErrOrderItemNotFound     = newKindError(ErrNotFound, "order item not found")
	ErrProductNotFound       = newKindError(ErrNotFound, "product not found")
	ErrCategoryNotFound      = newKindError(ErrNotFound, "category not found")
	ErrDiscountNotFound      = newKindError(ErrNotFound, "discount not found")
	ErrOrderStatusNotFound   = newKindError(ErrNotFound, "order status not found")
	ErrPaymentStatusNotFound = newKindError(ErrNotFound, "payment status not found")
)

// 参数校验
var (
	ErrInvalidQuantity         = &FieldError{Field: "quantity", Message: "quantity must be at least 1"}
	ErrInvalidPrice            = &FieldError{Field: "price", Message: "price must not be negative"}
	ErrShippingAddressRequired = &FieldError{Field: "shipping_address", Message: "shipping address, city and country are required"}
	ErrStatusCodeRequired      = &FieldError{Field: "status", Message: "status code is required"}
	ErrInvalidDiscountType     = &FieldError{Field: "discount_type", Message: "discount_type must be percentage, fixed or buy_x_get_y"}
	ErrItemsRequired           = &FieldError{Field: "items", Message: "at least one item is required"}
	ErrNameRequired            = &FieldError{Field: "name", Message: "name is required"}
	ErrTitleRequired           = &FieldError{Field: "title", Message: "title is required"}
	ErrInvalidStock            = &FieldError{Field: "stock_quantity", Message: "stock_quantity must not be negative"}
)

// 状态冲突
var (
	ErrOrderNotCart          = newKindError(ErrInvalidState, "order items can only be changed while the order is a cart")
	ErrOrderStatusInvalid    = newKindError(ErrInvalidState, "order status transition not allowed")
	ErrOrderCannotCancel     = newKindError(ErrInvalidState, "order cannot be cancelled in its current status")
	ErrCartEmpty             = newKindError(ErrInvalidState, "cart is empty")
	ErrCartNotFound          = newKindError(ErrNotFound, "no open cart")
	ErrDiscountNotActive     = newKindError(ErrInvalidState, "discount is not currently active")
	ErrDiscountNotApplicable = newKindError(ErrInvalidState, "discount does not apply to this product")
	ErrOrderConcurrentUpdate = newKindError(ErrInvalidState, "order was modified concurrently, retry")
	ErrPaymentStatusInvalid  = newKindError(ErrInvalidState, "payment status transition not allowed")
	ErrSlugConflict          = newKindError(ErrInvalidState, "slug already exists")
	ErrStatusCodeConflict    = newKindError(ErrInvalidState, "status code already exists")
	ErrOrderNumberExhausted  = errors.New("order number generation exhausted")
)

// 权限
var (
	ErrDiscountForbidden     = newKindError(ErrPermission, "discount belongs to another vendor")
	ErrProductForbidden      = newKindError(ErrPermission, "product belongs to another vendor")
	ErrPriceHistoryForbidden = newKindError(ErrPermission, "price history is visible to the product owner only")
	ErrVendorOnly            = newKindError(ErrPermission, "vendor or admin role required")
	ErrAdminOnly             = newKindError(ErrPermission, "admin role required")
)
