package constants

// 订单状态编码（对应 order_statuses.code）
const (
	OrderStatusCart       = "cart"
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
	// OrderStatusPaid 非预置状态，若运营新增该编码则同样触发 paid_at
	OrderStatusPaid = "paid"
)

// 支付状态编码（对应 payment_statuses.code）
const (
	PaymentStatusPending           = "pending"
	PaymentStatusPaid              = "paid"
	PaymentStatusFailed            = "failed"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"
)

// 折扣类型
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
	DiscountTypeBuyXGetY   = "buy_x_get_y"
)

// 折扣派生状态
const (
	DiscountStatusScheduled = "scheduled"
	DiscountStatusActive    = "active"
	DiscountStatusExpired   = "expired"
	DiscountStatusCancelled = "cancelled"
)

// 通知类型编码
const (
	NotificationTypeOrder     = "order"
	NotificationTypePromotion = "promotion"
	NotificationTypeSecurity  = "security"
	NotificationTypeSystem    = "system"
	NotificationTypeProduct   = "product"
)

// 用户角色
const (
	RoleCustomer = "customer"
	RoleVendor   = "vendor"
	RoleAdmin    = "admin"
)

// 缓存 key
const (
	CacheKeyOrderStatuses   = "lookup:order_statuses"
	CacheKeyPaymentStatuses = "lookup:payment_statuses"
)

// 订单备注
const (
	OrderNoteCartCreated   = "Cart created"
	OrderNoteCreated       = "Order created"
	OrderNoteCancelledUser = "Order cancelled by user"
	OrderNoteStatusUpdated = "Status updated"
)

// 队列
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型
const (
	TaskNotifySend = "notify:send"
)
