package models

import (
	"time"
)

// Order 订单表（cart 状态即购物车）
type Order struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                           // 主键
	OrderNumber     string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`      // 订单编号，生成后不可变
	UserID          uint       `gorm:"index;not null" json:"user_id"`                                  // 用户ID
	StatusID        uint       `gorm:"index;not null" json:"status_id"`                                // 订单状态
	PaymentStatusID uint       `gorm:"index;not null" json:"payment_status_id"`                        // 支付状态
	CartOwner       *uint      `gorm:"uniqueIndex:idx_orders_cart_owner" json:"-"`                     // 购物车归属用户，仅 cart 状态非空，保证每个用户最多一个购物车
	Subtotal        Money      `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`          // 商品小计
	TaxAmount       Money      `gorm:"type:decimal(10,2);not null;default:0" json:"tax_amount"`        // 税费
	ShippingCost    Money      `gorm:"type:decimal(10,2);not null;default:0" json:"shipping_cost"`     // 运费
	DiscountAmount  Money      `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`   // 优惠金额
	Total           Money      `gorm:"type:decimal(10,2);not null;default:0" json:"total"`             // 应付金额
	ShippingAddress string     `gorm:"type:text" json:"shipping_address"`                              // 收货地址
	ShippingCity    string     `gorm:"type:varchar(100)" json:"shipping_city"`                         // 城市
	ShippingState   string     `gorm:"type:varchar(100)" json:"shipping_state"`                        // 省/州
	ShippingZipcode string     `gorm:"type:varchar(20)" json:"shipping_zipcode"`                       // 邮编
	ShippingCountry string     `gorm:"type:varchar(100)" json:"shipping_country"`                      // 国家
	Notes           string     `gorm:"type:text" json:"notes"`                                         // 备注
	TrackingNumber  string     `gorm:"type:varchar(100)" json:"tracking_number"`                       // 物流单号
	Version         int        `gorm:"not null;default:1" json:"version"`                              // 乐观锁版本
	PaidAt          *time.Time `gorm:"index" json:"paid_at"`                                           // 首次支付时间
	DeliveredAt     *time.Time `gorm:"index" json:"delivered_at"`                                      // 首次送达时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                        // 更新时间

	Status        OrderStatus          `gorm:"foreignKey:StatusID" json:"status"`
	PaymentStatus PaymentStatus        `gorm:"foreignKey:PaymentStatusID" json:"payment_status"`
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_history,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// ShippingInfo 收货信息
type ShippingInfo struct {
	Address string `json:"shipping_address"`
	City    string `json:"shipping_city"`
	State   string `json:"shipping_state"`
	Zipcode string `json:"shipping_zipcode"`
	Country string `json:"shipping_country"`
}

// ApplyShipping 覆盖非空收货字段
func (o *Order) ApplyShipping(info ShippingInfo) {
	if info.Address != "" {
		o.ShippingAddress = info.Address
	}
	if info.City != "" {
		o.ShippingCity = info.City
	}
	if info.State != "" {
		o.ShippingState = info.State
	}
	if info.Zipcode != "" {
		o.ShippingZipcode = info.Zipcode
	}
	if info.Country != "" {
		o.ShippingCountry = info.Country
	}
}

// HasShippingAddress 是否已填写收货地址
func (o *Order) HasShippingAddress() bool {
	return o.ShippingAddress != "" && o.ShippingCity != "" && o.ShippingCountry != ""
}
