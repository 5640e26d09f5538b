package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem 订单项，单价为下单时快照
type OrderItem struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                          // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                                // 订单ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                              // 商品ID
	ProductTitle   string    `gorm:"type:varchar(200)" json:"product_title"`                        // 标题快照
	ProductSlug    string    `gorm:"type:varchar(255)" json:"product_slug"`                         // Slug 快照
	Quantity       int       `gorm:"not null" json:"quantity"`                                      // 数量
	Price          Money     `gorm:"type:decimal(10,2);not null" json:"price"`                      // 单价快照
	Total          Money     `gorm:"type:decimal(10,2);not null;default:0" json:"total"`            // quantity × price
	DiscountID     *uint     `gorm:"index" json:"discount_id,omitempty"`                            // 结算时使用的折扣
	DiscountAmount Money     `gorm:"type:decimal(10,2);not null;default:0" json:"discount_amount"`  // 行优惠
	CreatedAt      time.Time `json:"created_at"`                                                    // 创建时间
	UpdatedAt      time.Time `json:"updated_at"`                                                    // 更新时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

// LineTotal 计算行合计
func (i *OrderItem) LineTotal() decimal.Decimal {
	return RoundMoney(i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))))
}
