package models

import (
	"time"
)

// DiscountUsage 折扣核销记录，同一订单同一商品同一折扣至多一条
type DiscountUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                                  // 主键
	DiscountID     *uint     `gorm:"uniqueIndex:idx_discount_usage_once" json:"discount_id,omitempty"`      // 折扣ID，删除折扣时置空
	OrderID        uint      `gorm:"uniqueIndex:idx_discount_usage_once;not null" json:"order_id"`          // 订单ID
	ProductID      uint      `gorm:"uniqueIndex:idx_discount_usage_once;not null" json:"product_id"`        // 商品ID
	UserID         uint      `gorm:"index;not null" json:"user_id"`                                         // 用户ID
	OriginalPrice  Money     `gorm:"type:decimal(10,2);not null" json:"original_price"`                     // 原价（行合计）
	DiscountAmount Money     `gorm:"type:decimal(10,2);not null" json:"discount_amount"`                    // 优惠金额
	FinalPrice     Money     `gorm:"type:decimal(10,2);not null" json:"final_price"`                        // 折后金额
	UsedAt         time.Time `gorm:"index" json:"used_at"`                                                  // 使用时间

	Discount *Discount `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL" json:"discount,omitempty"`
	Order    *Order    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (DiscountUsage) TableName() string {
	return "discount_usages"
}
