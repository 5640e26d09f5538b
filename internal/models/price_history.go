package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory 商品价格快照（只追加）
type PriceHistory struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                      // 主键
	ProductID       uint       `gorm:"index;not null" json:"product_id"`                          // 商品ID
	OriginalPrice   Money      `gorm:"type:decimal(10,2);not null" json:"original_price"`         // 原价
	DiscountedPrice Money      `gorm:"type:decimal(10,2);not null" json:"discounted_price"`       // 折后价
	DiscountID      *uint      `gorm:"index" json:"discount_id,omitempty"`                        // 关联折扣，删除折扣时置空
	StartDate       time.Time  `gorm:"index;not null" json:"start_date"`                          // 生效开始
	EndDate         *time.Time `gorm:"index" json:"end_date,omitempty"`                           // 生效结束，空表示仍在生效
	CreatedAt       time.Time  `json:"created_at"`                                                // 创建时间

	Discount *Discount `gorm:"foreignKey:DiscountID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName 指定表名
func (PriceHistory) TableName() string {
	return "price_histories"
}

// DiscountAmount 折扣金额
func (h *PriceHistory) DiscountAmount() decimal.Decimal {
	return RoundMoney(h.OriginalPrice.Sub(h.DiscountedPrice.Decimal))
}

// DiscountPercentage 折扣百分比
func (h *PriceHistory) DiscountPercentage() decimal.Decimal {
	if !h.OriginalPrice.IsPositive() {
		return decimal.Zero
	}
	return RoundMoney(h.DiscountAmount().Div(h.OriginalPrice.Decimal).Mul(decimal.NewFromInt(100)))
}

// IsCurrent 在给定时刻是否生效
func (h *PriceHistory) IsCurrent(now time.Time) bool {
	if now.Before(h.StartDate) {
		return false
	}
	return h.EndDate == nil || now.Before(*h.EndDate)
}
