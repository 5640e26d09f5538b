package models

import (
	"time"
)

// Discount 折扣规则
type Discount struct {
	ID                 uint      `gorm:"primarykey" json:"id"`                                             // 主键
	Name               string    `gorm:"type:varchar(200);not null" json:"name"`                           // 名称
	Description        string    `gorm:"type:text" json:"description"`                                     // 描述
	DiscountType       string    `gorm:"type:varchar(20);not null;index" json:"discount_type"`             // 类型（percentage/fixed/buy_x_get_y）
	Percentage         *Money    `gorm:"type:decimal(5,2)" json:"percentage,omitempty"`                    // 百分比
	FixedAmount        *Money    `gorm:"type:decimal(10,2)" json:"fixed_amount,omitempty"`                 // 固定减免金额
	BuyQuantity        *int      `json:"buy_quantity,omitempty"`                                           // 买 X
	GetQuantity        *int      `json:"get_quantity,omitempty"`                                           // 送 Y
	StartDate          time.Time `gorm:"index;not null" json:"start_date"`                                 // 生效开始
	EndDate            time.Time `gorm:"index;not null" json:"end_date"`                                   // 生效结束（不含）
	ApplyToAllProducts bool      `gorm:"default:false" json:"apply_to_all_products"`                       // 是否适用全部商品
	UsageLimit         *int      `json:"usage_limit,omitempty"`                                            // 使用上限（空为不限）
	UsageCount         int       `gorm:"not null;default:0" json:"usage_count"`                            // 已使用次数，只增不减
	MinOrderAmount     Money     `gorm:"type:decimal(10,2);not null;default:0" json:"min_order_amount"`    // 最低订单金额
	MaxDiscountAmount  *Money    `gorm:"type:decimal(10,2)" json:"max_discount_amount,omitempty"`          // 百分比折扣封顶
	Status             string    `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"` // 派生状态
	IsActive           bool      `gorm:"not null;default:false;index" json:"is_active"`                   // 是否启用（取消即置为 false）
	CreatedBy          uint      `gorm:"index;not null" json:"created_by"`                                 // 创建人
	CreatedAt          time.Time `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt          time.Time `json:"updated_at"`                                                       // 更新时间

	Products   []Product  `gorm:"many2many:discount_products" json:"products,omitempty"`     // 指定商品
	Categories []Category `gorm:"many2many:discount_categories" json:"categories,omitempty"` // 指定分类
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}
