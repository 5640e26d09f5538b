package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                  // 主键
	VendorID      uint           `gorm:"index;not null" json:"vendor_id"`                       // 所属商家
	Title         string         `gorm:"type:varchar(200);not null" json:"title"`               // 标题
	Slug          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`    // 唯一标识
	Description   string         `gorm:"type:text" json:"description"`                          // 描述
	Price         Money          `gorm:"type:decimal(10,2);not null;default:0" json:"price"`    // 当前价格
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`              // 库存
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                   // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                               // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                            // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                        // 软删除时间，历史订单项依赖商品行

	Categories []Category `gorm:"many2many:product_categories" json:"categories,omitempty"` // 所属分类
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// CategoryIDs 返回商品所属分类ID
func (p *Product) CategoryIDs() []uint {
	if p == nil {
		return nil
	}
	ids := make([]uint, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// InStock 是否有库存
func (p *Product) InStock() bool {
	return p != nil && p.StockQuantity > 0
}
