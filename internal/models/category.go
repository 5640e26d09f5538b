package models

import (
	"time"
)

// Category 商品分类（树形）
type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`                           // 主键
	ParentID    *uint     `gorm:"index" json:"parent_id,omitempty"`               // 父分类ID
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`         // 名称
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"` // 唯一标识
	Description string    `gorm:"type:text" json:"description"`                   // 描述
	IsActive    bool      `gorm:"default:true;index" json:"is_active"`            // 是否启用
	SortOrder   int       `gorm:"default:0;index" json:"sort_order"`              // 排序权重
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                        // 创建时间
	UpdatedAt   time.Time `json:"updated_at"`                                     // 更新时间

	Parent *Category `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
