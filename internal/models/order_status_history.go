package models

import (
	"time"
)

// OrderStatusHistory 订单状态流转审计（只追加）
type OrderStatusHistory struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OrderID   uint      `gorm:"index;not null" json:"order_id"`
	StatusID  uint      `gorm:"index;not null" json:"status_id"`
	Note      string    `gorm:"type:text" json:"note"`
	CreatedBy *uint     `gorm:"index" json:"created_by,omitempty"` // 操作人
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	Status OrderStatus `gorm:"foreignKey:StatusID" json:"status"`
}

// TableName 指定表名
func (OrderStatusHistory) TableName() string {
	return "order_status_histories"
}
