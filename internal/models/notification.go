package models

import (
	"time"
)

// Notification 站内通知
type Notification struct {
	ID        uint       `gorm:"primarykey" json:"id"`                           // 主键
	UserID    uint       `gorm:"index;not null" json:"user_id"`                  // 接收人
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`        // 标题
	Message   string     `gorm:"type:text" json:"message"`                       // 内容
	TypeCode  string     `gorm:"type:varchar(20);index;not null" json:"type"`    // 类型（order/promotion/system...）
	ActionURL string     `gorm:"type:varchar(500)" json:"action_url,omitempty"`  // 跳转链接
	IsRead    bool       `gorm:"default:false;index" json:"is_read"`             // 是否已读
	ReadAt    *time.Time `json:"read_at,omitempty"`                              // 阅读时间
	CreatedAt time.Time  `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}
