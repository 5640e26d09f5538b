package models

// OrderStatus 可配置订单状态
type OrderStatus struct {
	ID          uint   `gorm:"primarykey;autoIncrement:false" json:"id"`              // 主键（种子数据固定）
	Code        string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`     // 编码
	Name        string `gorm:"type:varchar(50);not null" json:"name"`                 // 名称
	Description string `gorm:"type:text" json:"description"`                          // 描述
	Color       string `gorm:"type:varchar(7);default:'#000000'" json:"color"`        // 展示颜色
	SortOrder   int    `gorm:"default:0" json:"order"`                                // 排序
	IsActive    bool   `gorm:"not null;index" json:"is_active"`                       // 是否启用
}

// TableName 指定表名
func (OrderStatus) TableName() string {
	return "order_statuses"
}

// PaymentStatus 可配置支付状态
type PaymentStatus struct {
	ID          uint   `gorm:"primarykey;autoIncrement:false" json:"id"`
	Code        string `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Name        string `gorm:"type:varchar(50);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	SortOrder   int    `gorm:"default:0" json:"order"`
	IsActive    bool   `gorm:"not null;index" json:"is_active"`
}

// TableName 指定表名
func (PaymentStatus) TableName() string {
	return "payment_statuses"
}
