package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	VendorID   uint
	CategoryID uint
	Search     string
	OnlyActive bool
}

// CategoryListFilter 查询分类列表的过滤条件
type CategoryListFilter struct {
	ParentID   *uint
	OnlyActive bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	StatusCode  string
	OrderNumber string
	ExcludeCart bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// DiscountListFilter 查询折扣列表的过滤条件
type DiscountListFilter struct {
	Page      int
	PageSize  int
	CreatedBy uint
	Status    string
}

// DiscountUsageListFilter 查询折扣核销记录的过滤条件
type DiscountUsageListFilter struct {
	Page              int
	PageSize          int
	DiscountID        uint
	DiscountCreatedBy uint
	UserID            uint
}

// DiscountStatsRow 商家折扣统计
type DiscountStatsRow struct {
	Total      int64
	Active     int64
	Upcoming   int64
	Expired    int64
	TotalUsage int64
}
