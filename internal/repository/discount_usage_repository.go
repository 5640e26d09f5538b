package repository

import (
	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// DiscountUsageRepository 折扣核销记录数据访问接口
type DiscountUsageRepository interface {
	Create(usage *models.DiscountUsage) error
	List(filter DiscountUsageListFilter) ([]models.DiscountUsage, int64, error)
	ListByOrder(orderID uint) ([]models.DiscountUsage, error)
	WithTx(tx *gorm.DB) DiscountUsageRepository
}

// GormDiscountUsageRepository GORM 实现
type GormDiscountUsageRepository struct {
	db *gorm.DB
}

// NewDiscountUsageRepository 创建核销记录仓库
func NewDiscountUsageRepository(db *gorm.DB) *GormDiscountUsageRepository {
	return &GormDiscountUsageRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountUsageRepository) WithTx(tx *gorm.DB) DiscountUsageRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountUsageRepository{db: tx}
}

// Create 创建核销记录
func (r *GormDiscountUsageRepository) Create(usage *models.DiscountUsage) error {
	return r.db.Create(usage).Error
}

// List 核销记录列表
func (r *GormDiscountUsageRepository) List(filter DiscountUsageListFilter) ([]models.DiscountUsage, int64, error) {
	query := r.db.Model(&models.DiscountUsage{})
	if filter.DiscountID != 0 {
		query = query.Where("discount_usages.discount_id = ?", filter.DiscountID)
	}
	if filter.UserID != 0 {
		query = query.Where("discount_usages.user_id = ?", filter.UserID)
	}
	if filter.DiscountCreatedBy != 0 {
		query = query.Where("discount_usages.discount_id IN (?)",
			r.db.Model(&models.Discount{}).Select("id").Where("created_by = ?", filter.DiscountCreatedBy))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var usages []models.DiscountUsage
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Discount").Order("discount_usages.id desc").Find(&usages).Error; err != nil {
		return nil, 0, err
	}
	return usages, total, nil
}

// ListByOrder 订单的核销记录
func (r *GormDiscountUsageRepository) ListByOrder(orderID uint) ([]models.DiscountUsage, error) {
	var usages []models.DiscountUsage
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}
