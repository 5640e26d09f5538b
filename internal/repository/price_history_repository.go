package repository

import (
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// PriceHistoryRepository 价格历史数据访问接口
type PriceHistoryRepository interface {
	Create(entries ...*models.PriceHistory) error
	CloseOpenBase(productID uint, at time.Time) error
	ListByProduct(productID uint) ([]models.PriceHistory, error)
	WithTx(tx *gorm.DB) PriceHistoryRepository
}

// GormPriceHistoryRepository GORM 实现
type GormPriceHistoryRepository struct {
	db *gorm.DB
}

// NewPriceHistoryRepository 创建价格历史仓库
func NewPriceHistoryRepository(db *gorm.DB) *GormPriceHistoryRepository {
	return &GormPriceHistoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPriceHistoryRepository) WithTx(tx *gorm.DB) PriceHistoryRepository {
	if tx == nil {
		return r
	}
	return &GormPriceHistoryRepository{db: tx}
}

// Create 追加价格快照
func (r *GormPriceHistoryRepository) Create(entries ...*models.PriceHistory) error {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if err := r.db.Create(entry).Error; err != nil {
			return err
		}
	}
	return nil
}

// CloseOpenBase 关闭未结束的基础价格区间（不含折扣快照）
func (r *GormPriceHistoryRepository) CloseOpenBase(productID uint, at time.Time) error {
	return r.db.Model(&models.PriceHistory{}).
		Where("product_id = ? AND end_date IS NULL AND discount_id IS NULL", productID).
		UpdateColumn("end_date", at).Error
}

// ListByProduct 商品价格历史（新到旧）
func (r *GormPriceHistoryRepository) ListByProduct(productID uint) ([]models.PriceHistory, error) {
	var entries []models.PriceHistory
	if err := r.db.Preload("Discount").
		Where("product_id = ?", productID).
		Order("start_date desc, id desc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
