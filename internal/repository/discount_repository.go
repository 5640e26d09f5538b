package repository

import (
	"errors"
	"time"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// DiscountRepository 折扣数据访问接口
type DiscountRepository interface {
	GetByID(id uint) (*models.Discount, error)
	Create(discount *models.Discount, productIDs, categoryIDs []uint) error
	Update(discount *models.Discount) error
	ReplaceScope(discount *models.Discount, productIDs, categoryIDs []uint) error
	Delete(id uint) error
	List(filter DiscountListFilter) ([]models.Discount, int64, error)
	ListCurrentlyActive(now time.Time) ([]models.Discount, error)
	ListForProduct(productID uint, categoryIDs []uint, createdBy uint) ([]models.Discount, error)
	ListCurrentlyActiveForProduct(productID uint, categoryIDs []uint, now time.Time) ([]models.Discount, error)
	TryIncrementUsage(id uint) (bool, error)
	StatsByCreator(createdBy uint, now time.Time) (*DiscountStatsRow, error)
	MostUsedByCreator(createdBy uint) (*models.Discount, error)
	ListByStatuses(statuses []string) ([]models.Discount, error)
	UpdateStatus(id uint, status string) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) DiscountRepository
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建折扣仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// Transaction 执行事务
func (r *GormDiscountRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func (r *GormDiscountRepository) withScope(query *gorm.DB) *gorm.DB {
	return query.Preload("Products").Preload("Categories")
}

// GetByID 根据 ID 获取折扣
func (r *GormDiscountRepository) GetByID(id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.withScope(r.db).First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// Create 创建折扣并写入适用范围
func (r *GormDiscountRepository) Create(discount *models.Discount, productIDs, categoryIDs []uint) error {
	if err := r.db.Omit("Products", "Categories").Create(discount).Error; err != nil {
		return err
	}
	return r.ReplaceScope(discount, productIDs, categoryIDs)
}

// Update 更新折扣字段（不含适用范围）
func (r *GormDiscountRepository) Update(discount *models.Discount) error {
	return r.db.Omit("Products", "Categories", "UsageCount").Save(discount).Error
}

// ReplaceScope 替换指定商品与分类
func (r *GormDiscountRepository) ReplaceScope(discount *models.Discount, productIDs, categoryIDs []uint) error {
	products := make([]models.Product, 0, len(productIDs))
	if len(productIDs) > 0 {
		if err := r.db.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return err
		}
	}
	categories := make([]models.Category, 0, len(categoryIDs))
	if len(categoryIDs) > 0 {
		if err := r.db.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
			return err
		}
	}
	if err := r.db.Model(discount).Association("Products").Replace(products); err != nil {
		return err
	}
	if err := r.db.Model(discount).Association("Categories").Replace(categories); err != nil {
		return err
	}
	discount.Products = products
	discount.Categories = categories
	return nil
}

// Delete 删除折扣，价格历史与核销记录的引用置空
func (r *GormDiscountRepository) Delete(id uint) error {
	discount := &models.Discount{ID: id}
	if err := r.db.Model(&models.PriceHistory{}).Where("discount_id = ?", id).
		UpdateColumn("discount_id", nil).Error; err != nil {
		return err
	}
	if err := r.db.Model(&models.DiscountUsage{}).Where("discount_id = ?", id).
		UpdateColumn("discount_id", nil).Error; err != nil {
		return err
	}
	if err := r.db.Model(&models.OrderItem{}).Where("discount_id = ?", id).
		UpdateColumn("discount_id", nil).Error; err != nil {
		return err
	}
	if err := r.db.Model(discount).Association("Products").Clear(); err != nil {
		return err
	}
	if err := r.db.Model(discount).Association("Categories").Clear(); err != nil {
		return err
	}
	return r.db.Delete(discount).Error
}

// List 折扣列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.Discount, int64, error) {
	query := r.db.Model(&models.Discount{})
	if filter.CreatedBy != 0 {
		query = query.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var discounts []models.Discount
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := r.withScope(query).Order("id desc").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

func currentlyActiveScope(query *gorm.DB, now time.Time) *gorm.DB {
	return query.Where("discounts.is_active = ?", true).
		Where("discounts.start_date <= ? AND discounts.end_date > ?", now, now).
		Where("discounts.usage_limit IS NULL OR discounts.usage_count < discounts.usage_limit")
}

// ListCurrentlyActive 当前生效中的折扣
func (r *GormDiscountRepository) ListCurrentlyActive(now time.Time) ([]models.Discount, error) {
	var discounts []models.Discount
	query := currentlyActiveScope(r.db.Model(&models.Discount{}), now)
	if err := r.withScope(query).Order("discounts.id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

func (r *GormDiscountRepository) productScope(query *gorm.DB, productID uint, categoryIDs []uint) *gorm.DB {
	byProduct := r.db.Table("discount_products").Select("discount_id").Where("product_id = ?", productID)
	if len(categoryIDs) == 0 {
		return query.Where("discounts.apply_to_all_products = ? OR discounts.id IN (?)", true, byProduct)
	}
	byCategory := r.db.Table("discount_categories").Select("discount_id").Where("category_id IN ?", categoryIDs)
	return query.Where("discounts.apply_to_all_products = ? OR discounts.id IN (?) OR discounts.id IN (?)",
		true, byProduct, byCategory)
}

// ListForProduct 适用于商品的全部折扣（不判断有效期），createdBy 为 0 时不限创建人
func (r *GormDiscountRepository) ListForProduct(productID uint, categoryIDs []uint, createdBy uint) ([]models.Discount, error) {
	query := r.productScope(r.db.Model(&models.Discount{}), productID, categoryIDs)
	if createdBy != 0 {
		query = query.Where("discounts.created_by = ?", createdBy)
	}
	var discounts []models.Discount
	if err := r.withScope(query).Order("discounts.id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// ListCurrentlyActiveForProduct 当前对商品生效的折扣
func (r *GormDiscountRepository) ListCurrentlyActiveForProduct(productID uint, categoryIDs []uint, now time.Time) ([]models.Discount, error) {
	query := r.productScope(r.db.Model(&models.Discount{}), productID, categoryIDs)
	query = currentlyActiveScope(query, now)
	var discounts []models.Discount
	if err := r.withScope(query).Order("discounts.id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// TryIncrementUsage 原子占用一次使用次数，达到上限时返回 false
func (r *GormDiscountRepository) TryIncrementUsage(id uint) (bool, error) {
	result := r.db.Model(&models.Discount{}).
		Where("id = ?", id).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// StatsByCreator 按创建人统计折扣
func (r *GormDiscountRepository) StatsByCreator(createdBy uint, now time.Time) (*DiscountStatsRow, error) {
	base := func() *gorm.DB {
		return r.db.Model(&models.Discount{}).Where("created_by = ?", createdBy)
	}
	stats := &DiscountStatsRow{}
	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ? AND start_date <= ? AND end_date > ?", true, now, now).
		Count(&stats.Active).Error; err != nil {
		return nil, err
	}
	if err := base().Where("is_active = ? AND start_date > ?", true, now).
		Count(&stats.Upcoming).Error; err != nil {
		return nil, err
	}
	if err := base().Where("end_date <= ?", now).Count(&stats.Expired).Error; err != nil {
		return nil, err
	}
	var usage struct {
		Total int64
	}
	if err := base().Select("COALESCE(SUM(usage_count), 0) AS total").Scan(&usage).Error; err != nil {
		return nil, err
	}
	stats.TotalUsage = usage.Total
	return stats, nil
}

// MostUsedByCreator 使用次数最多的折扣
func (r *GormDiscountRepository) MostUsedByCreator(createdBy uint) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.Where("created_by = ?", createdBy).
		Order("usage_count desc, id asc").
		First(&discount).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// ListByStatuses 按派生状态筛选折扣（不含适用范围）
func (r *GormDiscountRepository) ListByStatuses(statuses []string) ([]models.Discount, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	var discounts []models.Discount
	if err := r.db.Where("status IN ?", statuses).Order("id asc").Find(&discounts).Error; err != nil {
		return nil, err
	}
	return discounts, nil
}

// UpdateStatus 仅更新派生状态
func (r *GormDiscountRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Discount{}).Where("id = ?", id).UpdateColumn("status", status).Error
}
