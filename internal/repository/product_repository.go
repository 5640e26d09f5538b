package repository

import (
	"errors"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 商品数据访问接口
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	CountByIDsAndVendor(ids []uint, vendorID uint) (int64, error)
	List(filter ProductListFilter) ([]models.Product, int64, error)
	Create(product *models.Product, categoryIDs []uint) error
	Update(product *models.Product) error
	ReplaceCategories(product *models.Product, categoryIDs []uint) error
	Delete(id uint) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

// Transaction 执行事务
func (r *GormProductRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取商品（含分类）
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Categories").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetBySlug 根据 slug 获取商品
func (r *GormProductRepository) GetBySlug(slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// ListByIDs 批量获取商品
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.Preload("Categories").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// CountByIDsAndVendor 统计属于商家的商品数量
func (r *GormProductRepository) CountByIDsAndVendor(ids []uint, vendorID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("id IN ? AND vendor_id = ?", ids, vendorID).
		Count(&count).Error
	return count, err
}

// List 商品列表
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := r.db.Model(&models.Product{})
	if filter.VendorID != 0 {
		query = query.Where("products.vendor_id = ?", filter.VendorID)
	}
	if filter.OnlyActive {
		query = query.Where("products.is_active = ?", true)
	}
	if filter.CategoryID != 0 {
		query = query.Where("products.id IN (?)",
			r.db.Table("product_categories").Select("product_id").Where("category_id = ?", filter.CategoryID))
	}
	if filter.Search != "" {
		condition, args := buildLikeCondition(r.db, filter.Search, "products.title", "products.slug")
		query = query.Where(condition, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []models.Product
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Categories").Order("products.id desc").Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Create 创建商品并关联分类
func (r *GormProductRepository) Create(product *models.Product, categoryIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(product).Error; err != nil {
			return err
		}
		return replaceProductCategories(tx, product, categoryIDs)
	})
}

// Update 更新商品基础字段
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Omit("Categories").Save(product).Error
}

// ReplaceCategories 替换商品分类
func (r *GormProductRepository) ReplaceCategories(product *models.Product, categoryIDs []uint) error {
	return replaceProductCategories(r.db, product, categoryIDs)
}

// Delete 软删除商品，历史订单项保留引用
func (r *GormProductRepository) Delete(id uint) error {
	return r.db.Delete(&models.Product{}, id).Error
}

func replaceProductCategories(db *gorm.DB, product *models.Product, categoryIDs []uint) error {
	categories := make([]models.Category, 0, len(categoryIDs))
	if len(categoryIDs) > 0 {
		if err := db.Where("id IN ?", categoryIDs).Find(&categories).Error; err != nil {
			return err
		}
	}
	if err := db.Model(product).Association("Categories").Replace(categories); err != nil {
		return err
	}
	product.Categories = categories
	return nil
}
