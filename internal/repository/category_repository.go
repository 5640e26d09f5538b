package repository

import (
	"errors"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	GetByID(id uint) (*models.Category, error)
	GetBySlug(slug string) (*models.Category, error)
	List(filter CategoryListFilter) ([]models.Category, error)
	ListIDsWithVendorProducts(ids []uint, vendorID uint) ([]uint, error)
	Create(category *models.Category) error
	Update(category *models.Category) error
}

// GormCategoryRepository GORM 实现
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// GetByID 根据 ID 获取分类
func (r *GormCategoryRepository) GetByID(id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// GetBySlug 根据 slug 获取分类
func (r *GormCategoryRepository) GetBySlug(slug string) (*models.Category, error) {
	var category models.Category
	if err := r.db.Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// List 分类列表
func (r *GormCategoryRepository) List(filter CategoryListFilter) ([]models.Category, error) {
	query := r.db.Model(&models.Category{})
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	var categories []models.Category
	if err := query.Order("sort_order asc, name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// ListIDsWithVendorProducts 过滤出包含商家商品的分类ID
func (r *GormCategoryRepository) ListIDsWithVendorProducts(ids []uint, vendorID uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var result []uint
	err := r.db.Table("product_categories").
		Joins("JOIN products ON products.id = product_categories.product_id AND products.deleted_at IS NULL").
		Where("product_categories.category_id IN ? AND products.vendor_id = ?", ids, vendorID).
		Distinct().
		Pluck("product_categories.category_id", &result).Error
	return result, err
}

// Create 创建分类
func (r *GormCategoryRepository) Create(category *models.Category) error {
	return r.db.Create(category).Error
}

// Update 更新分类
func (r *GormCategoryRepository) Update(category *models.Category) error {
	return r.db.Save(category).Error
}
