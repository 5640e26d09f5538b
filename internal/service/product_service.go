package service

import (
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 商品业务服务
type ProductService struct {
	repo             repository.ProductRepository
	categoryRepo     repository.CategoryRepository
	priceHistoryRepo repository.PriceHistoryRepository
	now              func() time.Time
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, categoryRepo repository.CategoryRepository, priceHistoryRepo repository.PriceHistoryRepository) *ProductService {
	return &ProductService{
		repo:             repo,
		categoryRepo:     categoryRepo,
		priceHistoryRepo: priceHistoryRepo,
		now:              time.Now,
	}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	VendorID      uint
	Title         string
	Slug          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	CategoryIDs   []uint
	IsActive      *bool
}

// ListPublic 获取上架商品列表
func (s *ProductService) ListPublic(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	filter.VendorID = 0
	return s.repo.List(filter)
}

// GetPublic 获取上架商品详情
func (s *ProductService) GetPublic(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListVendorProducts 商家商品列表，管理员查看全部
func (s *ProductService) ListVendorProducts(actor Actor, filter repository.ProductListFilter) ([]models.Product, int64, error) {
	if !actor.canManageCatalog() {
		return nil, 0, ErrVendorOnly
	}
	if !actor.IsAdmin() {
		filter.VendorID = actor.UserID
	}
	return s.repo.List(filter)
}

// Create 创建商品并开启基础价格区间
func (s *ProductService) Create(actor Actor, input ProductInput) (*models.Product, error) {
	if !actor.canManageCatalog() {
		return nil, ErrVendorOnly
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	categoryIDs := uniqueIDs(input.CategoryIDs)
	if err := s.checkCategories(categoryIDs); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	productSlug, err := s.resolveSlug(input.Slug, title, 0)
	if err != nil {
		return nil, err
	}

	vendorID := actor.UserID
	if actor.IsAdmin() && input.VendorID != 0 {
		vendorID = input.VendorID
	}
	product := &models.Product{
		VendorID:      vendorID,
		Title:         title,
		Slug:          productSlug,
		Description:   strings.TrimSpace(input.Description),
		Price:         models.NewMoneyFromDecimal(input.Price),
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	now := s.now().UTC()
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(product, categoryIDs); err != nil {
			return err
		}
		return s.priceHistoryRepo.WithTx(tx).Create(basePriceEntry(product, now))
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}
	logger.Infow("product_created", "product_id", product.ID, "vendor_id", vendorID)
	return product, nil
}

// Update 更新商品；价格变化时关闭旧区间并开启新区间
func (s *ProductService) Update(actor Actor, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.getOwned(actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateProductInput(input); err != nil {
		return nil, err
	}
	categoryIDs := uniqueIDs(input.CategoryIDs)
	if err := s.checkCategories(categoryIDs); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if raw := strings.TrimSpace(input.Slug); raw != "" && raw != product.Slug {
		productSlug, err := s.resolveSlug(raw, title, product.ID)
		if err != nil {
			return nil, err
		}
		product.Slug = productSlug
	}

	newPrice := models.NewMoneyFromDecimal(input.Price)
	priceChanged := !newPrice.Equal(product.Price.Decimal)
	product.Title = title
	product.Description = strings.TrimSpace(input.Description)
	product.Price = newPrice
	product.StockQuantity = input.StockQuantity
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	now := s.now().UTC()
	err = s.repo.Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(product); err != nil {
			return err
		}
		if err := repo.ReplaceCategories(product, categoryIDs); err != nil {
			return err
		}
		if !priceChanged {
			return nil
		}
		history := s.priceHistoryRepo.WithTx(tx)
		if err := history.CloseOpenBase(product.ID, now); err != nil {
			return err
		}
		return history.Create(basePriceEntry(product, now))
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrSlugConflict
		}
		return nil, err
	}
	if priceChanged {
		logger.Infow("product_price_changed", "product_id", product.ID, "price", product.Price.String())
	}
	return product, nil
}

// Delete 软删除商品
func (s *ProductService) Delete(actor Actor, id uint) error {
	if _, err := s.getOwned(actor, id); err != nil {
		return err
	}
	return s.repo.Delete(id)
}

// PriceHistory 商品价格历史，仅商品所属商家与管理员可见
func (s *ProductService) PriceHistory(actor Actor, productID uint) ([]models.PriceHistory, error) {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !actor.IsAdmin() && !(actor.IsVendor() && product.VendorID == actor.UserID) {
		return nil, ErrPriceHistoryForbidden
	}
	return s.priceHistoryRepo.ListByProduct(product.ID)
}

func (s *ProductService) getOwned(actor Actor, id uint) (*models.Product, error) {
	if !actor.canManageCatalog() {
		return nil, ErrVendorOnly
	}
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !actor.IsAdmin() && product.VendorID != actor.UserID {
		return nil, ErrProductForbidden
	}
	return product, nil
}

func (s *ProductService) checkCategories(ids []uint) error {
	for _, id := range ids {
		category, err := s.categoryRepo.GetByID(id)
		if err != nil {
			return err
		}
		if category == nil {
			return ErrCategoryNotFound
		}
	}
	return nil
}

func (s *ProductService) resolveSlug(explicit, title string, selfID uint) (string, error) {
	return resolveUniqueSlug(explicit, title, func(candidate string) (bool, error) {
		existing, err := s.repo.GetBySlug(candidate)
		if err != nil {
			return false, err
		}
		return existing != nil && existing.ID != selfID, nil
	})
}

func validateProductInput(input ProductInput) error {
	var errs FieldErrors
	if strings.TrimSpace(input.Title) == "" {
		errs = append(errs, ErrTitleRequired)
	}
	if input.Price.IsNegative() {
		errs = append(errs, ErrInvalidPrice)
	}
	if input.StockQuantity < 0 {
		errs = append(errs, ErrInvalidStock)
	}
	return errs.orNil()
}

// basePriceEntry 不含折扣的价格区间
func basePriceEntry(product *models.Product, at time.Time) *models.PriceHistory {
	return &models.PriceHistory{
		ProductID:       product.ID,
		OriginalPrice:   product.Price,
		DiscountedPrice: product.Price,
		StartDate:       at,
	}
}
