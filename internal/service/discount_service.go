package service

import (
	"errors"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountService 折扣服务
type DiscountService struct {
	discountRepo     repository.DiscountRepository
	productRepo      repository.ProductRepository
	categoryRepo     repository.CategoryRepository
	usageRepo        repository.DiscountUsageRepository
	priceHistoryRepo repository.PriceHistoryRepository
	now              func() time.Time
}

// NewDiscountService 创建折扣服务
func NewDiscountService(
	discountRepo repository.DiscountRepository,
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	usageRepo repository.DiscountUsageRepository,
	priceHistoryRepo repository.PriceHistoryRepository,
) *DiscountService {
	return &DiscountService{
		discountRepo:     discountRepo,
		productRepo:      productRepo,
		categoryRepo:     categoryRepo,
		usageRepo:        usageRepo,
		priceHistoryRepo: priceHistoryRepo,
		now:              time.Now,
	}
}

// VendorDiscountStats 商家折扣统计
type VendorDiscountStats struct {
	TotalDiscounts      int64                 `json:"total_discounts"`
	ActiveDiscounts     int64                 `json:"active_discounts"`
	UpcomingDiscounts   int64                 `json:"upcoming_discounts"`
	ExpiredDiscounts    int64                 `json:"expired_discounts"`
	TotalUsage          int64                 `json:"total_usage"`
	MostPopularDiscount *PopularDiscountBrief `json:"most_popular_discount"`
}

// PopularDiscountBrief 使用最多的折扣摘要
type PopularDiscountBrief struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// Create 创建折扣
func (s *DiscountService) Create(actor Actor, input DiscountInput) (*models.Discount, error) {
	if !actor.canManageCatalog() {
		return nil, ErrVendorOnly
	}
	if err := ValidateDiscount(input); err != nil {
		return nil, err
	}
	input.ProductIDs = uniqueIDs(input.ProductIDs)
	input.CategoryIDs = uniqueIDs(input.CategoryIDs)
	if err := s.checkScope(actor, input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	discount := &models.Discount{CreatedBy: actor.UserID, IsActive: true}
	applyDiscountInput(discount, input)
	refreshDiscountStatus(discount, now)

	err := s.discountRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.discountRepo.WithTx(tx).Create(discount, input.ProductIDs, input.CategoryIDs); err != nil {
			return err
		}
		return s.appendPriceSnapshots(tx, discount)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("discount_created", "discount_id", discount.ID, "created_by", actor.UserID, "type", discount.DiscountType)
	return discount, nil
}

// Update 全量更新折扣（usage_count 保持不变）
func (s *DiscountService) Update(actor Actor, id uint, input DiscountInput) (*models.Discount, error) {
	discount, err := s.getOwned(actor, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateDiscount(input); err != nil {
		return nil, err
	}
	input.ProductIDs = uniqueIDs(input.ProductIDs)
	input.CategoryIDs = uniqueIDs(input.CategoryIDs)
	if err := s.checkScope(actor, input); err != nil {
		return nil, err
	}

	applyDiscountInput(discount, input)
	refreshDiscountStatus(discount, s.now().UTC())

	err = s.discountRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.discountRepo.WithTx(tx)
		if err := repo.Update(discount); err != nil {
			return err
		}
		if err := repo.ReplaceScope(discount, input.ProductIDs, input.CategoryIDs); err != nil {
			return err
		}
		return s.appendPriceSnapshots(tx, discount)
	})
	if err != nil {
		return nil, err
	}
	return discount, nil
}

// Cancel 取消折扣，状态固定为 cancelled
func (s *DiscountService) Cancel(actor Actor, id uint) (*models.Discount, error) {
	discount, err := s.getOwned(actor, id)
	if err != nil {
		return nil, err
	}
	discount.IsActive = false
	refreshDiscountStatus(discount, s.now().UTC())
	if err := s.discountRepo.Update(discount); err != nil {
		return nil, err
	}
	logger.Infow("discount_cancelled", "discount_id", discount.ID, "actor_id", actor.UserID)
	return discount, nil
}

// Delete 删除折扣，价格历史与核销记录保留但解除关联
func (s *DiscountService) Delete(actor Actor, id uint) error {
	if _, err := s.getOwned(actor, id); err != nil {
		return err
	}
	return s.discountRepo.Transaction(func(tx *gorm.DB) error {
		return s.discountRepo.WithTx(tx).Delete(id)
	})
}

// Get 获取折扣详情，商家只能查看自己的折扣
func (s *DiscountService) Get(actor Actor, id uint) (*models.Discount, error) {
	return s.getOwned(actor, id)
}

// List 折扣列表，商家只能看到自己创建的折扣
func (s *DiscountService) List(actor Actor, filter repository.DiscountListFilter) ([]models.Discount, int64, error) {
	if !actor.canManageCatalog() {
		return nil, 0, ErrVendorOnly
	}
	if !actor.IsAdmin() {
		filter.CreatedBy = actor.UserID
	}
	return s.discountRepo.List(filter)
}

// ListActive 当前生效的折扣
func (s *DiscountService) ListActive() ([]models.Discount, error) {
	return s.discountRepo.ListCurrentlyActive(s.now().UTC())
}

// ListForProduct 当前对商品生效的折扣
func (s *DiscountService) ListForProduct(productID uint) ([]models.Discount, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return s.discountRepo.ListCurrentlyActiveForProduct(product.ID, product.CategoryIDs(), s.now().UTC())
}

// ListVendorProductDiscounts 商家查看自己商品上由自己创建的全部折扣
func (s *DiscountService) ListVendorProductDiscounts(actor Actor, productID uint) ([]models.Discount, error) {
	if !actor.IsVendor() {
		return nil, ErrVendorOnly
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.VendorID != actor.UserID {
		return nil, ErrProductNotFound
	}
	return s.discountRepo.ListForProduct(product.ID, product.CategoryIDs(), actor.UserID)
}

// VendorStats 商家折扣统计
func (s *DiscountService) VendorStats(actor Actor) (*VendorDiscountStats, error) {
	if !actor.IsVendor() {
		return nil, ErrVendorOnly
	}
	row, err := s.discountRepo.StatsByCreator(actor.UserID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	stats := &VendorDiscountStats{
		TotalDiscounts:    row.Total,
		ActiveDiscounts:   row.Active,
		UpcomingDiscounts: row.Upcoming,
		ExpiredDiscounts:  row.Expired,
		TotalUsage:        row.TotalUsage,
	}
	popular, err := s.discountRepo.MostUsedByCreator(actor.UserID)
	if err != nil {
		return nil, err
	}
	if popular != nil {
		stats.MostPopularDiscount = &PopularDiscountBrief{ID: popular.ID, Name: popular.Name, UsageCount: popular.UsageCount}
	}
	return stats, nil
}

// ListUsages 核销记录，商家只能看到自己折扣的记录
func (s *DiscountService) ListUsages(actor Actor, filter repository.DiscountUsageListFilter) ([]models.DiscountUsage, int64, error) {
	if !actor.canManageCatalog() {
		return nil, 0, ErrVendorOnly
	}
	if !actor.IsAdmin() {
		filter.DiscountCreatedBy = actor.UserID
	}
	return s.usageRepo.List(filter)
}

// Evaluate 试算单个折扣对商品的优惠
func (s *DiscountService) Evaluate(productID, discountID uint, quantity int) (*DiscountEvaluation, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	discount, err := s.discountRepo.GetByID(discountID)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, ErrDiscountNotFound
	}
	now := s.now().UTC()
	if !IsDiscountCurrentlyActive(discount, now) {
		return nil, ErrDiscountNotActive
	}
	if !discountAppliesTo(discount, product) {
		return nil, ErrDiscountNotApplicable
	}
	result := buildEvaluation(product.ID, discount, product.Price.Decimal, quantity, now)
	return &result, nil
}

// RefreshStatuses 按当前时间重算未终结折扣的派生状态，返回变更数量
func (s *DiscountService) RefreshStatuses() (int, error) {
	now := s.now().UTC()
	discounts, err := s.discountRepo.ListByStatuses([]string{
		constants.DiscountStatusScheduled,
		constants.DiscountStatusActive,
	})
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range discounts {
		next := ResolveDiscountStatus(&discounts[i], now)
		if next == discounts[i].Status {
			continue
		}
		if err := s.discountRepo.UpdateStatus(discounts[i].ID, next); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// discountCandidates 当前对商品生效的折扣及其金额，按金额降序、ID 升序
func discountCandidates(repo repository.DiscountRepository, product *models.Product, price decimal.Decimal, quantity int, subtotal decimal.Decimal, now time.Time) ([]lineDiscount, error) {
	if product == nil {
		return nil, nil
	}
	discounts, err := repo.ListCurrentlyActiveForProduct(product.ID, product.CategoryIDs(), now)
	if err != nil {
		return nil, err
	}
	return rankLineDiscounts(discounts, price, quantity, subtotal, now), nil
}

func (s *DiscountService) getOwned(actor Actor, id uint) (*models.Discount, error) {
	if !actor.canManageCatalog() {
		return nil, ErrVendorOnly
	}
	discount, err := s.discountRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, ErrDiscountNotFound
	}
	if !actor.IsAdmin() && discount.CreatedBy != actor.UserID {
		return nil, ErrDiscountForbidden
	}
	return discount, nil
}

// checkScope 商家只能指定自己的商品及包含自己商品的分类
func (s *DiscountService) checkScope(actor Actor, input DiscountInput) error {
	if actor.IsAdmin() {
		products, err := s.productRepo.ListByIDs(input.ProductIDs)
		if err != nil {
			return err
		}
		if len(products) != len(input.ProductIDs) {
			return ErrProductNotFound
		}
		for _, id := range input.CategoryIDs {
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
	if input.ApplyToAllProducts {
		return ErrDiscountForbidden
	}
	owned, err := s.productRepo.CountByIDsAndVendor(input.ProductIDs, actor.UserID)
	if err != nil {
		return err
	}
	if owned != int64(len(input.ProductIDs)) {
		return ErrDiscountForbidden
	}
	categories, err := s.categoryRepo.ListIDsWithVendorProducts(input.CategoryIDs, actor.UserID)
	if err != nil {
		return err
	}
	if len(categories) != len(input.CategoryIDs) {
		return ErrDiscountForbidden
	}
	return nil
}

// appendPriceSnapshots 为指定商品追加折扣期内的价格快照
func (s *DiscountService) appendPriceSnapshots(tx *gorm.DB, discount *models.Discount) error {
	if s.priceHistoryRepo == nil || !discount.IsActive || len(discount.Products) == 0 {
		return nil
	}
	end := discount.EndDate
	entries := make([]*models.PriceHistory, 0, len(discount.Products))
	for _, product := range discount.Products {
		price := product.Price.Decimal
		amount := discountAmount(discount, price, 1)
		discountID := discount.ID
		entries = append(entries, &models.PriceHistory{
			ProductID:       product.ID,
			OriginalPrice:   models.NewMoneyFromDecimal(price),
			DiscountedPrice: models.NewMoneyFromDecimal(price.Sub(amount)),
			DiscountID:      &discountID,
			StartDate:       discount.StartDate,
			EndDate:         &end,
		})
	}
	return s.priceHistoryRepo.WithTx(tx).Create(entries...)
}

func applyDiscountInput(d *models.Discount, input DiscountInput) {
	d.Name = strings.TrimSpace(input.Name)
	d.Description = strings.TrimSpace(input.Description)
	d.DiscountType = input.DiscountType
	d.Percentage = nil
	d.FixedAmount = nil
	d.BuyQuantity = nil
	d.GetQuantity = nil
	switch input.DiscountType {
	case constants.DiscountTypePercentage:
		d.Percentage = moneyPtr(input.Percentage)
		d.MaxDiscountAmount = moneyPtr(input.MaxDiscountAmount)
	case constants.DiscountTypeFixed:
		d.FixedAmount = moneyPtr(input.FixedAmount)
		d.MaxDiscountAmount = nil
	case constants.DiscountTypeBuyXGetY:
		d.BuyQuantity = input.BuyQuantity
		d.GetQuantity = input.GetQuantity
		d.MaxDiscountAmount = nil
	}
	d.StartDate = input.StartDate.UTC()
	d.EndDate = input.EndDate.UTC()
	d.ApplyToAllProducts = input.ApplyToAllProducts
	d.UsageLimit = input.UsageLimit
	d.MinOrderAmount = models.Money{}
	if input.MinOrderAmount != nil {
		d.MinOrderAmount = models.NewMoneyFromDecimal(*input.MinOrderAmount)
	}
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
}

func moneyPtr(v *decimal.Decimal) *models.Money {
	if v == nil {
		return nil
	}
	m := models.NewMoneyFromDecimal(*v)
	return &m
}

func uniqueIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

// isDuplicateKey 唯一约束冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
