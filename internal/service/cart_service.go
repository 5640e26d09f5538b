package service

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxCartCreateAttempts = 3

// errCartCreateRace 同一用户的购物车已被并发事务创建
var errCartCreateRace = errors.New("cart created concurrently")

// CartService 购物车服务（cart 状态的订单）
type CartService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	lookupRepo  repository.StatusLookupRepository
	pricing     PricingPolicy
	numbers     OrderNumberPolicy
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewCartService 创建购物车服务
func NewCartService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	lookupRepo repository.StatusLookupRepository,
	pricing PricingPolicy,
	numbers OrderNumberPolicy,
	m *metrics.Metrics,
) *CartService {
	return &CartService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		lookupRepo:  lookupRepo,
		pricing:     pricing,
		numbers:     numbers,
		metrics:     m,
		now:         time.Now,
	}
}

// CartItemInput 加购输入，Price 为空时使用商品当前价格；商品已在购物车中时忽略 Price
type CartItemInput struct {
	ProductID uint
	Quantity  int
	Price     *decimal.Decimal
}

// GetCart 获取用户购物车，不存在时返回未持久化的空快照
func (s *CartService) GetCart(userID uint) (*models.Order, error) {
	cartStatus, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusCart)
	if err != nil {
		return nil, err
	}
	cart, err := s.orderRepo.GetOpenCart(userID, cartStatus.ID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}
	empty := &models.Order{UserID: userID, StatusID: cartStatus.ID, Status: *cartStatus, Items: []models.OrderItem{}}
	RecalculateOrder(nil, s.pricing).ApplyTo(empty)
	return empty, nil
}

// AddItems 加购：同一商品合并数量，首次加购时创建购物车订单
func (s *CartService) AddItems(ctx context.Context, userID uint, inputs []CartItemInput, shipping *models.ShippingInfo) (*models.Order, error) {
	if len(inputs) == 0 {
		return nil, ErrItemsRequired
	}
	productIDs := make([]uint, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		if in.Price != nil && in.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		productIDs = append(productIDs, in.ProductID)
	}
	products, err := s.loadActiveProducts(productIDs)
	if err != nil {
		return nil, err
	}
	cartStatus, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusCart)
	if err != nil {
		return nil, err
	}

	var cartID uint
	for attempt := 0; ; attempt++ {
		cartID, err = s.appendToCart(userID, inputs, products, cartStatus, shipping)
		if errors.Is(err, errCartCreateRace) && attempt < maxCartCreateAttempts-1 {
			// 并发首次加购时另一事务已建好购物车，重新加锁读取后合并
			logger.S().Debugw("cart_create_race_retry", "user_id", userID, "attempt", attempt+1)
			continue
		}
		break
	}
	if errors.Is(err, errCartCreateRace) {
		return nil, ErrOrderConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCartMutation(metrics.CartOpAdd)
	logger.WithContext(ctx).Infow("cart_items_added", "user_id", userID, "order_id", cartID, "lines", len(inputs))
	return s.orderRepo.GetByID(cartID)
}

// appendToCart 单次加购事务，返回购物车订单ID
func (s *CartService) appendToCart(userID uint, inputs []CartItemInput, products map[uint]*models.Product, cartStatus *models.OrderStatus, shipping *models.ShippingInfo) (uint, error) {
	var cartID uint
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		cart, err := repo.LockOpenCart(userID, cartStatus.ID)
		if err != nil {
			return err
		}
		if cart == nil {
			cart, err = s.createCart(tx, userID, cartStatus)
			if err != nil {
				return err
			}
		}
		cartID = cart.ID
		expected := cart.Version

		items, err := repo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		for _, in := range inputs {
			product := products[in.ProductID]
			idx := findItemByProduct(items, product.ID)
			if idx >= 0 {
				// 合并只累加数量，单价保持首次加购时的快照
				items[idx].Quantity += in.Quantity
				items[idx].Total = models.NewMoneyFromDecimal(items[idx].LineTotal())
				if err := repo.UpdateItem(&items[idx]); err != nil {
					return err
				}
				continue
			}
			price := product.Price.Decimal
			if in.Price != nil {
				price = *in.Price
			}
			item := models.OrderItem{
				OrderID:      cart.ID,
				ProductID:    product.ID,
				ProductTitle: product.Title,
				ProductSlug:  product.Slug,
				Quantity:     in.Quantity,
				Price:        models.NewMoneyFromDecimal(price),
			}
			item.Total = models.NewMoneyFromDecimal(item.LineTotal())
			if err := repo.CreateItem(&item); err != nil {
				return err
			}
			items = append(items, item)
		}
		if shipping != nil {
			cart.ApplyShipping(*shipping)
		}
		return s.persistTotals(repo, cart, items, expected)
	})
	return cartID, err
}

// UpdateItem 修改购物车行数量
func (s *CartService) UpdateItem(ctx context.Context, userID, itemID uint, quantity int) (*models.Order, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	orderID, err := s.mutateItem(userID, itemID, func(repo repository.OrderRepository, items []models.OrderItem, idx int) ([]models.OrderItem, error) {
		items[idx].Quantity = quantity
		items[idx].Total = models.NewMoneyFromDecimal(items[idx].LineTotal())
		return items, repo.UpdateItem(&items[idx])
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCartMutation(metrics.CartOpUpdate)
	logger.WithContext(ctx).Infow("cart_item_updated", "user_id", userID, "item_id", itemID, "quantity", quantity)
	return s.orderRepo.GetByID(orderID)
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uint) error {
	_, err := s.mutateItem(userID, itemID, func(repo repository.OrderRepository, items []models.OrderItem, idx int) ([]models.OrderItem, error) {
		if err := repo.DeleteItem(&items[idx]); err != nil {
			return nil, err
		}
		return append(items[:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	s.metrics.ObserveCartMutation(metrics.CartOpRemove)
	logger.WithContext(ctx).Infow("cart_item_removed", "user_id", userID, "item_id", itemID)
	return nil
}

// UpdateShipping 更新购物车收货信息与备注
func (s *CartService) UpdateShipping(ctx context.Context, userID uint, shipping models.ShippingInfo, notes *string) (*models.Order, error) {
	cartStatus, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusCart)
	if err != nil {
		return nil, err
	}
	var orderID uint
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		cart, err := repo.LockOpenCart(userID, cartStatus.ID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartNotFound
		}
		orderID = cart.ID
		cart.ApplyShipping(shipping)
		if notes != nil {
			cart.Notes = *notes
		}
		cart.UpdatedAt = s.now()
		return saveOrder(repo, cart, cart.Version)
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Debugw("cart_shipping_updated", "user_id", userID, "order_id", orderID)
	return s.orderRepo.GetByID(orderID)
}

type itemMutation func(repo repository.OrderRepository, items []models.OrderItem, idx int) ([]models.OrderItem, error)

// mutateItem 在事务内加锁订单、定位订单项、执行变更并重算金额
func (s *CartService) mutateItem(userID, itemID uint, mutate itemMutation) (uint, error) {
	var orderID uint
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		item, err := s.findUserItem(repo, userID, itemID)
		if err != nil {
			return err
		}
		order, err := repo.LockByID(item.OrderID)
		if err != nil {
			return err
		}
		if order == nil || order.UserID != userID {
			return ErrOrderItemNotFound
		}
		if order.Status.Code != constants.OrderStatusCart {
			return ErrOrderNotCart
		}
		orderID = order.ID
		expected := order.Version

		items, err := repo.ListItems(order.ID)
		if err != nil {
			return err
		}
		idx := findItemByID(items, itemID)
		if idx < 0 {
			return ErrOrderItemNotFound
		}
		items, err = mutate(repo, items, idx)
		if err != nil {
			return err
		}
		return s.persistTotals(repo, order, items, expected)
	})
	return orderID, err
}

func (s *CartService) findUserItem(repo repository.OrderRepository, userID, itemID uint) (*models.OrderItem, error) {
	item, err := repo.FindItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	return item, nil
}

func (s *CartService) createCart(tx *gorm.DB, userID uint, cartStatus *models.OrderStatus) (*models.Order, error) {
	repo := s.orderRepo.WithTx(tx)
	paymentStatus, err := requirePaymentStatus(s.lookupRepo.WithTx(tx), constants.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	number, err := generateOrderNumber(s.numbers, repo.OrderNumberExists)
	if err != nil {
		return nil, err
	}
	cart := &models.Order{
		OrderNumber:     number,
		UserID:          userID,
		StatusID:        cartStatus.ID,
		PaymentStatusID: paymentStatus.ID,
		Version:         1,
	}
	owner := userID
	cart.CartOwner = &owner
	RecalculateOrder(nil, s.pricing).ApplyTo(cart)
	if err := repo.Create(cart); err != nil {
		if isDuplicateKey(err) {
			return nil, errCartCreateRace
		}
		return nil, err
	}
	cart.Status = *cartStatus
	createdBy := userID
	if err := repo.CreateHistory(&models.OrderStatusHistory{
		OrderID:   cart.ID,
		StatusID:  cartStatus.ID,
		Note:      constants.OrderNoteCartCreated,
		CreatedBy: &createdBy,
	}); err != nil {
		return nil, err
	}
	return cart, nil
}

// persistTotals 重算金额并按版本号写回订单头
func (s *CartService) persistTotals(repo repository.OrderRepository, order *models.Order, items []models.OrderItem, expected int) error {
	refreshItemTotals(items)
	RecalculateOrder(items, s.pricing).ApplyTo(order)
	order.UpdatedAt = s.now()
	return saveOrder(repo, order, expected)
}

func (s *CartService) loadActiveProducts(ids []uint) (map[uint]*models.Product, error) {
	products, err := s.productRepo.ListByIDs(uniqueIDs(ids))
	if err != nil {
		return nil, err
	}
	result := make(map[uint]*models.Product, len(products))
	for i := range products {
		if products[i].IsActive {
			result[products[i].ID] = &products[i]
		}
	}
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			return nil, ErrProductNotFound
		}
	}
	return result, nil
}

// saveOrder 版本冲突转换为业务错误
func saveOrder(repo repository.OrderRepository, order *models.Order, expected int) error {
	if err := repo.SaveWithVersion(order, expected); err != nil {
		if errors.Is(err, repository.ErrOrderVersionConflict) {
			return ErrOrderConcurrentUpdate
		}
		return err
	}
	return nil
}

func requireOrderStatus(repo repository.StatusLookupRepository, code string) (*models.OrderStatus, error) {
	row, err := repo.GetOrderStatusByCode(code)
	if err != nil {
		return nil, err
	}
	if row == nil || !row.IsActive {
		return nil, ErrOrderStatusNotFound
	}
	return row, nil
}

func requirePaymentStatus(repo repository.StatusLookupRepository, code string) (*models.PaymentStatus, error) {
	row, err := repo.GetPaymentStatusByCode(code)
	if err != nil {
		return nil, err
	}
	if row == nil || !row.IsActive {
		return nil, ErrPaymentStatusNotFound
	}
	return row, nil
}

func findItemByProduct(items []models.OrderItem, productID uint) int {
	for i := range items {
		if items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func findItemByID(items []models.OrderItem, itemID uint) int {
	for i := range items {
		if items[i].ID == itemID {
			return i
		}
	}
	return -1
}
