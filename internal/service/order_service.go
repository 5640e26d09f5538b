package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/metrics"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务：结算、状态流转与查询
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	lookupRepo   repository.StatusLookupRepository
	discountRepo repository.DiscountRepository
	usageRepo    repository.DiscountUsageRepository
	notifier     Notifier
	pricing      PricingPolicy
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	lookupRepo repository.StatusLookupRepository,
	discountRepo repository.DiscountRepository,
	usageRepo repository.DiscountUsageRepository,
	notifier Notifier,
	pricing PricingPolicy,
	m *metrics.Metrics,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		lookupRepo:   lookupRepo,
		discountRepo: discountRepo,
		usageRepo:    usageRepo,
		notifier:     notifier,
		pricing:      pricing,
		metrics:      m,
		now:          time.Now,
	}
}

// CheckoutInput 结算输入，收货信息为空时沿用购物车上的地址
type CheckoutInput struct {
	Shipping *models.ShippingInfo
	Notes    *string
}

// Checkout 购物车结算：逐行匹配折扣并核销，订单进入 pending
func (s *OrderService) Checkout(ctx context.Context, userID uint, input CheckoutInput) (*models.Order, error) {
	cartStatus, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusCart)
	if err != nil {
		return nil, err
	}
	pendingStatus, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		cart, err := repo.LockOpenCart(userID, cartStatus.ID)
		if err != nil {
			return err
		}
		if cart == nil {
			return ErrCartNotFound
		}
		if input.Shipping != nil {
			cart.ApplyShipping(*input.Shipping)
		}
		if input.Notes != nil {
			cart.Notes = strings.TrimSpace(*input.Notes)
		}
		if !cart.HasShippingAddress() {
			return ErrShippingAddressRequired
		}
		items, err := repo.ListItems(cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}
		expected := cart.Version

		if err := s.applyLineDiscounts(tx, cart, items, now); err != nil {
			return err
		}
		for i := range items {
			if err := repo.UpdateItem(&items[i]); err != nil {
				return err
			}
		}
		RecalculateOrder(items, s.pricing).ApplyTo(cart)

		if !CanTransitionOrder(cart.Status.Code, pendingStatus.Code, cart.Status.Code) {
			return ErrOrderStatusInvalid
		}
		cart.StatusID = pendingStatus.ID
		cart.Status = *pendingStatus
		cart.UpdatedAt = now
		stampOrderMilestones(cart, pendingStatus.Code, now)
		if err := saveOrder(repo, cart, expected); err != nil {
			return err
		}
		createdBy := userID
		if err := repo.CreateHistory(&models.OrderStatusHistory{
			OrderID:   cart.ID,
			StatusID:  pendingStatus.ID,
			Note:      constants.OrderNoteCreated,
			CreatedBy: &createdBy,
		}); err != nil {
			return err
		}
		order = cart
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveOrderTransition(constants.OrderStatusCart, pendingStatus.Code)
	s.metrics.ObserveCheckoutTotal(order.Total.InexactFloat64())
	logger.WithContext(ctx).Infow("order_checkout_completed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.Total.String(),
		"discount", order.DiscountAmount.String(),
	)
	notifyBestEffort(ctx, s.notifier, s.metrics, orderCreatedNotice(order))
	return s.orderRepo.GetByID(order.ID)
}

// applyLineDiscounts 每行至多一个折扣：按金额从高到低尝试核销，名额被抢占时退到下一个
func (s *OrderService) applyLineDiscounts(tx *gorm.DB, order *models.Order, items []models.OrderItem, now time.Time) error {
	refreshItemTotals(items)
	subtotal := RecalculateOrder(items, s.pricing).Subtotal

	productIDs := make([]uint, 0, len(items))
	for i := range items {
		productIDs = append(productIDs, items[i].ProductID)
	}
	products, err := s.productRepo.WithTx(tx).ListByIDs(uniqueIDs(productIDs))
	if err != nil {
		return err
	}
	byID := make(map[uint]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	discountRepo := s.discountRepo.WithTx(tx)
	usageRepo := s.usageRepo.WithTx(tx)
	for i := range items {
		item := &items[i]
		item.DiscountID = nil
		item.DiscountAmount = models.Money{}
		candidates, err := discountCandidates(discountRepo, byID[item.ProductID], item.Price.Decimal, item.Quantity, subtotal, now)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			s.metrics.ObserveRedemption(metrics.RedemptionSkipped)
			continue
		}
		for _, candidate := range candidates {
			ok, err := discountRepo.TryIncrementUsage(candidate.discount.ID)
			if err != nil {
				return err
			}
			if !ok {
				s.metrics.ObserveRedemption(metrics.RedemptionExhausted)
				continue
			}
			if err := s.recordUsage(usageRepo, order, item, candidate, now); err != nil {
				return err
			}
			s.metrics.ObserveRedemption(metrics.RedemptionApplied)
			break
		}
	}
	return nil
}

func (s *OrderService) recordUsage(repo repository.DiscountUsageRepository, order *models.Order, item *models.OrderItem, candidate lineDiscount, now time.Time) error {
	line := item.LineTotal()
	amount := models.RoundMoney(decimal.Min(candidate.amount, line))
	discountID := candidate.discount.ID
	usage := &models.DiscountUsage{
		DiscountID:     &discountID,
		OrderID:        order.ID,
		ProductID:      item.ProductID,
		UserID:         order.UserID,
		OriginalPrice:  models.NewMoneyFromDecimal(line),
		DiscountAmount: models.NewMoneyFromDecimal(amount),
		FinalPrice:     models.NewMoneyFromDecimal(line.Sub(amount)),
		UsedAt:         now,
	}
	if err := repo.Create(usage); err != nil {
		return err
	}
	item.DiscountID = &discountID
	item.DiscountAmount = models.NewMoneyFromDecimal(amount)
	return nil
}

// SetOrderStatus 管理员变更订单状态，返回提示信息
func (s *OrderService) SetOrderStatus(ctx context.Context, orderID uint, actor Actor, code, note string) (*models.Order, string, error) {
	if !actor.IsAdmin() {
		return nil, "", ErrAdminOnly
	}
	code = normalizeStatusCode(code)
	if code == "" {
		return nil, "", ErrStatusCodeRequired
	}
	target, err := requireOrderStatus(s.lookupRepo, code)
	if err != nil {
		return nil, "", err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = constants.OrderNoteStatusUpdated
	}
	order, err := s.transitionOrder(ctx, orderID, actor, target, note, func(from, anchor string) error {
		if !CanTransitionOrder(from, target.Code, anchor) {
			return ErrOrderStatusInvalid
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return order, fmt.Sprintf("Order status updated to %s", target.Name), nil
}

// CancelOrder 取消订单：顾客只能取消自己的订单，管理员可取消任意订单
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, actor Actor, note string) (*models.Order, error) {
	target, err := requireOrderStatus(s.lookupRepo, constants.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = constants.OrderNoteCancelledUser
	}
	return s.transitionOrder(ctx, orderID, actor, target, note, func(from, anchor string) error {
		if !CanCancelOrder(from) || !CanTransitionOrder(from, target.Code, anchor) {
			return ErrOrderCannotCancel
		}
		return nil
	})
}

// transitionOrder 加锁校验后写入新状态与一条历史记录，提交后发送通知
func (s *OrderService) transitionOrder(ctx context.Context, orderID uint, actor Actor, target *models.OrderStatus, note string, guard func(from, anchor string) error) (*models.Order, error) {
	now := s.now().UTC()
	var (
		order *models.Order
		from  string
	)
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		locked, err := repo.LockByID(orderID)
		if err != nil {
			return err
		}
		if locked == nil || (!actor.IsAdmin() && locked.UserID != actor.UserID) {
			return ErrOrderNotFound
		}
		from = locked.Status.Code
		anchor := from
		if !isKnownOrderStatus(from) {
			if anchor, err = lastKnownOrderStatus(repo, locked.ID); err != nil {
				return err
			}
		}
		if err := guard(from, anchor); err != nil {
			return err
		}
		expected := locked.Version
		locked.StatusID = target.ID
		locked.Status = *target
		locked.UpdatedAt = now
		stampOrderMilestones(locked, target.Code, now)
		if err := saveOrder(repo, locked, expected); err != nil {
			return err
		}
		if err := repo.CreateHistory(&models.OrderStatusHistory{
			OrderID:   locked.ID,
			StatusID:  target.ID,
			Note:      note,
			CreatedBy: actor.idPtr(),
		}); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveOrderTransition(from, target.Code)
	logger.WithContext(ctx).Infow("order_status_changed",
		"order_id", order.ID,
		"from", from,
		"to", target.Code,
		"actor_id", actor.UserID,
	)
	notifyBestEffort(ctx, s.notifier, s.metrics, orderStatusNotice(order, target.Name))
	return s.orderRepo.GetByID(order.ID)
}

// lastKnownOrderStatus 从状态历史中找到最近一次经过的预置状态
func lastKnownOrderStatus(repo repository.OrderRepository, orderID uint) (string, error) {
	history, err := repo.ListHistory(orderID)
	if err != nil {
		return "", err
	}
	for _, entry := range history {
		if isKnownOrderStatus(entry.Status.Code) {
			return normalizeStatusCode(entry.Status.Code), nil
		}
	}
	return "", nil
}

// SetPaymentStatus 管理员变更支付状态，不写订单状态历史
func (s *OrderService) SetPaymentStatus(ctx context.Context, orderID uint, actor Actor, code string) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	code = normalizeStatusCode(code)
	if code == "" {
		return nil, ErrStatusCodeRequired
	}
	target, err := requirePaymentStatus(s.lookupRepo, code)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		order *models.Order
		from  string
	)
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		locked, err := repo.LockByID(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		from = locked.PaymentStatus.Code
		if !CanTransitionPayment(from, target.Code) {
			return ErrPaymentStatusInvalid
		}
		expected := locked.Version
		locked.PaymentStatusID = target.ID
		locked.PaymentStatus = *target
		locked.UpdatedAt = now
		if target.Code == constants.PaymentStatusPaid {
			stampPaidAt(locked, now)
		}
		if err := saveOrder(repo, locked, expected); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObservePaymentTransition(from, target.Code)
	logger.WithContext(ctx).Infow("order_payment_status_changed",
		"order_id", order.ID,
		"from", from,
		"to", target.Code,
		"actor_id", actor.UserID,
	)
	notifyBestEffort(ctx, s.notifier, s.metrics, paymentStatusNotice(order, target.Name))
	return s.orderRepo.GetByID(order.ID)
}

// OrderDetailsInput 管理员可修改的订单附加信息
type OrderDetailsInput struct {
	TrackingNumber *string
	Notes          *string
}

// UpdateOrderDetails 更新物流单号与备注
func (s *OrderService) UpdateOrderDetails(ctx context.Context, orderID uint, actor Actor, input OrderDetailsInput) (*models.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrAdminOnly
	}
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		locked, err := repo.LockByID(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if input.TrackingNumber != nil {
			locked.TrackingNumber = strings.TrimSpace(*input.TrackingNumber)
		}
		if input.Notes != nil {
			locked.Notes = strings.TrimSpace(*input.Notes)
		}
		locked.UpdatedAt = s.now().UTC()
		return saveOrder(repo, locked, locked.Version)
	})
	if err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Debugw("order_details_updated", "order_id", orderID, "actor_id", actor.UserID)
	return s.orderRepo.GetByID(orderID)
}
