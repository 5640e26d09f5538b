package repository

import (
	"errors"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// ErrOrderVersionConflict 订单版本冲突（并发修改）
var ErrOrderVersionConflict = errors.New("order version conflict")

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	LockByID(id uint) (*models.Order, error)
	LockOpenCart(userID, cartStatusID uint) (*models.Order, error)
	GetOpenCart(userID, cartStatusID uint) (*models.Order, error)
	OrderNumberExists(orderNumber string) (bool, error)
	SaveWithVersion(order *models.Order, expectedVersion int) error
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)

	ListItems(orderID uint) ([]models.OrderItem, error)
	FindItem(itemID uint) (*models.OrderItem, error)
	CreateItem(item *models.OrderItem) error
	UpdateItem(item *models.OrderItem) error
	DeleteItem(item *models.OrderItem) error

	CreateHistory(entry *models.OrderStatusHistory) error
	ListHistory(orderID uint) ([]models.OrderStatusHistory, error)

	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) OrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 执行事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.Preload("Status").
		Preload("PaymentStatus").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("order_items.id asc") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_status_histories.created_at asc, order_status_histories.id asc")
		}).
		Preload("StatusHistory.Status")
}

// Create 创建订单（不含订单项）
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Omit("Status", "PaymentStatus", "Items", "StatusHistory").Create(order).Error
}

// GetByID 根据 ID 获取订单详情
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).Where("id = ? AND user_id = ?", id, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// LockByID 加锁读取订单行（事务内使用）
func (r *GormOrderRepository) LockByID(id uint) (*models.Order, error) {
	var order models.Order
	err := lockForUpdate(r.db).Preload("Status").Preload("PaymentStatus").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// LockOpenCart 加锁读取用户的购物车订单
func (r *GormOrderRepository) LockOpenCart(userID, cartStatusID uint) (*models.Order, error) {
	var order models.Order
	err := lockForUpdate(r.db).Preload("Status").Preload("PaymentStatus").
		Where("user_id = ? AND status_id = ?", userID, cartStatusID).
		Order("id asc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetOpenCart 读取用户的购物车订单详情
func (r *GormOrderRepository) GetOpenCart(userID, cartStatusID uint) (*models.Order, error) {
	var order models.Order
	err := r.withDetail(r.db).
		Where("user_id = ? AND status_id = ?", userID, cartStatusID).
		Order("id asc").
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// OrderNumberExists 订单号是否已存在
func (r *GormOrderRepository) OrderNumberExists(orderNumber string) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("order_number = ?", orderNumber).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SaveWithVersion 按版本号更新订单头，版本不匹配返回 ErrOrderVersionConflict
func (r *GormOrderRepository) SaveWithVersion(order *models.Order, expectedVersion int) error {
	updates := map[string]interface{}{
		"status_id":         order.StatusID,
		"payment_status_id": order.PaymentStatusID,
		"cart_owner":        order.CartOwner,
		"subtotal":          order.Subtotal,
		"tax_amount":        order.TaxAmount,
		"shipping_cost":     order.ShippingCost,
		"discount_amount":   order.DiscountAmount,
		"total":             order.Total,
		"shipping_address":  order.ShippingAddress,
		"shipping_city":     order.ShippingCity,
		"shipping_state":    order.ShippingState,
		"shipping_zipcode":  order.ShippingZipcode,
		"shipping_country":  order.ShippingCountry,
		"notes":             order.Notes,
		"tracking_number":   order.TrackingNumber,
		"paid_at":           order.PaidAt,
		"delivered_at":      order.DeliveredAt,
		"version":           expectedVersion + 1,
		"updated_at":        order.UpdatedAt,
	}
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderVersionConflict
	}
	order.Version = expectedVersion + 1
	return nil
}

func (r *GormOrderRepository) listQuery(filter OrderListFilter) *gorm.DB {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("orders.user_id = ?", filter.UserID)
	}
	if filter.StatusCode != "" {
		query = query.Where("orders.status_id IN (?)",
			r.db.Model(&models.OrderStatus{}).Select("id").Where("code = ?", filter.StatusCode))
	}
	if filter.ExcludeCart {
		query = query.Where("orders.status_id NOT IN (?)",
			r.db.Model(&models.OrderStatus{}).Select("id").Where("code = ?", "cart"))
	}
	if filter.OrderNumber != "" {
		query = query.Where("orders.order_number = ?", filter.OrderNumber)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("orders.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("orders.created_at <= ?", *filter.CreatedTo)
	}
	return query
}

func (r *GormOrderRepository) list(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.listQuery(filter)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Status").Preload("PaymentStatus").Preload("Items").
		Order("orders.id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return nil, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.list(filter)
}

// ListItems 订单项列表
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindItem 按订单项 ID 获取
func (r *GormOrderRepository) FindItem(itemID uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// CreateItem 创建订单项
func (r *GormOrderRepository) CreateItem(item *models.OrderItem) error {
	return r.db.Create(item).Error
}

// UpdateItem 更新订单项
func (r *GormOrderRepository) UpdateItem(item *models.OrderItem) error {
	return r.db.Save(item).Error
}

// DeleteItem 删除订单项
func (r *GormOrderRepository) DeleteItem(item *models.OrderItem) error {
	return r.db.Delete(item).Error
}

// CreateHistory 追加状态历史
func (r *GormOrderRepository) CreateHistory(entry *models.OrderStatusHistory) error {
	return r.db.Omit("Status").Create(entry).Error
}

// ListHistory 订单状态历史（新到旧）
func (r *GormOrderRepository) ListHistory(orderID uint) ([]models.OrderStatusHistory, error) {
	var entries []models.OrderStatusHistory
	if err := r.db.Preload("Status").
		Where("order_id = ?", orderID).
		Order("created_at desc, id desc").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
