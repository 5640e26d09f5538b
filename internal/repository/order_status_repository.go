package repository

import (
	"errors"

	"github.com/storefront-next/internal/models"

	"gorm.io/gorm"
)

// StatusLookupRepository 订单/支付状态字典数据访问接口
type StatusLookupRepository interface {
	ListOrderStatuses(onlyActive bool) ([]models.OrderStatus, error)
	GetOrderStatusByCode(code string) (*models.OrderStatus, error)
	GetOrderStatusByID(id uint) (*models.OrderStatus, error)
	CreateOrderStatus(status *models.OrderStatus) error
	UpdateOrderStatus(status *models.OrderStatus) error

	ListPaymentStatuses(onlyActive bool) ([]models.PaymentStatus, error)
	GetPaymentStatusByCode(code string) (*models.PaymentStatus, error)
	CreatePaymentStatus(status *models.PaymentStatus) error
	UpdatePaymentStatus(status *models.PaymentStatus) error
	WithTx(tx *gorm.DB) StatusLookupRepository
}

// GormStatusLookupRepository GORM 实现
type GormStatusLookupRepository struct {
	db *gorm.DB
}

// NewStatusLookupRepository 创建状态字典仓库
func NewStatusLookupRepository(db *gorm.DB) *GormStatusLookupRepository {
	return &GormStatusLookupRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStatusLookupRepository) WithTx(tx *gorm.DB) StatusLookupRepository {
	if tx == nil {
		return r
	}
	return &GormStatusLookupRepository{db: tx}
}

// ListOrderStatuses 订单状态列表
func (r *GormStatusLookupRepository) ListOrderStatuses(onlyActive bool) ([]models.OrderStatus, error) {
	query := r.db.Model(&models.OrderStatus{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.OrderStatus
	if err := query.Order("sort_order asc, code asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetOrderStatusByCode 根据编码获取订单状态
func (r *GormStatusLookupRepository) GetOrderStatusByCode(code string) (*models.OrderStatus, error) {
	var row models.OrderStatus
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// GetOrderStatusByID 根据 ID 获取订单状态
func (r *GormStatusLookupRepository) GetOrderStatusByID(id uint) (*models.OrderStatus, error) {
	var row models.OrderStatus
	if err := r.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CreateOrderStatus 新增订单状态，未指定 ID 时取当前最大值 +1
func (r *GormStatusLookupRepository) CreateOrderStatus(status *models.OrderStatus) error {
	if status.ID == 0 {
		next, err := r.nextID(&models.OrderStatus{})
		if err != nil {
			return err
		}
		status.ID = next
	}
	return r.db.Create(status).Error
}

// UpdateOrderStatus 更新订单状态
func (r *GormStatusLookupRepository) UpdateOrderStatus(status *models.OrderStatus) error {
	return r.db.Save(status).Error
}

// ListPaymentStatuses 支付状态列表
func (r *GormStatusLookupRepository) ListPaymentStatuses(onlyActive bool) ([]models.PaymentStatus, error) {
	query := r.db.Model(&models.PaymentStatus{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.PaymentStatus
	if err := query.Order("sort_order asc, code asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetPaymentStatusByCode 根据编码获取支付状态
func (r *GormStatusLookupRepository) GetPaymentStatusByCode(code string) (*models.PaymentStatus, error) {
	var row models.PaymentStatus
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// CreatePaymentStatus 新增支付状态
func (r *GormStatusLookupRepository) CreatePaymentStatus(status *models.PaymentStatus) error {
	if status.ID == 0 {
		next, err := r.nextID(&models.PaymentStatus{})
		if err != nil {
			return err
		}
		status.ID = next
	}
	return r.db.Create(status).Error
}

// UpdatePaymentStatus 更新支付状态
func (r *GormStatusLookupRepository) UpdatePaymentStatus(status *models.PaymentStatus) error {
	return r.db.Save(status).Error
}

func (r *GormStatusLookupRepository) nextID(model interface{}) (uint, error) {
	var row struct {
		MaxID uint
	}
	if err := r.db.Model(model).Select("COALESCE(MAX(id), 0) AS max_id").Scan(&row).Error; err != nil {
		return 0, err
	}
	return row.MaxID + 1, nil
}
