package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/cache"
	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/repository"
)

// LookupService 订单/支付状态字典
type LookupService struct {
	repo  repository.StatusLookupRepository
	cache *cache.Store
	ttl   time.Duration
}

// NewLookupService 创建状态字典服务，cache 为 nil 时直接读库
func NewLookupService(repo repository.StatusLookupRepository, store *cache.Store, ttl time.Duration) *LookupService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LookupService{repo: repo, cache: store, ttl: ttl}
}

// StatusInput 状态行输入
type StatusInput struct {
	Code        string
	Name        string
	Description string
	Color       string
	SortOrder   int
	IsActive    *bool
}

// ListOrderStatuses 启用中的订单状态
func (s *LookupService) ListOrderStatuses(ctx context.Context) ([]models.OrderStatus, error) {
	var rows []models.OrderStatus
	if hit, err := s.cache.GetJSON(ctx, constants.CacheKeyOrderStatuses, &rows); err != nil {
		logger.WithContext(ctx).Warnw("lookup_cache_read_failed", "key", constants.CacheKeyOrderStatuses, "error", err)
	} else if hit {
		return rows, nil
	}
	rows, err := s.repo.ListOrderStatuses(true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, constants.CacheKeyOrderStatuses, rows, s.ttl); err != nil {
		logger.WithContext(ctx).Warnw("lookup_cache_write_failed", "key", constants.CacheKeyOrderStatuses, "error", err)
	}
	return rows, nil
}

// ListPaymentStatuses 启用中的支付状态
func (s *LookupService) ListPaymentStatuses(ctx context.Context) ([]models.PaymentStatus, error) {
	var rows []models.PaymentStatus
	if hit, err := s.cache.GetJSON(ctx, constants.CacheKeyPaymentStatuses, &rows); err != nil {
		logger.WithContext(ctx).Warnw("lookup_cache_read_failed", "key", constants.CacheKeyPaymentStatuses, "error", err)
	} else if hit {
		return rows, nil
	}
	rows, err := s.repo.ListPaymentStatuses(true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetJSON(ctx, constants.CacheKeyPaymentStatuses, rows, s.ttl); err != nil {
		logger.WithContext(ctx).Warnw("lookup_cache_write_failed", "key", constants.CacheKeyPaymentStatuses, "error", err)
	}
	return rows, nil
}

// CreateOrderStatus 新增订单状态行
func (s *LookupService) CreateOrderStatus(ctx context.Context, input StatusInput) (*models.OrderStatus, error) {
	code := normalizeStatusCode(input.Code)
	if code == "" {
		return nil, ErrStatusCodeRequired
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	existing, err := s.repo.GetOrderStatusByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStatusCodeConflict
	}
	row := &models.OrderStatus{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Color:       normalizeColor(input.Color),
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreateOrderStatus(row); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrStatusCodeConflict
		}
		return nil, err
	}
	s.invalidate(ctx, constants.CacheKeyOrderStatuses)
	return row, nil
}

// UpdateOrderStatus 更新订单状态行（编码不可改）
func (s *LookupService) UpdateOrderStatus(ctx context.Context, code string, input StatusInput) (*models.OrderStatus, error) {
	row, err := s.repo.GetOrderStatusByCode(normalizeStatusCode(code))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrOrderStatusNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		row.Name = name
	}
	row.Description = strings.TrimSpace(input.Description)
	if input.Color != "" {
		row.Color = normalizeColor(input.Color)
	}
	row.SortOrder = input.SortOrder
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if err := s.repo.UpdateOrderStatus(row); err != nil {
		return nil, err
	}
	s.invalidate(ctx, constants.CacheKeyOrderStatuses)
	return row, nil
}

// CreatePaymentStatus 新增支付状态行
func (s *LookupService) CreatePaymentStatus(ctx context.Context, input StatusInput) (*models.PaymentStatus, error) {
	code := normalizeStatusCode(input.Code)
	if code == "" {
		return nil, ErrStatusCodeRequired
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrNameRequired
	}
	existing, err := s.repo.GetPaymentStatusByCode(code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrStatusCodeConflict
	}
	row := &models.PaymentStatus{
		Code:        code,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		SortOrder:   input.SortOrder,
		IsActive:    input.IsActive == nil || *input.IsActive,
	}
	if err := s.repo.CreatePaymentStatus(row); err != nil {
		if isDuplicateKey(err) {
			return nil, ErrStatusCodeConflict
		}
		return nil, err
	}
	s.invalidate(ctx, constants.CacheKeyPaymentStatuses)
	return row, nil
}

// UpdatePaymentStatus 更新支付状态行
func (s *LookupService) UpdatePaymentStatus(ctx context.Context, code string, input StatusInput) (*models.PaymentStatus, error) {
	row, err := s.repo.GetPaymentStatusByCode(normalizeStatusCode(code))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrPaymentStatusNotFound
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		row.Name = name
	}
	row.Description = strings.TrimSpace(input.Description)
	row.SortOrder = input.SortOrder
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if err := s.repo.UpdatePaymentStatus(row); err != nil {
		return nil, err
	}
	s.invalidate(ctx, constants.CacheKeyPaymentStatuses)
	return row, nil
}

func (s *LookupService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, key); err != nil {
		logger.WithContext(ctx).Warnw("lookup_cache_invalidate_failed", "key", key, "error", err)
	}
}

func normalizeColor(color string) string {
	color = strings.TrimSpace(color)
	if len(color) != 7 || !strings.HasPrefix(color, "#") {
		return "#000000"
	}
	return strings.ToUpper(color)
}
