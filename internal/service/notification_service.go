package service

import (
	"context"
	"strings"
	"time"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
)

// NotifyInput 通知内容
type NotifyInput struct {
	UserID    uint
	Title     string
	Message   string
	TypeCode  string
	ActionURL string
}

// Notifier 通知投递，调用方不依赖投递结果
type Notifier interface {
	Send(ctx context.Context, input NotifyInput) error
}

// NotificationService 站内通知服务：入队投递与落库
type NotificationService struct {
	repo        repository.NotificationRepository
	queueClient *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(repo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{repo: repo, queueClient: queueClient}
}

// Send 队列可用时入队，否则直接写入通知表
func (s *NotificationService) Send(ctx context.Context, input NotifyInput) error {
	if s == nil || input.UserID == 0 {
		return nil
	}
	payload := queue.NotificationPayload{
		UserID:    input.UserID,
		Title:     input.Title,
		Message:   input.Message,
		TypeCode:  input.TypeCode,
		ActionURL: input.ActionURL,
	}
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueNotification(payload)
	}
	return s.Dispatch(ctx, payload)
}

// Dispatch 消费通知任务，写入站内通知
func (s *NotificationService) Dispatch(_ context.Context, payload queue.NotificationPayload) error {
	if s == nil || s.repo == nil {
		return nil
	}
	if payload.UserID == 0 {
		logger.Debugw("notification_dispatch_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	typeCode := strings.TrimSpace(payload.TypeCode)
	if typeCode == "" {
		typeCode = constants.NotificationTypeSystem
	}
	return s.repo.Create(&models.Notification{
		UserID:    payload.UserID,
		Title:     strings.TrimSpace(payload.Title),
		Message:   strings.TrimSpace(payload.Message),
		TypeCode:  typeCode,
		ActionURL: strings.TrimSpace(payload.ActionURL),
	})
}

// ListUserNotifications 用户通知列表
func (s *NotificationService) ListUserNotifications(userID uint, onlyUnread bool, page, pageSize int) ([]models.Notification, int64, error) {
	return s.repo.ListByUser(userID, onlyUnread, page, pageSize)
}

// MarkRead 标记通知已读
func (s *NotificationService) MarkRead(userID, id uint) error {
	ok, err := s.repo.MarkRead(userID, id, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		return newKindError(ErrNotFound, "notification not found")
	}
	return nil
}
