package worker

import (
	"context"
	"errors"
	"time"

	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/provider"
	"github.com/storefront-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotifySend, c.handleNotifySend)
}

func (c *Consumer) handleNotifySend(ctx context.Context, task *asynq.Task) error {
	if c == nil || c.Container == nil || task == nil {
		logger.Debugw("worker_notify_send_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseNotificationPayload(task)
	if err != nil {
		logger.Warnw("worker_notify_send_unmarshal_failed", "error", err)
		// 载荷无法解析时重试没有意义
		return errors.Join(err, asynq.SkipRetry)
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_notify_send_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_notify_send_skip_service_nil", "user_id", payload.UserID)
		return nil
	}
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		logger.Warnw("worker_notify_send_failed",
			"user_id", payload.UserID,
			"type", payload.TypeCode,
			"error", err,
		)
		if c.Metrics != nil {
			c.Metrics.ObserveNotifyFailure()
		}
		return err
	}
	return nil
}

// RefreshDiscountStatuses 按当前时间重算折扣状态
func (c *Consumer) RefreshDiscountStatuses() {
	if c == nil || c.Container == nil || c.DiscountService == nil {
		return
	}
	changed, err := c.DiscountService.RefreshStatuses()
	if err != nil {
		logger.Warnw("worker_discount_refresh_failed", "error", err)
		return
	}
	if changed > 0 {
		logger.Infow("worker_discount_refresh_done", "changed", changed)
	}
}

// RunDiscountRefreshLoop 周期刷新折扣状态，ctx 取消后退出
func (c *Consumer) RunDiscountRefreshLoop(ctx context.Context, interval time.Duration) {
	if c == nil || c.Container == nil || c.DiscountService == nil {
		return
	}
	if interval <= 0 {
		interval = discountRefreshInterval
	}
	c.RefreshDiscountStatuses()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RefreshDiscountStatuses()
		}
	}
}
