package queue

import (
	"encoding/json"

	"github.com/storefront-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotifySend 站内通知投递任务
	TaskNotifySend = constants.TaskNotifySend
)

// NotificationPayload 通知任务载荷
type NotificationPayload struct {
	UserID    uint   `json:"user_id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	TypeCode  string `json:"type_code"`
	ActionURL string `json:"action_url,omitempty"`
}

// NewNotificationTask 创建通知任务
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifySend, body), nil
}

// ParseNotificationPayload 解析通知任务载荷
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
