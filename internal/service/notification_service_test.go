package service

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront-next/internal/constants"
	"github.com/storefront-next/internal/queue"
	"github.com/storefront-next/internal/repository"
)

func TestNotificationSendWithoutQueuePersists(t *testing.T) {
	db := openServiceTestDB(t, "notify_send")
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()

	if err := svc.Send(ctx, NotifyInput{UserID: 3, Title: " Order ORD1 ", Message: "created", TypeCode: constants.NotificationTypeOrder}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if err := svc.Send(ctx, NotifyInput{Title: "anonymous"}); err != nil {
		t.Fatalf("send without user should be a no-op, got %v", err)
	}

	list, total, err := svc.ListUserNotifications(3, false, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || list[0].Title != "Order ORD1" || list[0].TypeCode != constants.NotificationTypeOrder {
		t.Fatalf("unexpected notifications: total=%d %+v", total, list)
	}
}

func TestNotificationDispatchDefaultsType(t *testing.T) {
	db := openServiceTestDB(t, "notify_dispatch")
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)

	if err := svc.Dispatch(context.Background(), queue.NotificationPayload{UserID: 4, Title: "hello"}); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	list, _, err := svc.ListUserNotifications(4, false, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].TypeCode != constants.NotificationTypeSystem {
		t.Fatalf("type should default to system, got %+v", list)
	}
}

func TestNotificationMarkRead(t *testing.T) {
	db := openServiceTestDB(t, "notify_mark_read")
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil)
	ctx := context.Background()
	if err := svc.Send(ctx, NotifyInput{UserID: 5, Title: "t"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	list, _, _ := svc.ListUserNotifications(5, true, 1, 20)
	if len(list) != 1 {
		t.Fatalf("expected one unread notification")
	}

	if err := svc.MarkRead(6, list[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("other users cannot mark it read, got %v", err)
	}
	if err := svc.MarkRead(5, list[0].ID); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	unread, total, _ := svc.ListUserNotifications(5, true, 1, 20)
	if total != 0 || len(unread) != 0 {
		t.Fatalf("expected no unread notifications, got %d", total)
	}
}

func TestNilNotificationServiceIsNoop(t *testing.T) {
	var svc *NotificationService
	if err := svc.Send(context.Background(), NotifyInput{UserID: 1}); err != nil {
		t.Fatalf("nil service should be a no-op, got %v", err)
	}
}
