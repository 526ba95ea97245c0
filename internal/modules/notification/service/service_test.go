package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/warbler/internal/entity"
	notifRepo "anoa.com/warbler/internal/modules/notification/repository"
	"anoa.com/warbler/internal/testutil"
	"anoa.com/warbler/pkg/apperror"
	"github.com/google/uuid"
)

func TestNotifyAndRead(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	if err := svc.Notify(ctx, alice.ID, bob, entity.NotificationFollow, nil); err != nil {
		t.Fatal(err)
	}
	msg := testutil.CreateMessage(t, db, alice, "hi", time.Now())
	if err := svc.Notify(ctx, alice.ID, bob, entity.NotificationLike, &msg.ID); err != nil {
		t.Fatal(err)
	}

	list, err := svc.GetNotifications(ctx, alice.ID, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d notifications", len(list))
	}
	texts := map[string]bool{}
	for _, n := range list {
		texts[n.Text] = true
		if n.Actor == nil || n.Actor.Username != "bob" {
			t.Errorf("actor not loaded: %+v", n.Actor)
		}
	}
	if !texts["bob started following you"] || !texts["bob liked your message"] {
		t.Errorf("texts = %v", texts)
	}

	if n, _ := svc.UnreadCount(ctx, alice.ID); n != 2 {
		t.Fatalf("unread = %d", n)
	}
	if err := svc.MarkAsRead(ctx, list[0].ID, bob.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("marking someone else's notification: %v", err)
	}
	if err := svc.MarkAsRead(ctx, list[0].ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.UnreadCount(ctx, alice.ID); n != 1 {
		t.Errorf("unread after one read = %d", n)
	}
	if err := svc.MarkAllAsRead(ctx, alice.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.UnreadCount(ctx, alice.ID); n != 0 {
		t.Errorf("unread after read-all = %d", n)
	}
	if err := svc.MarkAsRead(ctx, uuid.New(), alice.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown id: %v", err)
	}
}

func TestNotifySkipsSelfAndUnknownKinds(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	if err := svc.Notify(ctx, alice.ID, alice, entity.NotificationLike, nil); err != nil {
		t.Fatal(err)
	}
	if n, _ := svc.UnreadCount(ctx, alice.ID); n != 0 {
		t.Errorf("self notification stored")
	}

	bob := testutil.CreateUser(t, db, "bob")
	if err := svc.Notify(ctx, alice.ID, bob, "poke", nil); err == nil {
		t.Error("unknown kind accepted")
	}
}
