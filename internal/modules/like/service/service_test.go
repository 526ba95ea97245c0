package like

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/warbler/internal/entity"
	likeRepo "anoa.com/warbler/internal/modules/like/repository"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	notifRepo "anoa.com/warbler/internal/modules/notification/repository"
	notifService "anoa.com/warbler/internal/modules/notification/service"
	userRepo "anoa.com/warbler/internal/modules/user/repository"
	"anoa.com/warbler/internal/testutil"
	"anoa.com/warbler/pkg/apperror"
	"gorm.io/gorm"
)

func newService(t *testing.T) (LikeService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	notifications := notifService.NewNotificationService(notifRepo.NewNotificationRepository(db), nil)
	svc := NewLikeService(
		likeRepo.NewLikeRepository(db),
		messageRepo.NewMessageRepository(db),
		userRepo.NewUserRepository(db),
		notifications,
		nil,
	)
	return svc, db
}

func TestLikeIsIdempotent(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	msg := testutil.CreateMessage(t, db, alice, "like me", time.Now())

	for i := 0; i < 3; i++ {
		if err := svc.Like(ctx, bob, msg.ID); err != nil {
			t.Fatalf("Like #%d: %v", i, err)
		}
	}

	var rows int64
	db.Model(&entity.Like{}).Where("user_id = ? AND message_id = ?", bob.ID, msg.ID).Count(&rows)
	if rows != 1 {
		t.Fatalf("like rows = %d, want 1", rows)
	}

	count, err := svc.CountForMessage(ctx, msg.ID)
	if err != nil || count != 1 {
		t.Errorf("CountForMessage = %d, %v", count, err)
	}

	var notifications []entity.Notification
	db.Where("user_id = ?", alice.ID).Find(&notifications)
	if len(notifications) != 1 || notifications[0].Type != entity.NotificationLike || notifications[0].MessageID == nil || *notifications[0].MessageID != msg.ID {
		t.Errorf("notifications = %+v", notifications)
	}
}

func TestUnlike(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	msg := testutil.CreateMessage(t, db, alice, "hm", time.Now())

	// never liked
	if err := svc.Unlike(ctx, alice, msg.ID); err != nil {
		t.Fatalf("Unlike(absent): %v", err)
	}

	if err := svc.Like(ctx, alice, msg.ID); err != nil {
		t.Fatal(err)
	}
	liked, _ := svc.IsLiked(ctx, alice.ID, msg.ID)
	if !liked {
		t.Fatal("IsLiked = false after Like")
	}

	if err := svc.Unlike(ctx, alice, msg.ID); err != nil {
		t.Fatal(err)
	}
	liked, _ = svc.IsLiked(ctx, alice.ID, msg.ID)
	if liked {
		t.Fatal("IsLiked = true after Unlike")
	}

	// liking your own message notifies nobody
	var notifications int64
	db.Model(&entity.Notification{}).Count(&notifications)
	if notifications != 0 {
		t.Errorf("notifications = %d, want 0", notifications)
	}
}

func TestLikeMissingMessage(t *testing.T) {
	svc, db := newService(t)
	alice := testutil.CreateUser(t, db, "alice")

	if err := svc.Like(context.Background(), alice, 4242); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestLikedMessages(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	m1 := testutil.CreateMessage(t, db, bob, "older", base)
	m2 := testutil.CreateMessage(t, db, bob, "newer", base.Add(time.Minute))
	testutil.CreateMessage(t, db, bob, "ignored", base.Add(2*time.Minute))

	for _, id := range []uint{m1.ID, m2.ID} {
		if err := svc.Like(ctx, alice, id); err != nil {
			t.Fatal(err)
		}
	}

	ids, err := svc.LikedMessageIDs(ctx, alice.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("LikedMessageIDs = %v, %v", ids, err)
	}

	msgs, err := svc.LikedMessages(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].ID != m2.ID || msgs[1].ID != m1.ID {
		t.Fatalf("LikedMessages = %+v", msgs)
	}

	total, _ := svc.CountByUser(ctx, alice.ID)
	if total != 2 {
		t.Errorf("CountByUser = %d", total)
	}

	if _, err := svc.LikedMessages(ctx, 9999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("LikedMessages(missing) err = %v", err)
	}
}
