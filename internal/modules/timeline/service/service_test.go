package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"anoa.com/warbler/internal/entity"
	followRepo "anoa.com/warbler/internal/modules/follow/repository"
	messageRepo "anoa.com/warbler/internal/modules/message/repository"
	"anoa.com/warbler/internal/testutil"
	"gorm.io/gorm"
)

func newService(t *testing.T) (TimelineService, messageRepo.MessageRepository, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	messages := messageRepo.NewMessageRepository(db)
	return NewTimelineService(followRepo.NewFollowRepository(db), messages), messages, db
}

func texts(msgs []*entity.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestTimelineExcludesStrangers(t *testing.T) {
	svc, _, db := newService(t)
	u := testutil.CreateUser(t, db, "u")
	a := testutil.CreateUser(t, db, "a")
	s := testutil.CreateUser(t, db, "s")
	testutil.Follow(t, db, u, a)

	t1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateMessage(t, db, a, "hello", t1)
	testutil.CreateMessage(t, db, s, "spam", t1.Add(time.Minute))

	got, err := svc.TimelineFor(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(texts(got)) != "[hello]" {
		t.Fatalf("timeline = %v, want [hello]", texts(got))
	}
}

func TestTimelineMergesOwnAndFollowedNewestFirst(t *testing.T) {
	svc, _, db := newService(t)
	u := testutil.CreateUser(t, db, "u")
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	testutil.Follow(t, db, u, a)
	testutil.Follow(t, db, u, b)

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	testutil.CreateMessage(t, db, a, "a1", base)
	testutil.CreateMessage(t, db, u, "u1", base.Add(1*time.Minute))
	testutil.CreateMessage(t, db, b, "b1", base.Add(2*time.Minute))
	testutil.CreateMessage(t, db, a, "a2", base.Add(3*time.Minute))

	got, err := svc.TimelineFor(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(texts(got)) != "[a2 b1 u1 a1]" {
		t.Fatalf("timeline = %v", texts(got))
	}

	// following is directional: a does not see u's posts
	got, _ = svc.TimelineFor(context.Background(), a)
	if fmt.Sprint(texts(got)) != "[a2 a1]" {
		t.Fatalf("a's timeline = %v", texts(got))
	}
}

func TestTimelineIsCapped(t *testing.T) {
	svc, _, db := newService(t)
	u := testutil.CreateUser(t, db, "u")

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < Limit+5; i++ {
		testutil.CreateMessage(t, db, u, fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
	}

	got, err := svc.TimelineFor(context.Background(), u)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != Limit {
		t.Fatalf("len = %d, want %d", len(got), Limit)
	}
	if got[0].Text != fmt.Sprintf("m%d", Limit+4) {
		t.Errorf("first = %s, want newest", got[0].Text)
	}
}

func TestDeletedMessageLeavesTimeline(t *testing.T) {
	svc, messages, db := newService(t)
	u := testutil.CreateUser(t, db, "u")
	msg := testutil.CreateMessage(t, db, u, "soon gone", time.Now())

	got, _ := svc.TimelineFor(context.Background(), u)
	if len(got) != 1 {
		t.Fatalf("timeline before delete = %v", texts(got))
	}

	if err := messages.Delete(context.Background(), msg.ID); err != nil {
		t.Fatal(err)
	}
	got, _ = svc.TimelineFor(context.Background(), u)
	if len(got) != 0 {
		t.Fatalf("timeline after delete = %v", texts(got))
	}
}

func TestAnonymousTimelineIsEmpty(t *testing.T) {
	svc, _, _ := newService(t)

	got, err := svc.TimelineFor(context.Background(), nil)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("TimelineFor(nil) = %v, %v", got, err)
	}
}
