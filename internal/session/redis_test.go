package session

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"visionchat/pkg/domain"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(client, "test:session"), mr
}

func TestRedisStoreLoadMissingReturnsEmpty(t *testing.T) {
	store, _ := newTestRedisStore(t)
	sess, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sess.Messages) != 0 || sess.HasExtraction() {
		t.Fatalf("expected fresh empty session, got %+v", sess)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	extracted := "A small dog on a skateboard."
	want := domain.NewSession().Append(
		domain.Message{Role: domain.RoleUser, Content: "look at this", Image: "/images/abc.png"},
		domain.Message{Role: domain.RoleAssistant, Content: "Image analyzed successfully."},
	)
	want.LastExtractedData = &extracted
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSessionEqual(t, got, want)
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	store, mr := newTestRedisStore(t)
	if err := mr.Set("test:session", "{broken"); err != nil {
		t.Fatalf("seed corrupt record: %v", err)
	}
	_, err := store.Load(context.Background())
	if !errors.Is(err, ErrCorruptState) {
		t.Fatalf("load corrupt record: err = %v, want ErrCorruptState", err)
	}
}

func TestRedisStoreReset(t *testing.T) {
	store, _ := newTestRedisStore(t)
	extracted := "x"
	populated := domain.NewSession().Append(domain.Message{Role: domain.RoleUser, Content: "hi"})
	populated.LastExtractedData = &extracted
	if err := store.Save(context.Background(), populated); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	sess, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(sess.Messages) != 0 || sess.HasExtraction() {
		t.Fatalf("reset left state behind: %+v", sess)
	}
}
