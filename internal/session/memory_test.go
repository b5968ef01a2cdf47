package session

import (
	"context"
	"testing"

	"visionchat/pkg/domain"
)

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	sess := domain.NewSession().Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// Mutating the returned copy must not leak into the store.
	got.Messages[0].Content = "tampered"

	again, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Messages[0].Content != "hello" {
		t.Fatalf("store state leaked: %q", again.Messages[0].Content)
	}
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()
	extracted := "desc"
	sess := domain.NewSession().Append(domain.Message{Role: domain.RoleUser, Content: "hello"})
	sess.LastExtractedData = &extracted
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Messages) != 0 || got.HasExtraction() {
		t.Fatalf("reset left state behind: %+v", got)
	}
}
