package service

import (
	"context"
	"errors"
	"testing"

	"hashchat/internal/repository"
)

func TestHistoryService_List(t *testing.T) {
	repo := repository.NewMemoryMessageRepository()
	ctx := context.Background()
	for _, text := range []string{"hi", "hello", "how are you?"} {
		if _, err := repo.Append(ctx, "alice", "bob", text); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if _, err := repo.Append(ctx, "bob", "carol", "unrelated"); err != nil {
		t.Fatalf("append: %v", err)
	}
	svc := NewHistoryService(repo)

	msgs, err := svc.List(ctx, "bob", "alice", "bob", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hi" || msgs[2].Text != "how are you?" {
		t.Fatalf("expected oldest first, got %q .. %q", msgs[0].Text, msgs[2].Text)
	}

	limited, err := svc.List(ctx, "alice", "bob", "alice", 2)
	if err != nil || len(limited) != 2 {
		t.Fatalf("expected 2 messages, got %d,%v", len(limited), err)
	}
}

func TestHistoryService_ListRequiresParticipant(t *testing.T) {
	svc := NewHistoryService(repository.NewMemoryMessageRepository())
	if _, err := svc.List(context.Background(), "carol", "alice", "bob", 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := svc.List(context.Background(), "", "alice", "bob", 10); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for anonymous, got %v", err)
	}
}

func TestHistoryService_NotConfigured(t *testing.T) {
	var svc *HistoryService
	if _, err := svc.List(context.Background(), "a", "a", "b", 10); !errors.Is(err, ErrHistoryServiceNotConfigured) {
		t.Fatalf("expected ErrHistoryServiceNotConfigured, got %v", err)
	}
}
