package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hashchat/internal/db"
	"hashchat/internal/domain"
)

// newPgMessageRepo usa la base apuntada por DATABASE_URL; sin ella el test se omite.
func newPgMessageRepo(t *testing.T) *PgMessageRepository {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return NewPgMessageRepository(pool)
}

func TestPgMessageRepository_HistoryIsSymmetricAndOrdered(t *testing.T) {
	repo := newPgMessageRepo(t)
	ctx := context.Background()
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()

	texts := []string{"one", "  two\n", strings.Repeat("x", 5000)}
	senders := []string{a, b, a}
	for i, text := range texts {
		receiver := b
		if senders[i] == b {
			receiver = a
		}
		if _, err := repo.Append(ctx, senders[i], receiver, text); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if _, err := repo.Append(ctx, a, c, "other pair"); err != nil {
		t.Fatalf("append other pair: %v", err)
	}

	ab, err := repo.History(ctx, a, b, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	ba, err := repo.History(ctx, b, a, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ab) != len(texts) || len(ba) != len(texts) {
		t.Fatalf("expected %d messages each way, got %d and %d", len(texts), len(ab), len(ba))
	}
	for i := range ab {
		if ab[i].ID != ba[i].ID {
			t.Fatalf("history not symmetric at %d", i)
		}
		if ab[i].Text != texts[i] {
			t.Fatalf("message %d: text not stored verbatim", i)
		}
		if i > 0 && ab[i].CreatedAt.Before(ab[i-1].CreatedAt) {
			t.Fatalf("history not oldest first at %d", i)
		}
	}

	limited, err := repo.History(ctx, a, b, 2)
	if err != nil || len(limited) != 2 || limited[0].ID != ab[0].ID {
		t.Fatalf("expected the 2 oldest messages, got %d (%v)", len(limited), err)
	}
}

func TestPgMessageRepository_AppendRejectsBlankText(t *testing.T) {
	repo := newPgMessageRepo(t)
	a, b := uuid.NewString(), uuid.NewString()

	if _, err := repo.Append(context.Background(), a, b, " \n\t"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	out, err := repo.History(context.Background(), a, b, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no writes, got %d", len(out))
	}
}
