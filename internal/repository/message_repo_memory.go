package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"hashchat/internal/domain"
)

// MemoryMessageRepository guarda los mensajes en memoria, agrupados por par de participantes.
// Sobrevive solo mientras vive el proceso.
type MemoryMessageRepository struct {
	mu     sync.Mutex
	seq    int64
	last   time.Time
	byPair map[string][]domain.Message
	now    func() time.Time
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{
		byPair: make(map[string][]domain.Message),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryMessageRepository) Append(_ context.Context, senderID, receiverID, text string) (domain.Message, error) {
	if err := requireText(text); err != nil {
		return domain.Message{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, err
	}
	// created_at nunca retrocede aunque el reloj lo haga.
	createdAt := r.now()
	if !createdAt.After(r.last) {
		createdAt = r.last.Add(time.Nanosecond)
	}
	r.last = createdAt
	r.seq++

	msg := domain.Message{
		ID:         id.String(),
		Seq:        r.seq,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  createdAt,
	}
	key := pairKey(senderID, receiverID)
	r.byPair[key] = append(r.byPair[key], msg)
	return msg, nil
}

func (r *MemoryMessageRepository) History(_ context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	limit = domain.ClampHistoryLimit(limit)

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byPair[pairKey(userA, userB)]
	if len(stored) > limit {
		stored = stored[:limit]
	}
	out := make([]domain.Message, len(stored))
	copy(out, stored)
	return out, nil
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}
