package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"hashchat/internal/domain"
)

// MessageRepository es el almacen durable y append-only de mensajes directos.
type MessageRepository interface {
	Append(ctx context.Context, senderID, receiverID, text string) (domain.Message, error)
	History(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

// Append inserta el mensaje y devuelve la fila con seq y created_at asignados por postgres.
func (r *PgMessageRepository) Append(ctx context.Context, senderID, receiverID, text string) (domain.Message, error) {
	if err := requireText(text); err != nil {
		return domain.Message{}, err
	}
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: generate id: %v", domain.ErrPersistence, err)
	}

	const query = `
		INSERT INTO messages (id, sender_id, receiver_id, text)
		VALUES ($1, $2, $3, $4)
		RETURNING seq, id, sender_id, receiver_id, text, created_at
	`
	var msg domain.Message
	err = r.pool.QueryRow(ctx, query, id.String(), senderID, receiverID, text).Scan(
		&msg.Seq,
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.Text,
		&msg.CreatedAt,
	)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	return msg, nil
}

func (r *PgMessageRepository) History(ctx context.Context, userA, userB string, limit int) ([]domain.Message, error) {
	const query = `
		SELECT seq, id, sender_id, receiver_id, text, created_at
		FROM messages
		WHERE LEAST(sender_id, receiver_id) = LEAST($1::text, $2::text)
		  AND GREATEST(sender_id, receiver_id) = GREATEST($1::text, $2::text)
		ORDER BY created_at ASC, seq ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userA, userB, domain.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var msg domain.Message
		err = rows.Scan(
			&msg.Seq,
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.Text,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		msg.CreatedAt = msg.CreatedAt.UTC()
		messages = append(messages, msg)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	return messages, nil
}

// requireText rechaza texto vacio o solo espacios; el texto se guarda tal cual llega.
func requireText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrValidation)
	}
	return nil
}
