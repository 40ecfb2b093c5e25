package database

import (
	"context"
	"fmt"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepo stores personal messages.
type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Insert(ctx context.Context, senderID, recipientID domain.UserID, content string) (*domain.Message, error) {
	rows, _ := r.pool.Query(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, sender_id, recipient_id, content, is_read, created_at
	`, int64(senderID), int64(recipientID), content)

	msg, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.Message])
	if _, ok := foreignKeyConstraint(err); ok {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &msg, nil
}

// Between returns the conversation of a and b in both directions, oldest first.
func (r *MessageRepo) Between(ctx context.Context, a, b domain.UserID) ([]domain.Message, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT id, sender_id, recipient_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2)
		   OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at, id
	`, int64(a), int64(b))

	msgs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Message])
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return msgs, nil
}

// Peers returns every user that exchanged at least one message with userID.
func (r *MessageRepo) Peers(ctx context.Context, userID domain.UserID) ([]domain.User, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT u.id, u.full_name, u.created_at
		FROM users u
		WHERE u.id <> $1
		  AND EXISTS (
			SELECT 1 FROM messages m
			WHERE (m.sender_id = u.id AND m.recipient_id = $1)
			   OR (m.recipient_id = u.id AND m.sender_id = $1)
		  )
		ORDER BY u.id
	`, int64(userID))

	users, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.User])
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation partners: %w", err)
	}
	return users, nil
}
