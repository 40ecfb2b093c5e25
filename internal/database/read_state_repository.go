package database

import (
	"context"
	"fmt"
	"time"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReadStateRepo flips and counts unread rows for personal and group chats.
type ReadStateRepo struct {
	pool *pgxpool.Pool
}

func NewReadStateRepo(pool *pgxpool.Pool) *ReadStateRepo {
	return &ReadStateRepo{pool: pool}
}

func (r *ReadStateRepo) MarkPersonalRead(ctx context.Context, userID, peerID domain.UserID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE recipient_id = $1 AND sender_id = $2 AND NOT is_read
	`, int64(userID), int64(peerID))
	if err != nil {
		return 0, fmt.Errorf("failed to mark personal messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReadStateRepo) MarkGroupRead(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID, readAt time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE group_message_reads SET is_read = TRUE, read_at = $3
		WHERE group_chat_id = $1 AND user_id = $2 AND NOT is_read
	`, int64(chatID), int64(userID), readAt)
	if err != nil {
		return 0, fmt.Errorf("failed to mark group messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *ReadStateRepo) UnreadPersonal(ctx context.Context, userID domain.UserID) (map[domain.UserID]int64, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE recipient_id = $1 AND NOT is_read
		GROUP BY sender_id
	`, int64(userID))

	counts := make(map[domain.UserID]int64)
	var sender domain.UserID
	var n int64
	_, err := pgx.ForEachRow(rows, []any{&sender, &n}, func() error {
		counts[sender] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count unread personal messages: %w", err)
	}
	return counts, nil
}

func (r *ReadStateRepo) UnreadGroup(ctx context.Context, userID domain.UserID) (map[domain.GroupChatID]int64, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT group_chat_id, COUNT(*)
		FROM group_message_reads
		WHERE user_id = $1 AND NOT is_read
		GROUP BY group_chat_id
	`, int64(userID))

	counts := make(map[domain.GroupChatID]int64)
	var chat domain.GroupChatID
	var n int64
	_, err := pgx.ForEachRow(rows, []any{&chat, &n}, func() error {
		counts[chat] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count unread group messages: %w", err)
	}
	return counts, nil
}
