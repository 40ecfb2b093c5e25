package database

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupChatRepo stores group chats, their membership, messages and
// per-participant read state.
type GroupChatRepo struct {
	pool *pgxpool.Pool
}

func NewGroupChatRepo(pool *pgxpool.Pool) *GroupChatRepo {
	return &GroupChatRepo{pool: pool}
}

func (r *GroupChatRepo) Create(ctx context.Context, name string, creatorID domain.UserID, participants []domain.UserID) (domain.GroupChatID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO group_chats (name, creator_id) VALUES ($1, $2) RETURNING id
	`, name, int64(creatorID)).Scan(&id)
	if _, ok := foreignKeyConstraint(err); ok {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create group chat: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_chat_participants (group_chat_id, user_id)
		SELECT $1::bigint, p FROM unnest($2::bigint[]) AS p
		ON CONFLICT DO NOTHING
	`, id, toInt64s(participants))
	if _, ok := foreignKeyConstraint(err); ok {
		return 0, domain.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add group chat participants: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return domain.GroupChatID(id), nil
}

// AddParticipant is idempotent: an existing participant is left untouched.
func (r *GroupChatRepo) AddParticipant(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_chat_participants (group_chat_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, int64(chatID), int64(userID))
	if constraint, ok := foreignKeyConstraint(err); ok {
		if strings.Contains(constraint, "group_chat_id") {
			return domain.ErrGroupChatNotFound
		}
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *GroupChatRepo) Participants(ctx context.Context, chatID domain.GroupChatID) ([]domain.UserID, error) {
	return participants(ctx, r.pool, chatID)
}

func (r *GroupChatRepo) IsParticipant(ctx context.Context, chatID domain.GroupChatID, userID domain.UserID) (bool, error) {
	var chatExists, member bool
	err := r.pool.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM group_chats WHERE id = $1),
			EXISTS (SELECT 1 FROM group_chat_participants WHERE group_chat_id = $1 AND user_id = $2)
	`, int64(chatID), int64(userID)).Scan(&chatExists, &member)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	if !chatExists {
		return false, domain.ErrGroupChatNotFound
	}
	return member, nil
}

func (r *GroupChatRepo) ListForUser(ctx context.Context, userID domain.UserID) ([]domain.GroupChat, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT gc.id, gc.name, gc.creator_id
		FROM group_chats gc
		JOIN group_chat_participants p ON p.group_chat_id = gc.id
		WHERE p.user_id = $1
		ORDER BY gc.id
	`, int64(userID))

	chats, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.GroupChat])
	if err != nil {
		return nil, fmt.Errorf("failed to list group chats: %w", err)
	}
	return chats, nil
}

// InsertMessage writes the message and a read-status row for every participant
// in one transaction. The sender's row is stored as read.
func (r *GroupChatRepo) InsertMessage(ctx context.Context, chatID domain.GroupChatID, senderID domain.UserID, content string) (*domain.GroupMessage, []domain.UserID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM group_chats WHERE id = $1)`, int64(chatID)).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("failed to look up group chat: %w", err)
	}
	if !exists {
		return nil, nil, domain.ErrGroupChatNotFound
	}

	members, err := participants(ctx, tx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !slices.Contains(members, senderID) {
		return nil, nil, domain.ErrNotParticipant
	}

	msg := domain.GroupMessage{GroupChatID: chatID, SenderID: senderID, Content: content, IsRead: true}
	err = tx.QueryRow(ctx, `
		INSERT INTO group_messages (group_chat_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, (SELECT full_name FROM users WHERE id = $2)
	`, int64(chatID), int64(senderID), content).Scan(&msg.ID, &msg.CreatedAt, &msg.SenderName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert group message: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO group_message_reads (message_id, user_id, group_chat_id, is_read, read_at)
		SELECT $1::bigint, p, $2::bigint, p = $3::bigint, CASE WHEN p = $3::bigint THEN NOW() END
		FROM unnest($4::bigint[]) AS p
		ON CONFLICT (message_id, user_id) DO NOTHING
	`, msg.ID, int64(chatID), int64(senderID), toInt64s(members))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert read status rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &msg, members, nil
}

// Messages returns the chat history; IsRead is relative to viewerID and always
// true for the viewer's own messages.
func (r *GroupChatRepo) Messages(ctx context.Context, chatID domain.GroupChatID, viewerID domain.UserID) ([]domain.GroupMessage, error) {
	rows, _ := r.pool.Query(ctx, `
		SELECT gm.id, gm.group_chat_id, gm.sender_id, u.full_name, gm.content,
		       gm.sender_id = $2 OR COALESCE(rs.is_read, FALSE),
		       gm.created_at
		FROM group_messages gm
		JOIN users u ON u.id = gm.sender_id
		LEFT JOIN group_message_reads rs ON rs.message_id = gm.id AND rs.user_id = $2
		WHERE gm.group_chat_id = $1
		ORDER BY gm.created_at, gm.id
	`, int64(chatID), int64(viewerID))

	msgs, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.GroupMessage])
	if err != nil {
		return nil, fmt.Errorf("failed to list group messages: %w", err)
	}
	return msgs, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func participants(ctx context.Context, q querier, chatID domain.GroupChatID) ([]domain.UserID, error) {
	rows, _ := q.Query(ctx, `
		SELECT DISTINCT user_id FROM group_chat_participants WHERE group_chat_id = $1 ORDER BY user_id
	`, int64(chatID))

	ids, err := pgx.CollectRows(rows, pgx.RowTo[domain.UserID])
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return ids, nil
}
