package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepo maintains likes and comments together with the post counters.
type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

// ToggleLike locks the post row for the duration of the toggle, so concurrent
// togglers observe each other's committed counter.
func (r *PostRepo) ToggleLike(ctx context.Context, postID domain.PostID, userID domain.UserID) (*domain.LikeResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	var count int64
	err = tx.QueryRow(ctx, `SELECT likes_count FROM posts WHERE id = $1 FOR UPDATE`, int64(postID)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock post: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, int64(postID), int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to remove like: %w", err)
	}

	liked := tag.RowsAffected() == 0
	delta := int64(-1)
	if liked {
		delta = 1
		_, err = tx.Exec(ctx, `INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`, int64(postID), int64(userID))
		if _, ok := foreignKeyConstraint(err); ok {
			return nil, domain.ErrUserNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to add like: %w", err)
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE posts SET likes_count = likes_count + $2 WHERE id = $1 RETURNING likes_count
	`, int64(postID), delta).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to update like counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &domain.LikeResult{PostID: postID, UserID: userID, Liked: liked, LikesCount: count}, nil
}

func (r *PostRepo) InsertComment(ctx context.Context, postID domain.PostID, userID domain.UserID, content string) (*domain.Comment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	c := domain.Comment{PostID: postID, UserID: userID, Content: content}
	err = tx.QueryRow(ctx, `
		INSERT INTO comments (post_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, (SELECT full_name FROM users WHERE id = $2)
	`, int64(postID), int64(userID), content).Scan(&c.ID, &c.CreatedAt, &c.UserDisplayName)
	if constraint, ok := foreignKeyConstraint(err); ok {
		if strings.Contains(constraint, "post_id") {
			return nil, domain.ErrPostNotFound
		}
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`, int64(postID)); err != nil {
		return nil, fmt.Errorf("failed to update comment counter: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &c, nil
}
