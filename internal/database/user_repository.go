package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepo implements domain.UserRepository. Accounts are owned by the
// surrounding platform; this service only reads display names.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	rows, _ := r.pool.Query(ctx, `SELECT id, full_name, created_at FROM users WHERE id = $1`, int64(id))
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[domain.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}
