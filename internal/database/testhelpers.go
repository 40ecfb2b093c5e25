package database

import (
	"context"
	"testing"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// CreateTestUser inserts a user row directly. Accounts are owned by the
// surrounding platform, so no repository writes them.
func CreateTestUser(t *testing.T, pool *pgxpool.Pool, fullName string) domain.UserID {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO users (full_name) VALUES ($1) RETURNING id`, fullName).Scan(&id)
	require.NoError(t, err)
	return domain.UserID(id)
}

// CreateTestPost inserts a post owned by userID with zeroed counters.
func CreateTestPost(t *testing.T, pool *pgxpool.Pool, userID domain.UserID) domain.PostID {
	t.Helper()

	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO posts (user_id, content) VALUES ($1, 'morning run') RETURNING id`, int64(userID)).Scan(&id)
	require.NoError(t, err)
	return domain.PostID(id)
}
