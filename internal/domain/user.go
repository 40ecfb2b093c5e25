package domain

import (
	"context"
	"strconv"
	"time"
)

type UserID int64

func (id UserID) String() string { return strconv.FormatInt(int64(id), 10) }

type User struct {
	ID        UserID    `json:"id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"-"`
}

type UserRepository interface {
	GetByID(ctx context.Context, id UserID) (*User, error)
}
