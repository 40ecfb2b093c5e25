package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrGroupChatNotFound = errors.New("group chat not found")
	ErrNotParticipant    = errors.New("user is not a participant of the group chat")
	ErrInvalidInput      = errors.New("invalid input")
)
