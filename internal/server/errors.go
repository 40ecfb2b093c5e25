package server

import (
	"errors"

	"github.com/MYC-A/MoveUp/internal/domain"
	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
)

// domainError maps a service error onto the structured error rendered by the
// errors middleware. action names the failed operation for 500s.
func domainError(err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return apperrors.ValidationError(err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		return apperrors.NotFoundError("user not found")
	case errors.Is(err, domain.ErrPostNotFound):
		return apperrors.NotFoundError("post not found")
	case errors.Is(err, domain.ErrGroupChatNotFound):
		return apperrors.NotFoundError("group chat not found")
	case errors.Is(err, domain.ErrNotParticipant):
		return apperrors.ForbiddenError("not a participant of this group chat")
	default:
		return apperrors.InternalError("failed to "+action, err)
	}
}
