package server

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/MYC-A/MoveUp/internal/domain"
	"github.com/MYC-A/MoveUp/internal/platform/correlation"
	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

const contextKeyUserID = "userID"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := correlation.FromHeader(c.Request().Header.Get(correlation.Header))
		c.Response().Header().Set(correlation.Header, id)
		c.SetRequest(c.Request().WithContext(correlation.WithID(c.Request().Context(), id)))
		return next(c)
	}
}

// requireAuth resolves the session cookie to an existing user and stores the
// id on the echo context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		userID, ok := sessionUserID(session.Values[sessionKeyUserID])
		if !ok {
			return apperrors.UnauthorizedError("not authenticated")
		}

		if _, err := s.app.GetUser(c.Request().Context(), userID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				slog.WarnContext(c.Request().Context(), "Session references unknown user, invalidating", "user_id", userID)
				session.Options.MaxAge = -1
				_ = session.Save(c.Request(), c.Response().Writer)
				return apperrors.UnauthorizedError("not authenticated")
			}
			return apperrors.InternalError("failed to load session user", err)
		}

		c.Set(contextKeyUserID, userID)
		return next(c)
	}
}

// sessionUserID accepts the encodings the account service has used for the
// id over time.
func sessionUserID(v any) (domain.UserID, bool) {
	switch id := v.(type) {
	case int:
		return domain.UserID(id), id > 0
	case int64:
		return domain.UserID(id), id > 0
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		return domain.UserID(n), err == nil && n > 0
	default:
		return 0, false
	}
}

func currentUser(c echo.Context) domain.UserID {
	id, _ := c.Get(contextKeyUserID).(domain.UserID)
	return id
}
