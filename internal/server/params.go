package server

import (
	"strconv"

	"github.com/MYC-A/MoveUp/internal/domain"
	apperrors "github.com/MYC-A/MoveUp/internal/platform/errors"
	"github.com/labstack/echo/v4"
)

func positiveParam(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, apperrors.ValidationError("invalid "+name).WithContext(name, raw)
	}
	return n, nil
}

func userIDParam(c echo.Context, name string) (domain.UserID, error) {
	n, err := positiveParam(c, name)
	return domain.UserID(n), err
}

func postIDParam(c echo.Context, name string) (domain.PostID, error) {
	n, err := positiveParam(c, name)
	return domain.PostID(n), err
}

func groupChatIDParam(c echo.Context, name string) (domain.GroupChatID, error) {
	n, err := positiveParam(c, name)
	return domain.GroupChatID(n), err
}

func bindJSON(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.ValidationError("malformed request body")
	}
	return nil
}
