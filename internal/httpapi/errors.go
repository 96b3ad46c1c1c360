package httpapi

import (
	"errors"
	"net/http"

	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"
	"wisefido-sleep-alert/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// statusFor 业务错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidRule),
		errors.Is(err, models.ErrInvalidSnapshot),
		errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrRuleNotFound),
		errors.Is(err, repository.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrDuplicateRuleName):
		return http.StatusConflict
	case errors.Is(err, service.ErrDataAPI):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c echo.Context, op string, err error) error {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		if status == http.StatusInternalServerError {
			return c.JSON(status, Fail("internal server error"))
		}
	}
	return c.JSON(status, Fail(err.Error()))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Fail(message))
}
