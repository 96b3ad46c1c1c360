package httpapi

import (
	"net/http"

	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/service"

	"github.com/labstack/echo/v4"
)

// EvaluateSnapshot POST /api/v1/evaluate，请求体为睡眠快照
func (h *Handler) EvaluateSnapshot(c echo.Context) error {
	var snapshot models.SleepSnapshot
	if err := c.Bind(&snapshot); err != nil {
		return badRequest(c, "invalid request body")
	}
	result, err := h.evaluation.EvaluateSnapshot(c.Request().Context(), service.SourceHTTP, &snapshot)
	if err != nil {
		return h.fail(c, "EvaluateSnapshot", err)
	}
	return c.JSON(http.StatusOK, Ok(result))
}

// EvaluateDeviceDay POST /api/v1/devices/:code/evaluate?date=YYYY-MM-DD
func (h *Handler) EvaluateDeviceDay(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		return badRequest(c, "date is required")
	}
	result, err := h.evaluation.EvaluateDeviceDay(c.Request().Context(), service.SourceHTTP, c.Param("code"), date)
	if err != nil {
		return h.fail(c, "EvaluateDeviceDay", err)
	}
	return c.JSON(http.StatusOK, Ok(result))
}
