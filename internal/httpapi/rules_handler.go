package httpapi

import (
	"net/http"
	"strconv"

	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"
	"wisefido-sleep-alert/internal/service"

	"github.com/labstack/echo/v4"
)

// ListRules GET /api/v1/rules?enabled=true&type=sleep_quality
func (h *Handler) ListRules(c echo.Context) error {
	var filter repository.RuleFilter
	if v := c.QueryParam("enabled"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "invalid enabled parameter")
		}
		filter.Enabled = &enabled
	}
	if v := c.QueryParam("type"); v != "" {
		filter.MetricType = models.MetricType(v)
	}

	rules, err := h.rules.List(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "ListRules", err)
	}
	return c.JSON(http.StatusOK, Ok(newList(rules)))
}

func (h *Handler) GetRule(c echo.Context) error {
	rule, err := h.rules.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "GetRule", err)
	}
	return c.JSON(http.StatusOK, Ok(rule))
}

func (h *Handler) CreateRule(c echo.Context) error {
	var in service.RuleInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	rule, err := h.rules.Create(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, "CreateRule", err)
	}
	return c.JSON(http.StatusCreated, Ok(rule))
}

func (h *Handler) UpdateRule(c echo.Context) error {
	var in service.RuleInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	rule, err := h.rules.Update(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, "UpdateRule", err)
	}
	return c.JSON(http.StatusOK, Ok(rule))
}

func (h *Handler) ToggleRule(c echo.Context) error {
	rule, err := h.rules.Toggle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "ToggleRule", err)
	}
	return c.JSON(http.StatusOK, Ok(rule))
}

func (h *Handler) DeleteRule(c echo.Context) error {
	if err := h.rules.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, "DeleteRule", err)
	}
	return c.JSON(http.StatusOK, Ok[any](nil))
}

// RuleSuggestions 内置规则建议
func (h *Handler) RuleSuggestions(c echo.Context) error {
	return c.JSON(http.StatusOK, Ok(newList(h.rules.Suggestions())))
}

// ResetDefaultRules 恢复默认规则（覆盖全部自定义规则）
func (h *Handler) ResetDefaultRules(c echo.Context) error {
	rules, err := h.rules.ResetDefaultRules(c.Request().Context())
	if err != nil {
		return h.fail(c, "ResetDefaultRules", err)
	}
	return c.JSON(http.StatusOK, Ok(newList(rules)))
}
