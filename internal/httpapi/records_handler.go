package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"
	"wisefido-sleep-alert/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	defaultRecordLimit = 100
	maxRecordLimit     = 1000

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// parseRecordFilter 解析 deviceCode/status/level/from/to/limit/offset
func parseRecordFilter(c echo.Context, paged bool) (repository.RecordFilter, error) {
	filter := repository.RecordFilter{
		DeviceCode: c.QueryParam("deviceCode"),
		Severity:   models.Severity(c.QueryParam("level")),
	}
	if v := c.QueryParam("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !models.RecordStatus(n).Valid() {
			return filter, fmt.Errorf("invalid status parameter")
		}
		status := models.RecordStatus(n)
		filter.Status = &status
	}

	var err error
	if filter.FromSleepDate, err = parseInt64Query(c, "from"); err != nil {
		return filter, err
	}
	if filter.ToSleepDate, err = parseInt64Query(c, "to"); err != nil {
		return filter, err
	}
	if !paged {
		return filter, nil
	}

	filter.Limit = parseInt(c.QueryParam("limit"), defaultRecordLimit)
	if filter.Limit <= 0 || filter.Limit > maxRecordLimit {
		filter.Limit = defaultRecordLimit
	}
	filter.Offset = parseInt(c.QueryParam("offset"), 0)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

func parseInt64Query(c echo.Context, name string) (int64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return n, nil
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// ListRecords GET /api/v1/records
func (h *Handler) ListRecords(c echo.Context) error {
	filter, err := parseRecordFilter(c, true)
	if err != nil {
		return badRequest(c, err.Error())
	}
	records, err := h.records.List(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "ListRecords", err)
	}
	return c.JSON(http.StatusOK, Ok(newList(records)))
}

func (h *Handler) GetRecord(c echo.Context) error {
	rec, err := h.records.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.fail(c, "GetRecord", err)
	}
	return c.JSON(http.StatusOK, Ok(rec))
}

// UpdateRecordStatus PATCH /api/v1/records/:id/status {"status":1,"processNote":"..."}
func (h *Handler) UpdateRecordStatus(c echo.Context) error {
	var in service.StatusInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	rec, err := h.records.UpdateStatus(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return h.fail(c, "UpdateRecordStatus", err)
	}
	return c.JSON(http.StatusOK, Ok(rec))
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	if err := h.records.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return h.fail(c, "DeleteRecord", err)
	}
	return c.JSON(http.StatusOK, Ok[any](nil))
}

// ClearRecords DELETE /api/v1/records
func (h *Handler) ClearRecords(c echo.Context) error {
	n, err := h.records.Clear(c.Request().Context())
	if err != nil {
		return h.fail(c, "ClearRecords", err)
	}
	return c.JSON(http.StatusOK, Ok(map[string]int64{"deleted": n}))
}

// ExportRecords GET /api/v1/records/export，条件同列表但不分页
func (h *Handler) ExportRecords(c echo.Context) error {
	filter, err := parseRecordFilter(c, false)
	if err != nil {
		return badRequest(c, err.Error())
	}
	data, err := h.records.Export(c.Request().Context(), filter)
	if err != nil {
		return h.fail(c, "ExportRecords", err)
	}

	filename := fmt.Sprintf("sleep-alert-records-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}
