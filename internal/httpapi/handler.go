package httpapi

import (
	"net/http"
	"strconv"

	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler 睡眠预警 HTTP 接口
type Handler struct {
	rules      *service.RuleService
	records    *service.RecordService
	evaluation *service.EvaluationService
	logger     *zap.Logger
}

// NewHandler 创建 Handler
func NewHandler(rules *service.RuleService, records *service.RecordService, evaluation *service.EvaluationService, logger *zap.Logger) *Handler {
	return &Handler{
		rules:      rules,
		records:    records,
		evaluation: evaluation,
		logger:     logger,
	}
}

// Register 注册 /api/v1 下的全部路由
func (h *Handler) Register(e *echo.Echo) {
	v1 := e.Group("/api/v1")

	rules := v1.Group("/rules")
	rules.GET("", h.ListRules)
	rules.GET("/suggestions", h.RuleSuggestions)
	rules.POST("/reset-defaults", h.ResetDefaultRules)
	rules.GET("/:id", h.GetRule)
	rules.POST("", h.CreateRule)
	rules.PUT("/:id", h.UpdateRule)
	rules.PATCH("/:id/toggle", h.ToggleRule)
	rules.DELETE("/:id", h.DeleteRule)

	records := v1.Group("/records")
	records.GET("", h.ListRecords)
	records.GET("/export", h.ExportRecords)
	records.GET("/:id", h.GetRecord)
	records.PATCH("/:id/status", h.UpdateRecordStatus)
	records.DELETE("/:id", h.DeleteRecord)
	records.DELETE("", h.ClearRecords)

	v1.POST("/evaluate", h.EvaluateSnapshot)
	v1.POST("/devices/:code/evaluate", h.EvaluateDeviceDay)
	v1.GET("/metadata", h.Metadata)
}

// MetadataOption 下拉选项
type MetadataOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Unit  string `json:"unit,omitempty"`
}

// Metadata 指标、比较符、级别与状态的可选值
type Metadata struct {
	MetricTypes []MetadataOption `json:"metricTypes"`
	Operators   []MetadataOption `json:"operators"`
	Levels      []MetadataOption `json:"levels"`
	Statuses    []MetadataOption `json:"statuses"`
}

// Metadata GET /api/v1/metadata
func (h *Handler) Metadata(c echo.Context) error {
	var md Metadata
	for _, m := range models.AllMetricTypes {
		md.MetricTypes = append(md.MetricTypes, MetadataOption{Value: string(m), Label: m.Label(), Unit: m.Unit()})
	}
	for _, op := range models.AllOperators {
		md.Operators = append(md.Operators, MetadataOption{Value: string(op), Label: string(op)})
	}
	for _, s := range models.AllSeverities {
		md.Levels = append(md.Levels, MetadataOption{Value: string(s), Label: s.Label()})
	}
	for _, st := range []models.RecordStatus{models.StatusUnprocessed, models.StatusProcessed, models.StatusIgnored} {
		md.Statuses = append(md.Statuses, MetadataOption{Value: strconv.Itoa(int(st)), Label: models.StatusLabels[st]})
	}
	return c.JSON(http.StatusOK, Ok(md))
}

// ListResponse 列表响应
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func newList[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}
