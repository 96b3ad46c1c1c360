package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wisefido-sleep-alert/internal/export"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"

	"go.uber.org/zap"
)

// ErrInvalidStatus 非法的处理状态
var ErrInvalidStatus = errors.New("invalid alert record status")

// StatusInput 记录处理请求体
type StatusInput struct {
	Status *models.RecordStatus `json:"status"`
	Note   string               `json:"processNote"`
}

// RecordService 预警记录管理
type RecordService struct {
	repo   repository.RecordRepository
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewRecordService 创建记录服务
// loc 用于导出时格式化日期
func NewRecordService(repo repository.RecordRepository, loc *time.Location, logger *zap.Logger) *RecordService {
	return &RecordService{repo: repo, loc: loc, logger: logger, now: time.Now}
}

func (s *RecordService) List(ctx context.Context, filter repository.RecordFilter) ([]models.AlertRecord, error) {
	return s.repo.ListRecords(ctx, filter)
}

func (s *RecordService) Get(ctx context.Context, id string) (*models.AlertRecord, error) {
	return s.repo.GetRecord(ctx, id)
}

// UpdateStatus 标记记录为已处理/已忽略（或恢复为未处理），processedAt 取当前时间
func (s *RecordService) UpdateStatus(ctx context.Context, id string, in StatusInput) (*models.AlertRecord, error) {
	if in.Status == nil || !in.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be 0, 1 or 2", ErrInvalidStatus)
	}
	var note *string
	if trimmed := strings.TrimSpace(in.Note); trimmed != "" {
		note = &trimmed
	}

	rec, err := s.repo.UpdateRecordStatus(ctx, id, *in.Status, s.now().UnixMilli(), note)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Alert record status updated",
		zap.String("record_id", id),
		zap.String("status", in.Status.String()),
	)
	return rec, nil
}

func (s *RecordService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Alert record deleted", zap.String("record_id", id))
	return nil
}

// Clear 清空全部记录
func (s *RecordService) Clear(ctx context.Context) (int64, error) {
	n, err := s.repo.ClearRecords(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("Alert records cleared", zap.Int64("count", n))
	return n, nil
}

// Export 按条件导出 Excel
func (s *RecordService) Export(ctx context.Context, filter repository.RecordFilter) ([]byte, error) {
	records, err := s.repo.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}
	return export.AlertRecordsExcel(records, s.loc)
}
