package service

import (
	"context"
	"fmt"
	"strings"

	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RuleInput 创建/更新规则的请求体
// Enabled 为空时：创建默认启用，更新保持原值
type RuleInput struct {
	Name        string            `json:"name"`
	MetricType  models.MetricType `json:"type"`
	Operator    models.Operator   `json:"operator"`
	Threshold   *float64          `json:"threshold"`
	Severity    models.Severity   `json:"level"`
	Enabled     *bool             `json:"enabled"`
	Description string            `json:"description"`
}

func (in RuleInput) toRule(id string, enabledDefault bool) (*models.AlertRule, error) {
	if in.Threshold == nil {
		return nil, fmt.Errorf("%w: threshold is required", models.ErrInvalidRule)
	}
	enabled := enabledDefault
	if in.Enabled != nil {
		enabled = *in.Enabled
	}
	rule := &models.AlertRule{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		MetricType:  in.MetricType,
		Operator:    in.Operator,
		Threshold:   *in.Threshold,
		Severity:    in.Severity,
		Enabled:     enabled,
		Description: in.Description,
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// RuleService 规则管理
type RuleService struct {
	repo   repository.RuleRepository
	logger *zap.Logger
}

// NewRuleService 创建规则服务
func NewRuleService(repo repository.RuleRepository, logger *zap.Logger) *RuleService {
	return &RuleService{repo: repo, logger: logger}
}

func (s *RuleService) List(ctx context.Context, filter repository.RuleFilter) ([]models.AlertRule, error) {
	return s.repo.ListRules(ctx, filter)
}

func (s *RuleService) Get(ctx context.Context, id string) (*models.AlertRule, error) {
	return s.repo.GetRule(ctx, id)
}

// Create 新建规则，ID 由服务端生成
func (s *RuleService) Create(ctx context.Context, in RuleInput) (*models.AlertRule, error) {
	rule, err := in.toRule(uuid.New().String(), true)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info("Alert rule created",
		zap.String("rule_id", rule.ID),
		zap.String("name", rule.Name),
		zap.String("type", string(rule.MetricType)),
	)
	return rule, nil
}

// Update 整体更新规则，已产生的记录不受影响
func (s *RuleService) Update(ctx context.Context, id string, in RuleInput) (*models.AlertRule, error) {
	current, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	rule, err := in.toRule(id, current.Enabled)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info("Alert rule updated", zap.String("rule_id", id))
	return rule, nil
}

func (s *RuleService) Toggle(ctx context.Context, id string) (*models.AlertRule, error) {
	rule, err := s.repo.ToggleRule(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Alert rule toggled", zap.String("rule_id", id), zap.Bool("enabled", rule.Enabled))
	return rule, nil
}

func (s *RuleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Alert rule deleted", zap.String("rule_id", id))
	return nil
}

// Suggestions 内置规则建议（未分配 ID）
func (s *RuleService) Suggestions() []models.AlertRule {
	return evaluator.DefaultRules()
}

// ResetDefaultRules 用内置建议替换全部规则
func (s *RuleService) ResetDefaultRules(ctx context.Context) ([]models.AlertRule, error) {
	rules := evaluator.DefaultRulesWithIDs()
	if err := s.repo.ReplaceRules(ctx, rules); err != nil {
		return nil, err
	}
	s.logger.Info("Alert rules reset to defaults", zap.Int("count", len(rules)))
	return rules, nil
}

// SeedDefaultsIfEmpty 规则表为空时写入内置建议
func (s *RuleService) SeedDefaultsIfEmpty(ctx context.Context) (bool, error) {
	existing, err := s.repo.ListRules(ctx, repository.RuleFilter{})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	if _, err := s.ResetDefaultRules(ctx); err != nil {
		return false, err
	}
	return true, nil
}
