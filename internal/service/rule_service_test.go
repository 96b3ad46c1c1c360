package service

import (
	"context"
	"testing"

	"wisefido-sleep-alert/internal/evaluator"
	"wisefido-sleep-alert/internal/models"
	"wisefido-sleep-alert/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool          { return &v }

func TestRuleService_CreateUpdateToggleDelete(t *testing.T) {
	rules, _ := setupRepos(t)
	svc := NewRuleService(rules, testLogger())
	ctx := context.Background()

	created, err := svc.Create(ctx, RuleInput{
		Name:       "  夜间呼吸过快 ",
		MetricType: models.MetricRespiratoryRate,
		Operator:   models.OpGreaterThanOrEqual,
		Threshold:  float64Ptr(22),
		Severity:   models.SeverityHigh,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "夜间呼吸过快", created.Name)
	assert.True(t, created.Enabled)

	updated, err := svc.Update(ctx, created.ID, RuleInput{
		Name:       "夜间呼吸过快",
		MetricType: models.MetricRespiratoryRate,
		Operator:   models.OpGreaterThan,
		Threshold:  float64Ptr(24),
		Severity:   models.SeverityUrgent,
	})
	require.NoError(t, err)
	assert.True(t, updated.Enabled)
	assert.Equal(t, 24.0, updated.Threshold)

	toggled, err := svc.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SeverityUrgent, got.Severity)
	assert.False(t, got.Enabled)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrRuleNotFound)
}

func TestRuleService_RejectsInvalidInput(t *testing.T) {
	rules, _ := setupRepos(t)
	svc := NewRuleService(rules, testLogger())
	ctx := context.Background()

	valid := RuleInput{
		Name:       "睡眠质量过低",
		MetricType: models.MetricSleepQuality,
		Operator:   models.OpLessThan,
		Threshold:  float64Ptr(70),
		Severity:   models.SeverityMedium,
	}

	tests := []struct {
		name   string
		mutate func(in *RuleInput)
	}{
		{"missing threshold", func(in *RuleInput) { in.Threshold = nil }},
		{"blank name", func(in *RuleInput) { in.Name = " " }},
		{"unknown metric", func(in *RuleInput) { in.MetricType = "heart_rate" }},
		{"unknown operator", func(in *RuleInput) { in.Operator = "~" }},
		{"unknown level", func(in *RuleInput) { in.Severity = "critical" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, models.ErrInvalidRule)
		})
	}

	_, err := svc.Create(ctx, valid)
	require.NoError(t, err)
	_, err = svc.Create(ctx, valid)
	assert.ErrorIs(t, err, repository.ErrDuplicateRuleName)

	_, err = svc.Update(ctx, "missing", valid)
	assert.ErrorIs(t, err, repository.ErrRuleNotFound)
}

func TestRuleService_Defaults(t *testing.T) {
	rules, _ := setupRepos(t)
	svc := NewRuleService(rules, testLogger())
	ctx := context.Background()

	assert.Len(t, svc.Suggestions(), len(evaluator.DefaultRules()))

	seeded, err := svc.SeedDefaultsIfEmpty(ctx)
	require.NoError(t, err)
	assert.True(t, seeded)

	seeded, err = svc.SeedDefaultsIfEmpty(ctx)
	require.NoError(t, err)
	assert.False(t, seeded)

	all, err := svc.List(ctx, repository.RuleFilter{})
	require.NoError(t, err)
	require.Len(t, all, len(evaluator.DefaultRules()))
	assert.Equal(t, evaluator.DefaultRules()[0].Name, all[0].Name)

	_, err = svc.Toggle(ctx, all[0].ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, RuleInput{Name: "自定义", MetricType: models.MetricBodyMovement,
		Operator: models.OpGreaterThan, Threshold: float64Ptr(30), Severity: models.SeverityLow, Enabled: boolPtr(false)})
	require.NoError(t, err)

	reset, err := svc.ResetDefaultRules(ctx)
	require.NoError(t, err)
	assert.Len(t, reset, len(evaluator.DefaultRules()))

	all, err = svc.List(ctx, repository.RuleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, len(evaluator.DefaultRules()))
	for _, r := range all {
		assert.True(t, r.Enabled, r.Name)
		assert.NotEqual(t, "自定义", r.Name)
	}
}
