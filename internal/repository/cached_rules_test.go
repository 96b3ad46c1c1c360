package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRules struct {
	RuleRepository
	rules []models.AlertRule
	lists int
}

func (c *countingRules) ListRules(ctx context.Context, filter RuleFilter) ([]models.AlertRule, error) {
	c.lists++
	return cloneRules(c.rules), nil
}

func (c *countingRules) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	c.rules = append(c.rules, *rule)
	return nil
}

func TestCachedRuleRepository(t *testing.T) {
	inner := &countingRules{rules: []models.AlertRule{{ID: "r1", Name: "A"}}}
	cached := NewCachedRuleRepository(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	first, err := cached.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	first[0].Name = "mutated by caller"

	second, err := cached.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.lists)
	assert.Equal(t, "A", second[0].Name)

	enabled := true
	_, err = cached.ListRules(ctx, RuleFilter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.lists)

	require.NoError(t, cached.CreateRule(ctx, &models.AlertRule{ID: "r2", Name: "B"}))
	third, err := cached.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, inner.lists)
	assert.Len(t, third, 2)
}

type gatedRules struct {
	RuleRepository
	mu      sync.Mutex
	rules   []models.AlertRule
	lists   int
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRules) ListRules(ctx context.Context, filter RuleFilter) ([]models.AlertRule, error) {
	g.mu.Lock()
	g.lists++
	snapshot := cloneRules(g.rules)
	first := g.lists == 1
	g.mu.Unlock()

	if first {
		g.entered <- struct{}{}
		<-g.release
	}
	return snapshot, nil
}

func (g *gatedRules) DeleteRule(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = nil
	return nil
}

func TestCachedRuleRepository_InFlightReadDoesNotRefillAfterWrite(t *testing.T) {
	inner := &gatedRules{
		rules:   []models.AlertRule{{ID: "r1", Name: "A"}},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cached := NewCachedRuleRepository(inner, time.Minute, zap.NewNop())
	ctx := context.Background()

	done := make(chan []models.AlertRule, 1)
	go func() {
		rules, _ := cached.ListRules(ctx, RuleFilter{})
		done <- rules
	}()

	<-inner.entered
	require.NoError(t, cached.DeleteRule(ctx, "r1"))
	close(inner.release)
	assert.Len(t, <-done, 1)

	// 读取期间的删除使旧结果作废，下一次读取回源
	rules, err := cached.ListRules(ctx, RuleFilter{})
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Equal(t, 2, inner.lists)
}
