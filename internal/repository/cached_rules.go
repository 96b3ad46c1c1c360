package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// CachedRuleRepository 规则读缓存，任何写操作清空缓存
// 评估路径每条快照都要读取启用的规则，写操作相对很少
// 缓存只在本进程内失效，仅用于单实例部署
type CachedRuleRepository struct {
	RuleRepository
	cache  *cache.Cache
	logger *zap.Logger

	mu         sync.Mutex
	generation uint64 // 每次失效递增
}

// NewCachedRuleRepository 包装规则仓库，ttl<=0 时使用 30 秒
func NewCachedRuleRepository(inner RuleRepository, ttl time.Duration, logger *zap.Logger) *CachedRuleRepository {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedRuleRepository{
		RuleRepository: inner,
		cache:          cache.New(ttl, 2*ttl),
		logger:         logger,
	}
}

// ListRules 优先读缓存，返回切片副本
func (c *CachedRuleRepository) ListRules(ctx context.Context, filter RuleFilter) ([]models.AlertRule, error) {
	key := ruleFilterKey(filter)
	if v, ok := c.cache.Get(key); ok {
		return cloneRules(v.([]models.AlertRule)), nil
	}

	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	rules, err := c.RuleRepository.ListRules(ctx, filter)
	if err != nil {
		return nil, err
	}

	// 读取期间发生过写操作时结果可能已过期，不回填
	c.mu.Lock()
	if gen == c.generation {
		c.cache.SetDefault(key, cloneRules(rules))
	}
	c.mu.Unlock()
	return rules, nil
}

func (c *CachedRuleRepository) CreateRule(ctx context.Context, rule *models.AlertRule) error {
	defer c.invalidate()
	return c.RuleRepository.CreateRule(ctx, rule)
}

func (c *CachedRuleRepository) UpdateRule(ctx context.Context, rule *models.AlertRule) error {
	defer c.invalidate()
	return c.RuleRepository.UpdateRule(ctx, rule)
}

func (c *CachedRuleRepository) ToggleRule(ctx context.Context, id string) (*models.AlertRule, error) {
	defer c.invalidate()
	return c.RuleRepository.ToggleRule(ctx, id)
}

func (c *CachedRuleRepository) DeleteRule(ctx context.Context, id string) error {
	defer c.invalidate()
	return c.RuleRepository.DeleteRule(ctx, id)
}

func (c *CachedRuleRepository) ReplaceRules(ctx context.Context, rules []models.AlertRule) error {
	defer c.invalidate()
	return c.RuleRepository.ReplaceRules(ctx, rules)
}

func (c *CachedRuleRepository) invalidate() {
	c.mu.Lock()
	c.generation++
	c.cache.Flush()
	c.mu.Unlock()
	c.logger.Debug("Alert rule cache invalidated")
}

func ruleFilterKey(f RuleFilter) string {
	enabled := "any"
	if f.Enabled != nil {
		enabled = fmt.Sprintf("%t", *f.Enabled)
	}
	return "rules:" + enabled + ":" + string(f.MetricType)
}

func cloneRules(rules []models.AlertRule) []models.AlertRule {
	out := make([]models.AlertRule, len(rules))
	copy(out, rules)
	return out
}
