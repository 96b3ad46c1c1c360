package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	rediscommon "wisefido-sleep-alert/internal/common/redis"
	"wisefido-sleep-alert/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const sourceStream = "stream"

// StreamConfig 快照流消费配置
type StreamConfig struct {
	Stream       string
	Group        string
	ConsumerName string
	BatchSize    int64
	Block        time.Duration
	// 评估失败的消息空闲超过 ReclaimIdle 后被重新认领并处理
	ReclaimIdle time.Duration
	// 投递次数达到 MaxDeliveries 的消息确认丢弃，0 表示不限
	MaxDeliveries int64
}

// StreamConsumer 从 Redis Streams 读取睡眠快照并评估
type StreamConsumer struct {
	cfg         StreamConfig
	redisClient *redis.Client
	evaluator   SnapshotEvaluator
	logger      *zap.Logger
}

// NewStreamConsumer 创建快照流消费者
func NewStreamConsumer(cfg StreamConfig, redisClient *redis.Client, evaluator SnapshotEvaluator, logger *zap.Logger) *StreamConsumer {
	return &StreamConsumer{
		cfg:         cfg,
		redisClient: redisClient,
		evaluator:   evaluator,
		logger:      logger,
	}
}

// Start 创建消费者组并循环消费，ctx 取消时返回
func (c *StreamConsumer) Start(ctx context.Context) error {
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.cfg.Stream, c.cfg.Group); err != nil {
		return err
	}

	c.logger.Info("Snapshot stream consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("consumer_group", c.cfg.Group),
		zap.String("consumer_name", c.cfg.ConsumerName),
		zap.Duration("reclaim_idle", c.cfg.ReclaimIdle),
	)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := c.consumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume snapshot stream",
				zap.String("stream", c.cfg.Stream),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

// consumeOnce 先重试空闲的 pending 消息，再读取一批新消息；单条失败不影响其余消息
func (c *StreamConsumer) consumeOnce(ctx context.Context) error {
	if err := c.reclaimPending(ctx); err != nil {
		return err
	}

	messages, err := rediscommon.ReadFromStream(ctx, c.redisClient,
		c.cfg.Stream, c.cfg.Group, c.cfg.ConsumerName, c.cfg.BatchSize, c.cfg.Block)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.cfg.Stream, err)
	}
	c.handleMessages(ctx, messages)
	return nil
}

// reclaimPending 认领组内空闲超过 ReclaimIdle 的 pending 消息（含已下线消费者遗留的）并重新处理
func (c *StreamConsumer) reclaimPending(ctx context.Context) error {
	pending, err := rediscommon.ListPending(ctx, c.redisClient, c.cfg.Stream, c.cfg.Group, c.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("failed to list pending messages on %s: %w", c.cfg.Stream, err)
	}

	ids := make([]string, 0, len(pending))
	for _, p := range pending {
		if p.Idle < c.cfg.ReclaimIdle {
			continue
		}
		if c.cfg.MaxDeliveries > 0 && p.Deliveries >= c.cfg.MaxDeliveries {
			c.logger.Error("Dropping snapshot message after max deliveries",
				zap.String("stream", c.cfg.Stream),
				zap.String("message_id", p.ID),
				zap.Int64("deliveries", p.Deliveries),
			)
			c.ack(ctx, c.cfg.Stream, p.ID)
			continue
		}
		ids = append(ids, p.ID)
	}
	if len(ids) == 0 {
		return nil
	}

	messages, err := rediscommon.Claim(ctx, c.redisClient,
		c.cfg.Stream, c.cfg.Group, c.cfg.ConsumerName, c.cfg.ReclaimIdle, ids...)
	if err != nil {
		return fmt.Errorf("failed to claim pending messages on %s: %w", c.cfg.Stream, err)
	}
	if len(messages) > 0 {
		c.logger.Info("Retrying pending snapshot messages",
			zap.String("stream", c.cfg.Stream),
			zap.Int("count", len(messages)),
		)
	}
	c.handleMessages(ctx, messages)
	return nil
}

func (c *StreamConsumer) handleMessages(ctx context.Context, messages []rediscommon.StreamMessage) {
	for _, msg := range messages {
		ack, err := c.processMessage(ctx, msg)
		if err != nil {
			c.logger.Error("Failed to process snapshot message",
				zap.String("stream", msg.Stream),
				zap.String("message_id", msg.ID),
				zap.Bool("acked", ack),
				zap.Error(err),
			)
		}
		if ack {
			c.ack(ctx, msg.Stream, msg.ID)
		}
	}
}

func (c *StreamConsumer) ack(ctx context.Context, stream, id string) {
	if err := rediscommon.Ack(ctx, c.redisClient, stream, c.cfg.Group, id); err != nil {
		c.logger.Warn("Failed to ack snapshot message",
			zap.String("message_id", id),
			zap.Error(err),
		)
	}
}

// processMessage 返回是否应确认该消息
// 无法解析的消息直接确认丢弃；评估失败（存储等暂时性错误）留在 pending 列表等待重新认领
func (c *StreamConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) (bool, error) {
	data, ok := msg.Field("data")
	if !ok {
		return true, fmt.Errorf("%w: message has no data field", models.ErrInvalidSnapshot)
	}

	snapshot, err := models.ParseSleepSnapshot([]byte(data))
	if err != nil {
		return true, err
	}

	if _, err := c.evaluator.EvaluateSnapshot(ctx, sourceStream, snapshot); err != nil {
		return errors.Is(err, models.ErrInvalidSnapshot), err
	}
	return true, nil
}
