package notifier

import (
	"context"
	"fmt"

	rediscommon "wisefido-sleep-alert/internal/common/redis"
	"wisefido-sleep-alert/internal/models"

	"github.com/go-redis/redis/v8"
)

// RedisStreamNotifier 将预警写入 Redis Stream，每条记录一条消息
type RedisStreamNotifier struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamNotifier 创建 Stream 通知器
func NewRedisStreamNotifier(client *redis.Client, stream string, maxLen int64) *RedisStreamNotifier {
	return &RedisStreamNotifier{client: client, stream: stream, maxLen: maxLen}
}

func (n *RedisStreamNotifier) Name() string { return "redis_stream" }

func (n *RedisStreamNotifier) Notify(ctx context.Context, records []models.AlertRecord) error {
	for _, rec := range records {
		if _, err := rediscommon.PublishJSONToStream(ctx, n.client, n.stream, n.maxLen, NewAlertEvent(rec)); err != nil {
			return fmt.Errorf("failed to publish alert %s to stream %s: %w", rec.ID, n.stream, err)
		}
	}
	return nil
}
