package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// StreamMessage Redis Streams 消息
type StreamMessage struct {
	Stream string
	ID     string
	Values map[string]interface{}
}

// Field 读取字符串字段，不存在或类型不符时返回 false
func (m StreamMessage) Field(name string) (string, bool) {
	v, ok := m.Values[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// PublishJSONToStream 将 data 序列化为 JSON 写入 "data" 字段，并附带发布时间
func PublishJSONToStream(ctx context.Context, client *redis.Client, stream string, maxLen int64, data interface{}) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stream payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data":      string(payload),
			"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
		},
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}
	return client.XAdd(ctx, args).Result()
}

// ReadFromStream 以消费者组方式读取新消息；block 超时返回空切片
func ReadFromStream(ctx context.Context, client *redis.Client, stream, group, consumer string, count int64, block time.Duration) ([]StreamMessage, error) {
	streams, err := client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []StreamMessage{}, nil
		}
		return nil, err
	}

	var messages []StreamMessage
	for _, s := range streams {
		for _, msg := range s.Messages {
			messages = append(messages, StreamMessage{
				Stream: s.Stream,
				ID:     msg.ID,
				Values: msg.Values,
			})
		}
	}
	return messages, nil
}

// PendingMessage 消费者组 pending 列表中的一条
type PendingMessage struct {
	ID         string
	Consumer   string
	Idle       time.Duration
	Deliveries int64
}

// ListPending 按 ID 顺序列出消费者组 pending 列表的前 count 条
func ListPending(ctx context.Context, client *redis.Client, stream, group string, count int64) ([]PendingMessage, error) {
	entries, err := client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: stream,
		Group:  group,
		Start:  "-",
		End:    "+",
		Count:  count,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []PendingMessage{}, nil
		}
		return nil, err
	}

	pending := make([]PendingMessage, 0, len(entries))
	for _, e := range entries {
		pending = append(pending, PendingMessage{
			ID:         e.ID,
			Consumer:   e.Consumer,
			Idle:       e.Idle,
			Deliveries: e.RetryCount,
		})
	}
	return pending, nil
}

// Claim 将空闲超过 minIdle 的 pending 消息转给 consumer，返回被认领的消息
func Claim(ctx context.Context, client *redis.Client, stream, group, consumer string, minIdle time.Duration, ids ...string) ([]StreamMessage, error) {
	if len(ids) == 0 {
		return []StreamMessage{}, nil
	}
	msgs, err := client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []StreamMessage{}, nil
		}
		return nil, err
	}

	messages := make([]StreamMessage, 0, len(msgs))
	for _, msg := range msgs {
		messages = append(messages, StreamMessage{Stream: stream, ID: msg.ID, Values: msg.Values})
	}
	return messages, nil
}

// Ack 确认消息已处理
func Ack(ctx context.Context, client *redis.Client, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return client.XAck(ctx, stream, group, ids...).Err()
}

// CreateConsumerGroup 创建消费者组（stream 不存在时一并创建），组已存在视为成功
func CreateConsumerGroup(ctx context.Context, client *redis.Client, stream, group string) error {
	err := client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s on %s: %w", group, stream, err)
	}
	return nil
}
