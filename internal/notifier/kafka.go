package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter kafka.Writer 的最小接口
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier 以设备编码为 key 写入 Kafka，同一设备的预警落在同一分区
type KafkaNotifier struct {
	writer MessageWriter
}

// NewKafkaWriter 创建同步写入的 kafka.Writer
func NewKafkaWriter(brokers []string, topic string) (*kafka.Writer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}, nil
}

// NewKafkaNotifier 创建 Kafka 通知器
func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) Notify(ctx context.Context, records []models.AlertRecord) error {
	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		payload, err := marshalEvent(rec)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(rec.DeviceCode),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "level", Value: []byte(rec.Severity)},
				{Key: "type", Value: []byte(rec.MetricType)},
			},
		})
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d alert messages: %w", len(msgs), err)
	}
	return nil
}

// Close 关闭 writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
