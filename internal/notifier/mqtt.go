package notifier

import (
	"context"
	"fmt"

	"wisefido-sleep-alert/internal/models"
)

// Publisher MQTT 发布接口（common/mqtt.Client 实现）
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTNotifier 发布到 <topic>/<deviceCode>
type MQTTNotifier struct {
	publisher Publisher
	topic     string
	qos       byte
}

// NewMQTTNotifier 创建 MQTT 通知器
func NewMQTTNotifier(publisher Publisher, topic string, qos byte) *MQTTNotifier {
	return &MQTTNotifier{publisher: publisher, topic: topic, qos: qos}
}

func (n *MQTTNotifier) Name() string { return "mqtt" }

func (n *MQTTNotifier) Notify(ctx context.Context, records []models.AlertRecord) error {
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		payload, err := marshalEvent(rec)
		if err != nil {
			return err
		}
		topic := fmt.Sprintf("%s/%s", n.topic, rec.DeviceCode)
		if err := n.publisher.Publish(topic, n.qos, false, payload); err != nil {
			return err
		}
	}
	return nil
}
