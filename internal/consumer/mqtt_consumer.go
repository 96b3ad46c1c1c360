package consumer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqttcommon "wisefido-sleep-alert/internal/common/mqtt"

	"go.uber.org/zap"
)

const (
	sourceMQTT = "mqtt"

	dataKeyAnalysis = "analysis"
)

// Subscriber MQTT 订阅端
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// ReceivedMessage Sleepace 上报消息
type ReceivedMessage struct {
	DeviceID  string          `json:"deviceId"`
	DataKey   string          `json:"dataKey"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// AnalysisData 睡眠分析完成事件
type AnalysisData struct {
	DeviceID  string `json:"deviceId"`
	UserID    string `json:"userId"`
	StartTime int64  `json:"startTime"`
	TimeStamp int64  `json:"timeStamp"` // 分析结束时间（秒）
}

// MQTTTrigger 收到睡眠分析完成事件后评估对应设备当天的数据
type MQTTTrigger struct {
	topic     string
	qos       byte
	evaluator DeviceDayEvaluator
	loc       *time.Location
	logger    *zap.Logger

	// 回调里的评估使用服务生命周期的 ctx，停止服务时取消进行中的拉取
	ctx context.Context
}

// NewMQTTTrigger 创建 MQTT 触发器，loc 用于把分析结束时间换算为日期
func NewMQTTTrigger(topic string, qos byte, evaluator DeviceDayEvaluator, loc *time.Location, logger *zap.Logger) *MQTTTrigger {
	if loc == nil {
		loc = time.UTC
	}
	return &MQTTTrigger{
		topic:     topic,
		qos:       qos,
		evaluator: evaluator,
		loc:       loc,
		logger:    logger,
		ctx:       context.Background(),
	}
}

// Start 订阅主题，ctx 取消后回调中的评估随之取消
func (t *MQTTTrigger) Start(ctx context.Context, sub Subscriber) error {
	t.ctx = ctx
	if err := sub.Subscribe(t.topic, t.qos, t.HandleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", t.topic, err)
	}
	t.logger.Info("MQTT analysis trigger started", zap.String("topic", t.topic))
	return nil
}

// Stop 取消订阅
func (t *MQTTTrigger) Stop(sub Subscriber) error {
	return sub.Unsubscribe(t.topic)
}

// HandleMessage 处理一条 MQTT 消息，负载可以是消息数组或单条消息
func (t *MQTTTrigger) HandleMessage(topic string, payload []byte) error {
	messages, err := decodeMessages(payload)
	if err != nil {
		return fmt.Errorf("failed to unmarshal message from %s: %w", topic, err)
	}

	for i := range messages {
		if err := t.processMessage(&messages[i]); err != nil {
			t.logger.Error("Failed to process sleepace message",
				zap.String("topic", topic),
				zap.String("device_code", messages[i].DeviceID),
				zap.String("data_key", messages[i].DataKey),
				zap.Error(err),
			)
		}
	}
	return nil
}

func decodeMessages(payload []byte) ([]ReceivedMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var msg ReceivedMessage
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return nil, err
		}
		return []ReceivedMessage{msg}, nil
	}
	var messages []ReceivedMessage
	if err := json.Unmarshal(trimmed, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (t *MQTTTrigger) processMessage(msg *ReceivedMessage) error {
	switch msg.DataKey {
	case dataKeyAnalysis:
		return t.handleAnalysis(msg)
	default:
		t.logger.Debug("Unhandled data key",
			zap.String("device_code", msg.DeviceID),
			zap.String("data_key", msg.DataKey),
		)
		return nil
	}
}

func (t *MQTTTrigger) handleAnalysis(msg *ReceivedMessage) error {
	var data AnalysisData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return fmt.Errorf("failed to unmarshal analysis data: %w", err)
	}

	deviceCode := data.DeviceID
	if deviceCode == "" {
		deviceCode = msg.DeviceID
	}
	end := data.TimeStamp
	if end <= 0 {
		end = msg.Timestamp
	}
	if deviceCode == "" || end <= 0 {
		return fmt.Errorf("analysis event missing device or end time")
	}

	date := time.Unix(end, 0).In(t.loc).Format("2006-01-02")
	result, err := t.evaluator.EvaluateDeviceDay(t.ctx, sourceMQTT, deviceCode, date)
	if err != nil {
		return err
	}

	t.logger.Info("Evaluated sleep analysis via MQTT",
		zap.String("device_code", deviceCode),
		zap.String("date", date),
		zap.Int64("start_time", data.StartTime),
		zap.Int64("end_time", end),
		zap.Int("new_records", len(result.Records)),
	)
	return nil
}
