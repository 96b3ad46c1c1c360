package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// 体动分类名称（movement_types[].type）
const (
	MovementTypePositionChange = "Position Change"
	MovementTypeBodyMovement   = "Body Movement"
)

// ErrInvalidSnapshot 睡眠数据缺少必要字段
var ErrInvalidSnapshot = errors.New("invalid sleep snapshot")

// SleepSnapshot 单设备单日睡眠汇总数据（/data/daily 返回结构）
type SleepSnapshot struct {
	DeviceCode      string          `json:"device_code"`
	Timestamp       int64           `json:"timestamp"` // 秒，作为日期键
	QualityScore    float64         `json:"sleep_quality_score"`
	SleepStartTime  int64           `json:"sleep_start_time,omitempty"`
	SleepEndTime    int64           `json:"sleep_end_time,omitempty"`
	RespiratoryRate RespiratoryRate `json:"respiratory_rate"`
	SleepSummary    SleepSummary    `json:"sleep_summary_data"`
	Movement        Movement        `json:"movement"`
	SleepSuggestion []string        `json:"sleep_suggestion,omitempty"`
}

// RespiratoryRate 呼吸率（次/分钟）
type RespiratoryRate struct {
	MinimumBpm float64 `json:"minimum_bpm"`
	AverageBpm float64 `json:"average_bpm"`
	MaximumBpm float64 `json:"maximum_bpm"`
}

// SleepSummary 睡眠结构（分钟）
// TotalSleepDurationMinutes 可能包含清醒时间，不保证等于三个阶段之和
type SleepSummary struct {
	LightSleepMinutes         float64 `json:"light_sleep_overall_minutes"`
	DeepSleepMinutes          float64 `json:"deep_sleep_overall_minutes"`
	RemSleepMinutes           float64 `json:"rem_sleep_overall_minutes"`
	TotalSleepDurationMinutes float64 `json:"total_sleep_duration_minutes"`
	AwakeCount                int     `json:"awake_time"`
}

// Movement 体动汇总
type Movement struct {
	TotalInactivityMinutes float64        `json:"total_inactivity_duration_minutes"`
	TotalMovementMinutes   float64        `json:"total_movement_duration_minutes"`
	MovementTypes          []MovementType `json:"movement_types"`
}

// MovementType 按分类的体动时长
type MovementType struct {
	Type            string  `json:"type"`
	DurationMinutes float64 `json:"duration_minutes"`
}

// Duration 返回指定分类的体动时长，分类不存在时为 0
func (m Movement) Duration(movementType string) float64 {
	for _, mt := range m.MovementTypes {
		if mt.Type == movementType {
			return mt.DurationMinutes
		}
	}
	return 0
}

// SleepDateMillis 睡眠日期键（毫秒）
func (s *SleepSnapshot) SleepDateMillis() int64 {
	return SleepDateMillis(s.Timestamp)
}

// SleepDateMillis 秒级时间戳转换为记录使用的毫秒日期键
func SleepDateMillis(seconds int64) int64 {
	return seconds * 1000
}

// Validate 校验边界字段
func (s *SleepSnapshot) Validate() error {
	if strings.TrimSpace(s.DeviceCode) == "" {
		return fmt.Errorf("%w: device_code is required", ErrInvalidSnapshot)
	}
	if s.Timestamp <= 0 {
		return fmt.Errorf("%w: timestamp must be positive epoch seconds, got %d", ErrInvalidSnapshot, s.Timestamp)
	}
	return nil
}

// ParseSleepSnapshot 解析并校验睡眠数据 JSON，缺失的数值字段按 0 处理
func ParseSleepSnapshot(data []byte) (*SleepSnapshot, error) {
	var s SleepSnapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
