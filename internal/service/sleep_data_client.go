package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wisefido-sleep-alert/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrDataAPI 睡眠数据接口返回错误
var ErrDataAPI = errors.New("sleep data api error")

// DailyDataResponse /data/daily 响应（code=0 表示成功）
type DailyDataResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// DataClientConfig 数据接口客户端配置
type DataClientConfig struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// SleepDataClient 睡眠数据接口客户端
type SleepDataClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewSleepDataClient 创建客户端，5xx 与网络错误自动重试
func NewSleepDataClient(cfg DataClientConfig, logger *zap.Logger) *SleepDataClient {
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(5*cfg.RetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		}).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &SleepDataClient{httpClient: client, logger: logger}
}

// GetDailySnapshot 获取设备某天的睡眠汇总，date 格式 YYYY-MM-DD
func (c *SleepDataClient) GetDailySnapshot(ctx context.Context, deviceCode, date string) (*models.SleepSnapshot, error) {
	var response DailyDataResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"deviceCode": deviceCode,
			"date":       date,
		}).
		SetResult(&response).
		Get("/data/daily")
	if err != nil {
		return nil, fmt.Errorf("failed to call sleep data api: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Sleep data api returned HTTP error",
			zap.String("device_code", deviceCode),
			zap.String("date", date),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("%w: http status %d", ErrDataAPI, resp.StatusCode())
	}
	if response.Code != 0 {
		return nil, fmt.Errorf("%w: %s (code: %d)", ErrDataAPI, response.Message, response.Code)
	}
	if len(response.Data) == 0 || string(response.Data) == "null" {
		return nil, fmt.Errorf("%w: no sleep data for %s on %s", ErrDataAPI, deviceCode, date)
	}

	var snapshot models.SleepSnapshot
	if err := json.Unmarshal(response.Data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidSnapshot, err)
	}
	if snapshot.DeviceCode == "" {
		snapshot.DeviceCode = deviceCode
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched daily sleep snapshot",
		zap.String("device_code", deviceCode),
		zap.String("date", date),
		zap.Int64("timestamp", snapshot.Timestamp),
	)
	return &snapshot, nil
}
