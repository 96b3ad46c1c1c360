package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"wisefido-sleep-alert/internal/common/config"
)

// 存储后端
const (
	StorageBackendPostgres = "postgres"
	StorageBackendSQLite   = "sqlite"
)

// Config 睡眠预警服务配置
type Config struct {
	Storage struct {
		Backend string // postgres | sqlite
	}
	Database config.DatabaseConfig
	SQLite   config.SQLiteConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig
	Kafka    config.KafkaConfig

	HTTP struct {
		Addr string
	}

	// 睡眠数据接口（/data/daily）
	DataAPI struct {
		BaseURL    string
		Token      string
		Timeout    time.Duration
		RetryCount int
	}

	Alert struct {
		Timezone         string        // 将 YYYY-MM-DD 换算为睡眠日期时使用的时区
		SeedDefaultRules bool          // 规则表为空时写入内置规则
		RuleCacheTTL     time.Duration // 启用规则缓存时间

		Lock struct {
			Backend   string        // redis | local
			KeyPrefix string        // 如 "sleep-alert:lock:"
			TTL       time.Duration // 锁自动过期时间
			Wait      time.Duration // 获取锁最长等待时间
		}

		// Redis Streams
		Streams struct {
			Enabled       bool
			Snapshot      string // 睡眠快照输入流
			Alerts        string // 预警记录输出流
			ConsumerGroup string
			ConsumerName  string
			BatchSize     int64
			Block         time.Duration
			MaxLen        int64
			ReclaimIdle   time.Duration // pending 消息空闲多久后重新认领
			MaxDeliveries int64         // 超过该投递次数的消息确认丢弃
		}

		// MQTT：订阅报告就绪消息、发布预警
		MQTTTrigger struct {
			Enabled        bool
			SubscribeTopic string
			PublishTopic   string
		}

		KafkaEnabled bool
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", StorageBackendPostgres))

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "owlrd")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.SQLite.Path = getEnv("SQLITE_PATH", "./data/sleep-alert.db")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "wisefido-sleep-alert")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = byte(parseInt(getEnv("MQTT_QOS", "1"), 1))

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.Topic = "sleep-alert-records"
	cfg.Kafka.LoadFromEnv("KAFKA")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8090")

	cfg.DataAPI.BaseURL = getEnv("DATA_API_BASE_URL", "http://localhost:8080/api")
	cfg.DataAPI.Token = getEnv("DATA_API_TOKEN", "")
	cfg.DataAPI.Timeout = parseDuration(getEnv("DATA_API_TIMEOUT", "10s"), 10*time.Second)
	cfg.DataAPI.RetryCount = parseInt(getEnv("DATA_API_RETRY", "3"), 3)

	cfg.Alert.Timezone = getEnv("ALERT_TIMEZONE", "Asia/Shanghai")
	cfg.Alert.SeedDefaultRules = parseBool(getEnv("ALERT_SEED_DEFAULT_RULES", "true"), true)
	cfg.Alert.RuleCacheTTL = parseDuration(getEnv("ALERT_RULE_CACHE_TTL", "30s"), 30*time.Second)

	cfg.Alert.Lock.Backend = strings.ToLower(getEnv("ALERT_LOCK_BACKEND", "redis"))
	cfg.Alert.Lock.KeyPrefix = getEnv("ALERT_LOCK_PREFIX", "sleep-alert:lock:")
	cfg.Alert.Lock.TTL = parseDuration(getEnv("ALERT_LOCK_TTL", "30s"), 30*time.Second)
	cfg.Alert.Lock.Wait = parseDuration(getEnv("ALERT_LOCK_WAIT", "10s"), 10*time.Second)

	cfg.Alert.Streams.Enabled = parseBool(getEnv("ALERT_STREAMS_ENABLED", "true"), true)
	cfg.Alert.Streams.Snapshot = getEnv("ALERT_SNAPSHOT_STREAM", "sleepace:snapshot:stream")
	cfg.Alert.Streams.Alerts = getEnv("ALERT_RECORD_STREAM", "sleep-alert:record:stream")
	cfg.Alert.Streams.ConsumerGroup = getEnv("ALERT_CONSUMER_GROUP", "sleep-alert-group")
	cfg.Alert.Streams.ConsumerName = getEnv("ALERT_CONSUMER_NAME", defaultConsumerName())
	cfg.Alert.Streams.BatchSize = int64(parseInt(getEnv("ALERT_STREAM_BATCH", "10"), 10))
	cfg.Alert.Streams.Block = parseDuration(getEnv("ALERT_STREAM_BLOCK", "5s"), 5*time.Second)
	cfg.Alert.Streams.MaxLen = int64(parseInt(getEnv("ALERT_STREAM_MAXLEN", "10000"), 10000))
	cfg.Alert.Streams.ReclaimIdle = parseDuration(getEnv("ALERT_STREAM_RECLAIM_IDLE", "1m"), time.Minute)
	cfg.Alert.Streams.MaxDeliveries = int64(parseInt(getEnv("ALERT_STREAM_MAX_DELIVERIES", "5"), 5))

	cfg.Alert.MQTTTrigger.Enabled = parseBool(getEnv("ALERT_MQTT_ENABLED", "false"), false)
	cfg.Alert.MQTTTrigger.SubscribeTopic = getEnv("ALERT_MQTT_SUBSCRIBE_TOPIC", "sleepace-cn/report/#")
	cfg.Alert.MQTTTrigger.PublishTopic = getEnv("ALERT_MQTT_PUBLISH_TOPIC", "sleep-alert/records")

	cfg.Alert.KafkaEnabled = parseBool(getEnv("ALERT_KAFKA_ENABLED", "false"), false)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验配置组合
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case StorageBackendPostgres, StorageBackendSQLite:
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Alert.Lock.Backend != "redis" && c.Alert.Lock.Backend != "local" {
		return fmt.Errorf("unsupported ALERT_LOCK_BACKEND %q", c.Alert.Lock.Backend)
	}
	if c.DataAPI.BaseURL == "" {
		return fmt.Errorf("DATA_API_BASE_URL is required")
	}
	if _, err := time.LoadLocation(c.Alert.Timezone); err != nil {
		return fmt.Errorf("invalid ALERT_TIMEZONE %q: %w", c.Alert.Timezone, err)
	}
	if c.Alert.KafkaEnabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when ALERT_KAFKA_ENABLED=true")
	}
	return nil
}

// Location 预警日期所用时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Alert.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return defaultValue
}

func parseBool(s string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(s); err == nil {
		return v
	}
	return defaultValue
}

func defaultConsumerName() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return "sleep-alert-" + host
	}
	return "sleep-alert-1"
}
