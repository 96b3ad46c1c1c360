package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageBackendPostgres, cfg.Storage.Backend)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "owlrd", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ":8090", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.DataAPI.Timeout)
	assert.Equal(t, 3, cfg.DataAPI.RetryCount)
	assert.True(t, cfg.Alert.SeedDefaultRules)
	assert.Equal(t, "redis", cfg.Alert.Lock.Backend)
	assert.Equal(t, "sleep-alert:lock:", cfg.Alert.Lock.KeyPrefix)
	assert.Equal(t, 30*time.Second, cfg.Alert.Lock.TTL)
	assert.Equal(t, "sleepace:snapshot:stream", cfg.Alert.Streams.Snapshot)
	assert.Equal(t, "sleep-alert:record:stream", cfg.Alert.Streams.Alerts)
	assert.Equal(t, int64(10), cfg.Alert.Streams.BatchSize)
	assert.Equal(t, time.Minute, cfg.Alert.Streams.ReclaimIdle)
	assert.Equal(t, int64(5), cfg.Alert.Streams.MaxDeliveries)
	assert.False(t, cfg.Alert.MQTTTrigger.Enabled)
	assert.False(t, cfg.Alert.KafkaEnabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORAGE_BACKEND", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("ALERT_LOCK_TTL", "45s")
	t.Setenv("ALERT_MQTT_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ALERT_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageBackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/x.db", cfg.SQLite.Path)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 45*time.Second, cfg.Alert.Lock.TTL)
	assert.True(t, cfg.Alert.MQTTTrigger.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_InvalidBackend(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORAGE_BACKEND", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	os.Clearenv()
	t.Setenv("ALERT_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
}
