package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_NAME", "sleep")
	t.Setenv("PG_MAX_CONNS", "bogus")

	c := DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", MaxConns: 10, SSLMode: "disable"}
	c.LoadFromEnv("PG")

	assert.Equal(t, "db.internal", c.Host)
	assert.Equal(t, 6543, c.Port)
	assert.Equal(t, "sleep", c.Database)
	assert.Equal(t, "postgres", c.User)
	assert.Equal(t, 10, c.MaxConns)
	assert.Equal(t, "host=db.internal port=6543 user=postgres password= dbname=sleep sslmode=disable", c.GetDSN())
}

func TestMQTTConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("MQ_BROKER", "tcp://broker:1883")
	t.Setenv("MQ_QOS", "2")

	c := MQTTConfig{ClientID: "a", QoS: 1}
	c.LoadFromEnv("MQ")
	assert.Equal(t, "tcp://broker:1883", c.Broker)
	assert.Equal(t, byte(2), c.QoS)

	t.Setenv("MQ_QOS", "7")
	c.LoadFromEnv("MQ")
	assert.Equal(t, byte(2), c.QoS)
}

func TestKafkaConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("KF_BROKERS", "k1:9092, k2:9092,,")
	c := KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "sleep-alert-records"}
	c.LoadFromEnv("KF")
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Brokers)
	assert.Equal(t, "sleep-alert-records", c.Topic)
}
