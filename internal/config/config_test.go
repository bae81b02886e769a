package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 15*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, 5*time.Second, cfg.SweepInterval)
	assert.Equal(t, 8, cfg.OpenHour)
	assert.Equal(t, 22, cfg.CloseHour)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVICE_PORT", "9000")
	t.Setenv("PAYMENT_WINDOW", "30m")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PAYMENT_WINDOW", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvertedHours(t *testing.T) {
	t.Setenv("OPEN_HOUR", "22")
	t.Setenv("CLOSE_HOUR", "8")
	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5432", User: "u", Password: "p", DBName: "booking", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=booking sslmode=disable", c.DSN())
}
