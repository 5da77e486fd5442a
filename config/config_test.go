package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	raw := `
http:
  address: ":8080"
database:
  host: localhost
  port: 5432
  user: postgres
  password: secret
  name: flightbooking
  ssl_mode: disable
redis:
  addr: "localhost:6379"
kafka:
  brokers: ["localhost:9092"]
  notifications_topic: eticket_notifications
  group_id: notification-workers
booking:
  flights_cache_ttl_seconds: 300
  store_timeout_seconds: 5
  passenger_match_policy: email
auth:
  jwt_secret: test-secret
log:
  dir: logs
  debug: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := LoadConfig(path)

	assert.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 300, cfg.Booking.FlightsCacheTTLSeconds)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=flightbooking sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig("does-not-exist.yaml")
	assert.Error(t, err)
}
