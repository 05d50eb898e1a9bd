package bootstrap

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enrichsync/internal/config"
	"enrichsync/internal/logger"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "enrich",
		Password: "pw",
		DBName:   "installs",
		SSLMode:  "disable",
	})
	assert.Equal(t, "postgres://enrich:pw@db:5432/installs?sslmode=disable", dsn)
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Database.Redis.Host = mr.Host()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	cfg.Database.Redis.Port = port

	dc := NewDatabaseConnector(cfg, logger.NopLogger())
	rdb, err := dc.InitRedis(context.Background())
	require.NoError(t, err)

	assert.Empty(t, dc.ShutdownDatabases(rdb, nil))
}

func TestInitRedis_Unreachable(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Redis.Host = "127.0.0.1"
	cfg.Database.Redis.Port = 1

	_, err := NewDatabaseConnector(cfg, logger.NopLogger()).InitRedis(context.Background())
	assert.Error(t, err)
}

func TestInitPostgreSQL_RequiresHost(t *testing.T) {
	_, err := NewDatabaseConnector(&config.Config{}, logger.NopLogger()).InitPostgreSQL(context.Background())
	assert.Error(t, err)
}
