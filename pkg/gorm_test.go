package pkg

import (
	"testing"

	"github.com/maritime-school/training-admin/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDatabaseSQLite(t *testing.T) {
	db, err := InitDatabase(&config.Config{DatabaseDriver: config.DriverSQLite, DatabaseURL: "file:pkg_init?mode=memory&cache=shared"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())
}

func TestInitDatabaseUnknownDriver(t *testing.T) {
	_, err := InitDatabase(&config.Config{DatabaseDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := NewRedisClient(t.Context(), &config.Config{RedisURL: "://nope"})
	assert.ErrorContains(t, err, "invalid redis url")
}
