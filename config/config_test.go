package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "Europe/Moscow", cfg.Timezone)
	assert.Equal(t, 24*time.Hour, cfg.MaturityDelay)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "bot.lock", cfg.LockFile)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Zero(t, cfg.LogChannelID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "100,200")
	t.Setenv("LOG_CHANNEL_ID", "-1001234")
	t.Setenv("MATURITY_DELAY", "48h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, cfg.AdminIDs)
	assert.Equal(t, int64(-1001234), cfg.LogChannelID)
	assert.Equal(t, 48*time.Hour, cfg.MaturityDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.True(t, cfg.IsAdmin(200))
	assert.False(t, cfg.IsAdmin(300))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_BadTimezone(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_BadAdminIDs(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "100,admin")

	_, err := Load()
	require.Error(t, err)
}
