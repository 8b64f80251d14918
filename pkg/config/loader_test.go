package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, env, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadFrom_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, _, err := LoadFrom(t.TempDir(), "test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "123:abc", cfg.Bot.Token)
	assert.Equal(t, BotModePolling, cfg.Bot.Mode)
	assert.True(t, cfg.Bot.ReplyOnError)
	assert.Equal(t, "https://www.buda.com/api/v2", cfg.Market.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Market.Timeout)
	assert.Equal(t, ":9090", cfg.Server.Port)
	assert.Equal(t, 20, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, "1m", cfg.RateLimit.PerUser.Window)
	assert.False(t, cfg.RedisEnabled())
}

// unsetEnv clears keys for the duration of the test, restoring them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()

	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_DotEnvWithoutLocalFile(t *testing.T) {
	unsetEnv(t, "BOT_TOKEN", "TOKEN", "APP_ENV")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=123:fromdotenv\n"), 0o600))
	t.Chdir(dir)

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:fromdotenv", cfg.Bot.Token)
	assert.Equal(t, "development", cfg.AppEnv)
}

func TestLoad_LocalDotEnvTakesPrecedence(t *testing.T) {
	unsetEnv(t, "BOT_TOKEN", "TOKEN", "APP_ENV")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("BOT_TOKEN=1:local\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=2:shared\n"), 0o600))
	t.Chdir(dir)

	cfg, _, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "1:local", cfg.Bot.Token)
}

func TestLoadEnvFiles_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".env"), 0o700))

	err := loadEnvFiles(filepath.Join(dir, ".env.local"), filepath.Join(dir, ".env"))
	assert.Error(t, err)
}

func TestLoadFrom_TokenAlias(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("TOKEN", "456:def")

	cfg, _, err := LoadFrom(t.TempDir(), "test")
	require.NoError(t, err)
	assert.Equal(t, "456:def", cfg.Bot.Token)
}

func TestLoadFrom_FileAndEnvOverride(t *testing.T) {
	dir := writeConfig(t, "staging", `
bot:
  token: from-file
  reply_on_error: false
market:
  timeout: 3s
redis:
  addr: localhost:6379
rate_limit:
  whitelist: [1, 2]
`)
	t.Setenv("MARKET_TIMEOUT", "5s")

	cfg, v, err := LoadFrom(dir, "staging")
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Bot.Token)
	assert.False(t, cfg.Bot.ReplyOnError)
	assert.Equal(t, 5*time.Second, cfg.Market.Timeout)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, []int64{1, 2}, cfg.RateLimit.Whitelist)
	assert.NotEmpty(t, v.ConfigFileUsed())
}

func TestLoadFrom_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "missing token", body: "bot:\n  token: \"\"\n"},
		{name: "bad mode", body: "bot:\n  token: x\n  mode: carrier-pigeon\n"},
		{name: "webhook without url", body: "bot:\n  token: x\n  mode: webhook\n"},
		{name: "sentry without dsn", body: "bot:\n  token: x\nsentry:\n  enabled: true\n"},
		{name: "bad base url", body: "bot:\n  token: x\nmarket:\n  base_url: not a url\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("BOT_TOKEN", "")
			t.Setenv("TOKEN", "")

			_, _, err := LoadFrom(writeConfig(t, "test", tc.body), "test")
			assert.ErrorContains(t, err, "validate config")
		})
	}
}

func TestLoadFrom_BrokenFile(t *testing.T) {
	_, _, err := LoadFrom(writeConfig(t, "test", "bot: [\n"), "test")
	assert.ErrorContains(t, err, "read config")
}
