package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, telegramTokenEnv, telegramChatIDEnv, legacyTokenEnv, legacyChatIDEnv,
		chatGPTAPIKeyEnv, openAIAPIKeyEnv, chatGPTModelEnv, logLevelEnv, redisAddrEnv,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Setenv(envPathEnv, filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingSecretsIsFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram bot token is required")
	assert.Contains(t, err.Error(), "telegram chat id is required")
	assert.Contains(t, err.Error(), "translator api key is required")
}

func TestLoadFromEnvUsesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(legacyTokenEnv, "token")
	t.Setenv(legacyChatIDEnv, "-100")
	t.Setenv(openAIAPIKeyEnv, "sk-test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.Telegram.BotToken)
	assert.Equal(t, "-100", cfg.Telegram.ChatID)
	assert.Equal(t, "sk-test", cfg.Translator.APIKey)
	assert.Equal(t, 60*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, StoreCSV, cfg.Storage.Backend)
	assert.Equal(t, "sent_news.txt", cfg.Storage.Ledger.Path)
	assert.Equal(t, "h6.entry-title a", cfg.Source.Selectors.Listing)
	assert.InDelta(t, 0.2, cfg.Translator.Temperature, 1e-9)
	assert.True(t, cfg.Telegram.AnnounceStartup)
	assert.Equal(t, "UTC", cfg.Scheduler.Location().String())
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "newsrelay.yaml", `
source:
  listingUrl: https://example.org/news
  timeout: 5s
  pace:
    min: 0s
    max: 0s
translator:
  apiKey: from-file
  model: gpt-4o-mini
  temperature: 0
telegram:
  botToken: file-token
  chatId: "@channel"
  sendInterval: 0s
  announceStartup: false
storage:
  backend: sqlite
  sqlitePath: /tmp/news.db
  ledger:
    backend: redis
scheduler:
  interval: 15m
  timezone: Europe/Brussels
`)
	t.Setenv(telegramTokenEnv, "env-token")
	t.Setenv(chatGPTModelEnv, "gpt-4.1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/news", cfg.Source.ListingURL)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.Zero(t, cfg.Source.Pace.Max)
	assert.Equal(t, "env-token", cfg.Telegram.BotToken)
	assert.Equal(t, "@channel", cfg.Telegram.ChatID)
	assert.Equal(t, "from-file", cfg.Translator.APIKey)
	assert.Equal(t, "gpt-4.1", cfg.Translator.Model)
	assert.Zero(t, cfg.Translator.Temperature)
	assert.Zero(t, cfg.Telegram.SendInterval)
	assert.False(t, cfg.Telegram.AnnounceStartup)
	assert.Equal(t, StoreSQLite, cfg.Storage.Backend)
	assert.Equal(t, LedgerRedis, cfg.Storage.Ledger.Backend)
	assert.Equal(t, "newsrelay:sent", cfg.Storage.Ledger.RedisKey)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, "Europe/Brussels", cfg.Scheduler.Location().String())
	assert.Len(t, cfg.Source.UserAgents, 3)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, "test.env", "TELEGRAM_BOT_TOKEN=dot-token\nTELEGRAM_CHAT_ID=42\nCHATGPT_API_KEY=dot-key\n")
	t.Setenv(envPathEnv, envFile)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dot-token", cfg.Telegram.BotToken)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.Equal(t, "dot-key", cfg.Translator.APIKey)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Translator.APIKey = "t", "c", "k"
	require.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "mongo"
	cfg.Source.Pace = PaceConfig{Min: 3 * time.Second, Max: time.Second}
	cfg.Scheduler.Interval = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage backend "mongo"`)
	assert.Contains(t, err.Error(), "pace range")
	assert.Contains(t, err.Error(), "interval must be positive")
}

func TestLoadUnreadableFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
