package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "NEWSRELAY_CONFIG"
	envPathEnv        = "ENV_PATH"
	defaultEnvPath    = ".env"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	legacyTokenEnv    = "BOT_TOKEN"
	legacyChatIDEnv   = "GROUP_ID"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	logLevelEnv       = "LOG_LEVEL"
	redisAddrEnv      = "REDIS_ADDR"
)

// Storage and translator backend names.
const (
	StoreCSV          = "csv"
	StoreSQLite       = "sqlite"
	LedgerFile        = "file"
	LedgerRedis       = "redis"
	TranslatorChatGPT = "chatgpt"
	TranslatorGateway = "gateway"
)

// Config holds high-level settings required across the application.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Translator TranslatorConfig `yaml:"translator"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Storage    StorageConfig    `yaml:"storage"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig describes the listing page and how to scrape it.
type SourceConfig struct {
	ListingURL string          `yaml:"listingUrl"`
	Extractor  string          `yaml:"extractor"`
	Timeout    time.Duration   `yaml:"timeout"`
	UserAgents []string        `yaml:"userAgents"`
	Selectors  SelectorsConfig `yaml:"selectors"`
	Pace       PaceConfig      `yaml:"pace"`
}

// SelectorsConfig holds CSS selectors for the selector-based extractor.
type SelectorsConfig struct {
	Listing   string `yaml:"listing"`
	Content   string `yaml:"content"`
	Paragraph string `yaml:"paragraph"`
}

// PaceConfig bounds the randomized delay between outbound requests.
type PaceConfig struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// TranslatorConfig defines how to contact the translation model.
type TranslatorConfig struct {
	Backend       string        `yaml:"backend"`
	Endpoint      string        `yaml:"endpoint"`
	Model         string        `yaml:"model"`
	APIKey        string        `yaml:"apiKey"`
	SystemPrompt  string        `yaml:"systemPrompt"`
	Temperature   float64       `yaml:"temperature"`
	Timeout       time.Duration `yaml:"timeout"`
	StripPrefixes []string      `yaml:"stripPrefixes"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken        string        `yaml:"botToken"`
	ChatID          string        `yaml:"chatId"`
	APIBaseURL      string        `yaml:"apiBaseUrl"`
	ButtonText      string        `yaml:"buttonText"`
	LinkText        string        `yaml:"linkText"`
	SendInterval    time.Duration `yaml:"sendInterval"`
	Timeout         time.Duration `yaml:"timeout"`
	AnnounceStartup bool          `yaml:"announceStartup"`
	StartupMessage  string        `yaml:"startupMessage"`
}

// StorageConfig selects where articles and delivered keys live.
type StorageConfig struct {
	Backend      string       `yaml:"backend"`
	CSVPath      string       `yaml:"csvPath"`
	SQLitePath   string       `yaml:"sqlitePath"`
	PruneOnCycle bool         `yaml:"pruneOnCycle"`
	Ledger       LedgerConfig `yaml:"ledger"`
}

// LedgerConfig describes the sent ledger backend.
type LedgerConfig struct {
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redisAddr"`
	RedisKey  string `yaml:"redisKey"`
	RedisDB   int    `yaml:"redisDb"`
}

// SchedulerConfig defines how often the cycle runs.
type SchedulerConfig struct {
	Interval time.Duration  `yaml:"interval"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// Load reads YAML configuration (if present), the optional .env file and environment overrides.
// path overrides NEWSRELAY_CONFIG when non-empty.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg, raw)
	}

	loadDotEnv()
	cfg.applyEnvOverrides()
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotEnv() {
	envPath := os.Getenv(envPathEnv)
	if envPath == "" {
		envPath = defaultEnvPath
	}
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("skipping .env", "path", envPath, "error", err)
	}
}

// Validate reports every missing or invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		errs = append(errs, errors.New("telegram bot token is required (TELEGRAM_BOT_TOKEN)"))
	}
	if strings.TrimSpace(c.Telegram.ChatID) == "" {
		errs = append(errs, errors.New("telegram chat id is required (TELEGRAM_CHAT_ID)"))
	}
	if strings.TrimSpace(c.Translator.APIKey) == "" {
		errs = append(errs, errors.New("translator api key is required (CHATGPT_API_KEY)"))
	}
	if strings.TrimSpace(c.Source.ListingURL) == "" {
		errs = append(errs, errors.New("source listing url is required"))
	}

	switch c.Translator.Backend {
	case TranslatorChatGPT, TranslatorGateway:
	default:
		errs = append(errs, fmt.Errorf("unknown translator backend %q", c.Translator.Backend))
	}
	switch c.Storage.Backend {
	case StoreCSV, StoreSQLite:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	switch c.Storage.Ledger.Backend {
	case LedgerFile, LedgerRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown ledger backend %q", c.Storage.Ledger.Backend))
	}

	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler interval must be positive"))
	}
	if c.Source.Pace.Min < 0 || c.Source.Pace.Max < c.Source.Pace.Min {
		errs = append(errs, fmt.Errorf("source pace range [%s, %s] is invalid", c.Source.Pace.Min, c.Source.Pace.Max))
	}
	if c.Telegram.SendInterval < 0 {
		errs = append(errs, errors.New("telegram send interval must not be negative"))
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := firstEnv(telegramTokenEnv, legacyTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := firstEnv(telegramChatIDEnv, legacyChatIDEnv); v != "" {
		c.Telegram.ChatID = v
	}
	if v := firstEnv(chatGPTAPIKeyEnv, openAIAPIKeyEnv); v != "" {
		c.Translator.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.Translator.Model = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Storage.Ledger.RedisAddr = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %s: %w", tz, err)
	}
	c.Scheduler.location = loc
	return nil
}

// mergeConfig overlays non-zero file values on the defaults. Booleans are only taken
// from the file when their key is present in raw.
func mergeConfig(base, override Config, raw []byte) Config {
	src, dst := override.Source, &base.Source
	setString(&dst.ListingURL, src.ListingURL)
	setString(&dst.Extractor, src.Extractor)
	setDuration(&dst.Timeout, src.Timeout)
	if len(src.UserAgents) > 0 {
		dst.UserAgents = src.UserAgents
	}
	setString(&dst.Selectors.Listing, src.Selectors.Listing)
	setString(&dst.Selectors.Content, src.Selectors.Content)
	setString(&dst.Selectors.Paragraph, src.Selectors.Paragraph)

	tr, tdst := override.Translator, &base.Translator
	setString(&tdst.Backend, tr.Backend)
	setString(&tdst.Endpoint, tr.Endpoint)
	setString(&tdst.Model, tr.Model)
	setString(&tdst.APIKey, tr.APIKey)
	setString(&tdst.SystemPrompt, tr.SystemPrompt)
	setDuration(&tdst.Timeout, tr.Timeout)
	if tr.StripPrefixes != nil {
		tdst.StripPrefixes = tr.StripPrefixes
	}

	tg, gdst := override.Telegram, &base.Telegram
	setString(&gdst.BotToken, tg.BotToken)
	setString(&gdst.ChatID, tg.ChatID)
	setString(&gdst.APIBaseURL, tg.APIBaseURL)
	setString(&gdst.ButtonText, tg.ButtonText)
	setString(&gdst.LinkText, tg.LinkText)
	setDuration(&gdst.Timeout, tg.Timeout)
	setString(&gdst.StartupMessage, tg.StartupMessage)

	st, sdst := override.Storage, &base.Storage
	setString(&sdst.Backend, st.Backend)
	setString(&sdst.CSVPath, st.CSVPath)
	setString(&sdst.SQLitePath, st.SQLitePath)
	setString(&sdst.Ledger.Backend, st.Ledger.Backend)
	setString(&sdst.Ledger.Path, st.Ledger.Path)
	setString(&sdst.Ledger.RedisAddr, st.Ledger.RedisAddr)
	setString(&sdst.Ledger.RedisKey, st.Ledger.RedisKey)
	if st.Ledger.RedisDB != 0 {
		sdst.Ledger.RedisDB = st.Ledger.RedisDB
	}

	setDuration(&base.Scheduler.Interval, override.Scheduler.Interval)
	setString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	setString(&base.Logging.Level, override.Logging.Level)
	setString(&base.Logging.File, override.Logging.File)

	// Zero is a meaningful value for these, so presence decides.
	var present struct {
		Source struct {
			Pace map[string]any `yaml:"pace"`
		} `yaml:"source"`
		Translator map[string]any `yaml:"translator"`
		Telegram   map[string]any `yaml:"telegram"`
		Storage    map[string]any `yaml:"storage"`
	}
	_ = yaml.Unmarshal(raw, &present)
	if _, ok := present.Source.Pace["min"]; ok {
		dst.Pace.Min = src.Pace.Min
	}
	if _, ok := present.Source.Pace["max"]; ok {
		dst.Pace.Max = src.Pace.Max
	}
	if _, ok := present.Translator["temperature"]; ok {
		tdst.Temperature = tr.Temperature
	}
	if _, ok := present.Telegram["sendInterval"]; ok {
		gdst.SendInterval = tg.SendInterval
	}
	if _, ok := present.Telegram["announceStartup"]; ok {
		gdst.AnnounceStartup = tg.AnnounceStartup
	}
	if _, ok := present.Storage["pruneOnCycle"]; ok {
		sdst.PruneOnCycle = st.PruneOnCycle
	}

	return base
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Source: SourceConfig{
			ListingURL: "https://hydrogeneurope.eu/",
			Extractor:  "selector",
			Timeout:    10 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/112.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Safari/605.1.15",
				"Mozilla/5.0 (X11; Linux x86_64; rv:115.0) Gecko/20100101 Firefox/115.0",
			},
			Selectors: SelectorsConfig{
				Listing:   "h6.entry-title a",
				Content:   "div.the_content_wrapper",
				Paragraph: "p",
			},
			Pace: PaceConfig{Min: time.Second, Max: 3 * time.Second},
		},
		Translator: TranslatorConfig{
			Backend:       TranslatorChatGPT,
			Endpoint:      "https://api.openai.com/v1/chat/completions",
			Model:         "gpt-4o",
			SystemPrompt:  "You are the best translator from English into Russian. Translate the article below into Russian, keeping the title on the first line.",
			Temperature:   0.2,
			Timeout:       90 * time.Second,
			StripPrefixes: []string{"Перевод:", "Translation:"},
		},
		Telegram: TelegramConfig{
			APIBaseURL:      "https://api.telegram.org",
			ButtonText:      "🔗 Оригинал статьи",
			LinkText:        "Читать оригинал",
			SendInterval:    3 * time.Second,
			Timeout:         10 * time.Second,
			AnnounceStartup: true,
			StartupMessage:  "🤖 Бот запущен и начал мониторинг новостей.",
		},
		Storage: StorageConfig{
			Backend:    StoreCSV,
			CSVPath:    "news.csv",
			SQLitePath: "news.db",
			Ledger: LedgerConfig{
				Backend:   LedgerFile,
				Path:      "sent_news.txt",
				RedisAddr: "localhost:6379",
				RedisKey:  "newsrelay:sent",
			},
		},
		Scheduler: SchedulerConfig{Interval: 60 * time.Minute, Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
	}
}
