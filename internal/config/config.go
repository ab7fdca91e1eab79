package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "POLIEVAL_CONFIG"
	dotenvPathEnv     = "POLIEVAL_DOTENV"
	databaseDSNEnv    = "DATABASE_DSN"
	databaseDriverEnv = "DATABASE_DRIVER"
	logLevelEnv       = "LOG_LEVEL"
	outputDirEnv      = "POLIEVAL_OUTPUT_DIR"
	redisAddrEnv      = "REDIS_ADDR"
	redisPasswordEnv  = "REDIS_PASSWORD"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Provider kinds understood by the collector clients.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Evaluation    EvaluationConfig   `yaml:"evaluation"`
	Collectors    []CollectorConfig  `yaml:"collectors" validate:"dive"`
	Categories    []CategoryConfig   `yaml:"categories" validate:"dive"`
	Cache         CacheConfig        `yaml:"cache"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects slog level and handler format (text or json).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// DatabaseConfig describes the relational store. An empty DSN disables persistence.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
	DSN    string `yaml:"dsn"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

// EvaluationConfig tunes the dispatcher, the scoring math and the artifacts.
type EvaluationConfig struct {
	Workers         int      `yaml:"workers" validate:"min=1"`
	Mode            string   `yaml:"mode" validate:"oneof=collect rescore"`
	PersistItems    *bool    `yaml:"persistItems"`
	RatingScale     int      `yaml:"ratingScale" validate:"min=1"`
	PriorMean       float64  `yaml:"priorMean" validate:"min=0"`
	PriorWeight     float64  `yaml:"priorWeight" validate:"min=0"`
	TargetItems     int      `yaml:"targetItems" validate:"min=1"`
	OutputDir       string   `yaml:"outputDir" validate:"required"`
	ResultVersion   int      `yaml:"resultVersion" validate:"min=1"`
	OfficialDomains []string `yaml:"officialDomains"`
}

// CollectorConfig describes one content-generation provider.
type CollectorConfig struct {
	Name              string        `yaml:"name" validate:"required"`
	Provider          string        `yaml:"provider" validate:"oneof=openai anthropic gemini"`
	Endpoint          string        `yaml:"endpoint" validate:"required,url"`
	Model             string        `yaml:"model" validate:"required"`
	APIKey            string        `yaml:"apiKey"`
	APIKeyEnv         string        `yaml:"apiKeyEnv"`
	TargetItems       int           `yaml:"targetItems" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond" validate:"min=0"`
	Burst             int           `yaml:"burst" validate:"min=0"`
	Temperature       float64       `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens         int           `yaml:"maxTokens" validate:"min=0"`
}

// Active reports whether the collector has credentials to run with.
func (c CollectorConfig) Active() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// CategoryConfig overrides the instruction text of one category.
type CategoryConfig struct {
	ID           int    `yaml:"id" validate:"min=1,max=10"`
	Instructions string `yaml:"instructions"`
}

// CacheConfig points at the Redis instance caching provider answers.
// An empty address disables caching.
type CacheConfig struct {
	RedisAddr string        `yaml:"redisAddr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
	Prefix    string        `yaml:"prefix"`
}

// SchedulerConfig defines when roster re-evaluation runs.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	Categories     string         `yaml:"categories"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// InstructionOverrides maps category id to replacement instruction text.
func (c Config) InstructionOverrides() map[int]string {
	out := make(map[int]string, len(c.Categories))
	for _, cat := range c.Categories {
		out[cat.ID] = cat.Instructions
	}
	return out
}

// ActiveCollectors returns collectors that have credentials, in config order.
func (c Config) ActiveCollectors() []CollectorConfig {
	var out []CollectorConfig
	for _, col := range c.Collectors {
		if col.Active() {
			out = append(out, col)
		}
	}
	return out
}

// Validate checks field constraints.
func (c Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	seen := map[string]bool{}
	for _, col := range c.Collectors {
		if seen[col.Name] {
			return fmt.Errorf("invalid configuration: duplicate collector %q", col.Name)
		}
		seen[col.Name] = true
	}
	return nil
}

// Load reads .env credentials and YAML configuration (if present) and applies
// environment overrides.
func Load() Config {
	loadDotenv()

	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg, err := Parse(raw)
			if err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadDotenv() {
	path := os.Getenv(dotenvPathEnv)
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	// Variables already present in the environment win over the file.
	if err := godotenv.Load(path); err != nil {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(outputDirEnv); v != "" {
		c.Evaluation.OutputDir = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv(redisPasswordEnv); v != "" {
		c.Cache.Password = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	for i := range c.Collectors {
		if env := c.Collectors[i].APIKeyEnv; env != "" {
			if v := os.Getenv(env); v != "" {
				c.Collectors[i].APIKey = v
			}
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}

	base.Evaluation = mergeEvaluation(base.Evaluation, override.Evaluation)

	if len(override.Collectors) > 0 {
		base.Collectors = withCollectorDefaults(override.Collectors)
	}
	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	if override.Cache.RedisAddr != "" {
		base.Cache.RedisAddr = override.Cache.RedisAddr
	}
	if override.Cache.Password != "" {
		base.Cache.Password = override.Cache.Password
	}
	if override.Cache.DB != 0 {
		base.Cache.DB = override.Cache.DB
	}
	if override.Cache.TTL != 0 {
		base.Cache.TTL = override.Cache.TTL
	}
	if override.Cache.Prefix != "" {
		base.Cache.Prefix = override.Cache.Prefix
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.Categories != "" {
		base.Scheduler.Categories = override.Scheduler.Categories
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func mergeEvaluation(base, override EvaluationConfig) EvaluationConfig {
	if override.Workers != 0 {
		base.Workers = override.Workers
	}
	if override.Mode != "" {
		base.Mode = override.Mode
	}
	if override.PersistItems != nil {
		persist := *override.PersistItems
		base.PersistItems = &persist
	}
	if override.RatingScale != 0 {
		base.RatingScale = override.RatingScale
	}
	if override.PriorMean != 0 {
		base.PriorMean = override.PriorMean
	}
	if override.PriorWeight != 0 {
		base.PriorWeight = override.PriorWeight
	}
	if override.TargetItems != 0 {
		base.TargetItems = override.TargetItems
	}
	if override.OutputDir != "" {
		base.OutputDir = override.OutputDir
	}
	if override.ResultVersion != 0 {
		base.ResultVersion = override.ResultVersion
	}
	if len(override.OfficialDomains) > 0 {
		base.OfficialDomains = override.OfficialDomains
	}
	return base
}

// PersistsItems reports whether collected rows are stored; unset means yes.
func (e EvaluationConfig) PersistsItems() bool {
	return e.PersistItems == nil || *e.PersistItems
}

func boolPtr(v bool) *bool { return &v }

func withCollectorDefaults(cols []CollectorConfig) []CollectorConfig {
	out := make([]CollectorConfig, len(cols))
	for i, col := range cols {
		if col.Timeout == 0 {
			col.Timeout = 60 * time.Second
		}
		if col.Burst == 0 {
			col.Burst = 1
		}
		if col.MaxTokens == 0 {
			col.MaxTokens = 4096
		}
		out[i] = col
	}
	return out
}

// Default returns the built-in configuration before file and environment overrides.
func Default() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "postgres", DSN: ""},
		Evaluation: EvaluationConfig{
			Workers:         10,
			Mode:            "collect",
			PersistItems:    boolPtr(true),
			RatingScale:     10,
			PriorMean:       5,
			PriorWeight:     2,
			TargetItems:     10,
			OutputDir:       "results",
			ResultVersion:   1,
			OfficialDomains: []string{"go.kr", "gov", "gov.uk", "europa.eu"},
		},
		Collectors: withCollectorDefaults([]CollectorConfig{
			{
				Name:              "openai",
				Provider:          ProviderOpenAI,
				Endpoint:          "https://api.openai.com/v1/chat/completions",
				Model:             "gpt-4o-mini",
				APIKeyEnv:         "OPENAI_API_KEY",
				RequestsPerSecond: 2,
				Burst:             4,
				Temperature:       0.2,
			},
			{
				Name:              "anthropic",
				Provider:          ProviderAnthropic,
				Endpoint:          "https://api.anthropic.com/v1/messages",
				Model:             "claude-3-5-haiku-latest",
				APIKeyEnv:         "ANTHROPIC_API_KEY",
				RequestsPerSecond: 1,
				Burst:             2,
				Temperature:       0.2,
			},
			{
				Name:              "gemini",
				Provider:          ProviderGemini,
				Endpoint:          "https://generativelanguage.googleapis.com/v1beta",
				Model:             "gemini-1.5-flash",
				APIKeyEnv:         "GEMINI_API_KEY",
				RequestsPerSecond: 1,
				Burst:             2,
				Temperature:       0.2,
			},
			{
				Name:              "perplexity",
				Provider:          ProviderOpenAI,
				Endpoint:          "https://api.perplexity.ai/chat/completions",
				Model:             "sonar",
				APIKeyEnv:         "PERPLEXITY_API_KEY",
				RequestsPerSecond: 1,
				Burst:             1,
				Temperature:       0.2,
			},
		}),
		Cache:     CacheConfig{TTL: 24 * time.Hour, Prefix: "polieval:"},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * 1", Timezone: defaultTimezone, Categories: "1-10", location: tz},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
	}
}
