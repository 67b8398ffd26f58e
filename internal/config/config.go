package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// 文章来源：guardian（Content API）或 rss
	SourceKind       string `yaml:"source_kind"`
	GuardianEndpoint string `yaml:"guardian_endpoint"`
	GuardianAPIKey   string `yaml:"guardian_api_key"`
	GuardianPageSize int    `yaml:"guardian_page_size"`
	RSSURL           string `yaml:"rss_url"`
	FallbackAuthor   string `yaml:"fallback_author"`
	FallbackCategory string `yaml:"fallback_category"`

	BlogID      string   `yaml:"blog_id"`
	SourceName  string   `yaml:"source_name"`
	ExtraLabels []string `yaml:"extra_labels"`
	// 每轮最多发布的文章数，超出的留到下一轮
	MaxPerRun int `yaml:"max_per_run"`

	// 已发布记录的存储：file / postgres / redis / sqlite
	SeenBackend string `yaml:"seen_backend"`
	SeenFile    string `yaml:"seen_file"`
	PostgresDSN string `yaml:"postgres_dsn"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
	SQLitePath  string `yaml:"sqlite_path"`

	ClientSecretFile string `yaml:"client_secret_file"`
	TokenFile        string `yaml:"token_file"`
	AuthInteractive  bool   `yaml:"auth_interactive"`
	AuthCallbackPort int    `yaml:"auth_callback_port"`

	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	CronSpec   string        `yaml:"cron_spec"`
	AppPort    string        `yaml:"app_port"`
	LogLevel   string        `yaml:"log_level"`
	RunTimeout time.Duration `yaml:"run_timeout"`
}

func defaults() *Config {
	return &Config{
		SourceKind:       "guardian",
		GuardianEndpoint: "https://content.guardianapis.com/search",
		FallbackAuthor:   "The Guardian",
		FallbackCategory: "General",
		SourceName:       "The Guardian",
		ExtraLabels:      []string{"News Update"},
		MaxPerRun:        2,
		SeenBackend:      "file",
		SeenFile:         "posted_articles.txt",
		PostgresDSN:      "host=localhost user=syndicate password=syndicate dbname=syndicate port=5432 sslmode=disable TimeZone=UTC",
		RedisAddr:        "localhost:6379",
		RedisKey:         "syndicate:posted",
		SQLitePath:       "posted_articles.db",
		ClientSecretFile: "client_secret.json",
		TokenFile:        "token.json",
		CronSpec:         "0 * * * *",
		AppPort:          "9000",
		LogLevel:         "info",
		RunTimeout:       10 * time.Minute,
	}
}

// Load 依次叠加：默认值 < YAML 文件（SYNDICATE_CONFIG）< 环境变量（含 .env）
func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("SYNDICATE_CONFIG"); path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	log.Printf("config loaded: source=%s backend=%s max=%d cron=%s", cfg.SourceKind, cfg.SeenBackend, cfg.MaxPerRun, cfg.CronSpec)
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.SourceKind = getEnv("SOURCE_KIND", cfg.SourceKind)
	cfg.GuardianEndpoint = getEnv("GUARDIAN_ENDPOINT", cfg.GuardianEndpoint)
	cfg.GuardianAPIKey = getEnv("GUARDIAN_API_KEY", cfg.GuardianAPIKey)
	cfg.GuardianPageSize = getEnvInt("GUARDIAN_PAGE_SIZE", cfg.GuardianPageSize)
	cfg.RSSURL = getEnv("RSS_URL", cfg.RSSURL)
	cfg.FallbackAuthor = getEnv("FALLBACK_AUTHOR", cfg.FallbackAuthor)
	cfg.FallbackCategory = getEnv("FALLBACK_CATEGORY", cfg.FallbackCategory)

	cfg.BlogID = getEnv("BLOGGER_BLOG_ID", cfg.BlogID)
	cfg.SourceName = getEnv("SOURCE_NAME", cfg.SourceName)
	if v := os.Getenv("EXTRA_LABELS"); v != "" {
		cfg.ExtraLabels = splitList(v)
	}
	cfg.MaxPerRun = getEnvInt("MAX_PER_RUN", cfg.MaxPerRun)

	cfg.SeenBackend = getEnv("SEEN_BACKEND", cfg.SeenBackend)
	cfg.SeenFile = getEnv("SEEN_FILE", cfg.SeenFile)
	cfg.PostgresDSN = getEnv("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisKey = getEnv("REDIS_KEY", cfg.RedisKey)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)

	cfg.ClientSecretFile = getEnv("CLIENT_SECRET_FILE", cfg.ClientSecretFile)
	cfg.TokenFile = getEnv("TOKEN_FILE", cfg.TokenFile)
	cfg.AuthInteractive = getEnvBool("AUTH_INTERACTIVE", cfg.AuthInteractive)
	cfg.AuthCallbackPort = getEnvInt("AUTH_CALLBACK_PORT", cfg.AuthCallbackPort)

	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", cfg.TelegramToken)
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = id
		}
	}

	cfg.CronSpec = getEnv("CRON_SPEC", cfg.CronSpec)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RunTimeout = d
		}
	}
}

// Validate 检查发布一轮所必需的配置
func (c *Config) Validate() error {
	var errs []error
	switch c.SourceKind {
	case "guardian":
		if c.GuardianAPIKey == "" {
			errs = append(errs, errors.New("GUARDIAN_API_KEY is required"))
		}
	case "rss":
		if c.RSSURL == "" {
			errs = append(errs, errors.New("RSS_URL is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SOURCE_KIND %q", c.SourceKind))
	}
	if c.BlogID == "" {
		errs = append(errs, errors.New("BLOGGER_BLOG_ID is required"))
	}
	if c.MaxPerRun <= 0 {
		errs = append(errs, fmt.Errorf("MAX_PER_RUN must be positive, got %d", c.MaxPerRun))
	}
	return errors.Join(errs...)
}

// TelegramEnabled 是否配置了发布通知
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("warn: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
