package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// maxMinChange is the highest prefilter floor that still lets every scorable candidate through.
const maxMinChange = 15

// Config holds all application configuration.
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Upstream struct {
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		Timeout           time.Duration `yaml:"timeout"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
	} `yaml:"upstream"`
	Cache struct {
		Backend       string        `yaml:"backend"`
		SnapshotTTL   time.Duration `yaml:"snapshot_ttl"`
		SeriesTTL     time.Duration `yaml:"series_ttl"`
		SQLitePath    string        `yaml:"sqlite_path"`
		RedisAddr     string        `yaml:"redis_addr"`
		RedisPassword string        `yaml:"redis_password"`
		RedisDB       int           `yaml:"redis_db"`
		RedisPrefix   string        `yaml:"redis_prefix"`
	} `yaml:"cache"`
	Scan struct {
		MinChangePercent float64 `yaml:"min_change_percent"`
		MaxCandidates    int     `yaml:"max_candidates"`
		Workers          int     `yaml:"workers"`
		Interval         string  `yaml:"interval"`
		Limit            int     `yaml:"limit"`
	} `yaml:"scan"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Enabled       bool          `yaml:"enabled"`
		ScanCron      string        `yaml:"scan_cron"`
		PurgeCron     string        `yaml:"purge_cron"`
		RunOnStart    bool          `yaml:"run_on_start"`
		AlertCooldown time.Duration `yaml:"alert_cooldown"`
	} `yaml:"schedule"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// LoadEnvFile loads a .env file into the process environment when present.
// Variables already set are left untouched.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// enabled unless the file says otherwise
	cfg.Schedule.Enabled = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("BINANCE_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.RedisPassword = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Cache.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Schedule.RunOnStart = b
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Upstream.BaseURL == "" {
		c.Upstream.BaseURL = "https://api.binance.com/api/v3"
	}
	if c.Upstream.Timeout == 0 {
		c.Upstream.Timeout = 10 * time.Second
	}
	if c.Upstream.RequestsPerSecond == 0 {
		c.Upstream.RequestsPerSecond = 10
	}
	if c.Upstream.Burst == 0 {
		c.Upstream.Burst = 20
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.SnapshotTTL == 0 {
		c.Cache.SnapshotTTL = 180 * time.Second
	}
	if c.Cache.SeriesTTL == 0 {
		c.Cache.SeriesTTL = time.Hour
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "data/radar_cache.db"
	}
	if c.Cache.RedisPrefix == "" {
		c.Cache.RedisPrefix = "radar:series:"
	}
	if c.Scan.MinChangePercent == 0 {
		c.Scan.MinChangePercent = maxMinChange
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 8
	}
	if c.Scan.Interval == "" {
		c.Scan.Interval = "1h"
	}
	if c.Scan.Limit == 0 {
		c.Scan.Limit = 50
	}
	if c.Schedule.ScanCron == "" {
		c.Schedule.ScanCron = "0 */5 * * * *"
	}
	if c.Schedule.PurgeCron == "" {
		c.Schedule.PurgeCron = "0 0 * * * *"
	}
	if c.Schedule.AlertCooldown == 0 {
		c.Schedule.AlertCooldown = 6 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// TelegramEnabled reports whether a bot token is configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// ChatID parses the configured Telegram chat id.
func (c *Config) ChatID() (int64, error) {
	id, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: %w", err)
	}
	return id, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("server.port must be numeric, got %q", c.Server.Port)
	}
	if c.Upstream.Timeout < 0 || c.Upstream.RequestsPerSecond < 0 || c.Upstream.Burst < 0 {
		return fmt.Errorf("upstream timeout, requests_per_second and burst must not be negative")
	}
	switch c.Cache.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be memory, sqlite or redis, got %q", c.Cache.Backend)
	}
	if c.Cache.SnapshotTTL <= 0 || c.Cache.SeriesTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	if c.Scan.MinChangePercent > maxMinChange {
		return fmt.Errorf("scan.min_change_percent above %d would drop scorable candidates", maxMinChange)
	}
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be at least 1")
	}
	if c.Scan.MaxCandidates < 0 {
		return fmt.Errorf("scan.max_candidates must not be negative")
	}
	if c.Scan.Limit < 1 || c.Scan.Limit > 1000 {
		return fmt.Errorf("scan.limit must be within 1..1000")
	}
	if c.TelegramEnabled() {
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
		}
		if _, err := c.ChatID(); err != nil {
			return err
		}
	}
	return nil
}
