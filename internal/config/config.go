package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type AppConfig struct {
	Port   string `yaml:"port" validate:"required,numeric"`
	WSPort string `yaml:"ws_port" validate:"required,numeric"`

	ForecastBaseURL  string `yaml:"forecast_base_url" validate:"required,url"`
	GeocodingBaseURL string `yaml:"geocoding_base_url" validate:"required,url"`

	// HTTPTimeout bounds each upstream request; HTTPMaxRetries is the number
	// of transport-level retries (0 = none).
	HTTPTimeout    time.Duration `yaml:"http_timeout"`
	HTTPMaxRetries int           `yaml:"http_max_retries" validate:"gte=0"`

	SuggestDebounce time.Duration `yaml:"suggest_debounce"`

	// RecentStore selects the recent-search backend: memory, sqlite or redis.
	RecentStore   string `yaml:"recent_store" validate:"oneof=memory sqlite redis"`
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Cities looked up periodically by the watch scheduler.
	WatchCities   []string      `yaml:"watch_cities"`
	WatchInterval time.Duration `yaml:"watch_interval"`

	LogLevel string `yaml:"log_level"`
	AppEnv   string `yaml:"app_env"`
}

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:             "8080",
		WSPort:           "8081",
		ForecastBaseURL:  "https://api.open-meteo.com",
		GeocodingBaseURL: "https://geocoding-api.open-meteo.com",
		HTTPTimeout:      10 * time.Second,
		HTTPMaxRetries:   0,
		SuggestDebounce:  300 * time.Millisecond,
		RecentStore:      "memory",
		SQLitePath:       "weather.db",
		RedisAddr:        "localhost:6379",
		WatchInterval:    15 * time.Minute,
		LogLevel:         "info",
		AppEnv:           "development",
	}
}

// Load reads configuration with this precedence: environment (including a
// .env file), then the YAML file named by WEATHER_CONFIG_FILE, then defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv("WEATHER_CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *AppConfig) error {
	cfg.Port = getenvDefault("PORT", cfg.Port)
	cfg.WSPort = getenvDefault("WS_PORT", cfg.WSPort)
	cfg.ForecastBaseURL = getenvDefault("FORECAST_BASE_URL", cfg.ForecastBaseURL)
	cfg.GeocodingBaseURL = getenvDefault("GEOCODING_BASE_URL", cfg.GeocodingBaseURL)
	cfg.HTTPMaxRetries = getenvInt("HTTP_MAX_RETRIES", cfg.HTTPMaxRetries)
	cfg.RecentStore = getenvDefault("RECENT_STORE", cfg.RecentStore)
	cfg.SQLitePath = getenvDefault("SQLITE_PATH", cfg.SQLitePath)
	cfg.RedisAddr = getenvDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getenvDefault("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getenvInt("REDIS_DB", cfg.RedisDB)
	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.AppEnv = getenvDefault("APP_ENV", cfg.AppEnv)

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return err
	}
	if cfg.SuggestDebounce, err = getenvDuration("SUGGEST_DEBOUNCE", cfg.SuggestDebounce); err != nil {
		return err
	}
	if cfg.WatchInterval, err = getenvDuration("WATCH_INTERVAL", cfg.WatchInterval); err != nil {
		return err
	}

	if v := os.Getenv("WATCH_CITIES"); v != "" {
		cfg.WatchCities = splitList(v)
	}
	return nil
}

func (c *AppConfig) validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.WatchCities) > 0 && c.WatchInterval <= 0 {
		return fmt.Errorf("invalid WATCH_INTERVAL: %s", c.WatchInterval)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
