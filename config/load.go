package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"order-notifier-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env      string         `yaml:"env"`
	Bot      BotConfig      `yaml:"bot"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Nats     NatsConfig     `yaml:"nats"`
	Checker  CheckerConfig  `yaml:"checker"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logger   logger.Config  `yaml:"logger"`
}

type BotConfig struct {
	Token string `yaml:"token"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig 可选：为空则换成进程内 pair 缓存
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// NatsConfig 可选：为空则不发布事件流
type NatsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type CheckerConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"` // polling interval
	AttemptsLimit   int `yaml:"attemptsLimit"`   // request retry ceiling

	RestRate  float64 `yaml:"restRate"`  // REST 限流：每秒令牌数
	RestBurst int     `yaml:"restBurst"` // REST 限流：最大突发令牌数
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // 留空则关闭 /metrics
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from
// env vars if present. Validation runs after the overrides so a token
// supplied only through the environment still passes.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("NOTIFY_BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("NOTIFY_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NOTIFY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("NOTIFY_NATS_URL"); v != "" {
		cfg.Nats.URL = v
	}
}
