package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// AdminIdentity matches users to the admin role during registration by
// username or by any of the listed phone spellings.
type AdminIdentity struct {
	Username string   `yaml:"username"`
	Phones   []string `yaml:"phones"`
}

type BotConfig struct {
	Token       string          `yaml:"token"`
	AdminChatID string          `yaml:"admin_chat_id"`
	Admins      []AdminIdentity `yaml:"admins"`
	Workers     int             `yaml:"workers"` // polling workers
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	JWTTTL    time.Duration `yaml:"jwt_ttl"`
}

type SweepConfig struct {
	Interval   time.Duration `yaml:"interval"`    // how often the sweep runs
	RequestTTL time.Duration `yaml:"request_ttl"` // category-approval timeout
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Web      WebConfig      `yaml:"web"`
	Sweep    SweepConfig    `yaml:"sweep"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Web.JWTTTL <= 0 {
		cfg.Web.JWTTTL = 24 * time.Hour
	}
	if cfg.Sweep.Interval <= 0 {
		cfg.Sweep.Interval = time.Hour
	}
	if cfg.Sweep.RequestTTL <= 0 {
		cfg.Sweep.RequestTTL = 24 * time.Hour
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.AdminChatID == "" {
		return nil, errors.New("bot.admin_chat_id is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Web.JWTSecret == "" {
		return nil, errors.New("web.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
