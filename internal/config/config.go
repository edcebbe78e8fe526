package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		DevAdmin  bool   `yaml:"dev_admin"`
	} `yaml:"auth"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		MinQuestions int    `yaml:"min_questions"`
	} `yaml:"quiz"`
	Session struct {
		TickInterval   string `yaml:"tick_interval"`
		ViolationLimit int    `yaml:"violation_limit"`
		SaveTimeout    string `yaml:"save_timeout"`
		PrizeFormula   string `yaml:"prize_formula"`
	} `yaml:"session"`
}

// Load reads YAML config from path. A missing file yields an empty config so the
// service can run from environment variables alone.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, err
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// applyEnv lets connection settings come from the environment (or a .env file).
func (c *Config) applyEnv() {
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Mongo.URI, "MONGO_URI")
	setString(&c.Mongo.Database, "MONGO_DATABASE")
	setString(&c.AMQP.URL, "AMQP_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	if raw := os.Getenv("AUTH_DEV_ADMIN"); raw != "" {
		if on, err := strconv.ParseBool(raw); err == nil {
			c.Auth.DevAdmin = on
		}
	}
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		if db, err := strconv.Atoi(raw); err == nil {
			c.Redis.DB = db
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Mongo.Database == "" {
		c.Mongo.Database = "quizzardo"
	}
	if c.AMQP.Exchange == "" {
		c.AMQP.Exchange = "quiz.events"
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
