// Package config loads the storefront configuration from defaults, an
// optional config.yaml and STOREFRONT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: http.port is read from
// STOREFRONT_HTTP_PORT.
const EnvPrefix = "STOREFRONT"

// Config holds all application configuration.
type Config struct {
	HTTP struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"http"`
	Storage struct {
		Driver      string `mapstructure:"driver"`
		SQLitePath  string `mapstructure:"sqlite_path"`
		PostgresDSN string `mapstructure:"postgres_dsn"`
	} `mapstructure:"storage"`
	DB struct {
		Debug bool `mapstructure:"debug"`
	} `mapstructure:"db"`
	Session struct {
		Store        string        `mapstructure:"store"`
		TTL          time.Duration `mapstructure:"ttl"`
		CookieSecure bool          `mapstructure:"cookie_secure"`
	} `mapstructure:"session"`
	Redis struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`
	Uploads struct {
		Dir      string `mapstructure:"dir"`
		MaxBytes int64  `mapstructure:"max_bytes"`
	} `mapstructure:"uploads"`
	Payment struct {
		CallbackBaseURL string `mapstructure:"callback_base_url"`
	} `mapstructure:"payment"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic"`
	} `mapstructure:"kafka"`
	Admin struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Email    string `mapstructure:"email"`
	} `mapstructure:"admin"`
}

// StorageDSN returns the connection string for the configured driver.
func (c *Config) StorageDSN() string {
	if c.Storage.Driver == "postgres" {
		return c.Storage.PostgresDSN
	}
	return c.Storage.SQLitePath
}

// Load reads config.yaml from the working directory or ./config.
func Load() (*Config, error) {
	return LoadFrom(".", "./config")
}

// LoadFrom reads config.yaml from the first of dirs that has one. A missing
// file is not an error.
func LoadFrom(dirs ...string) (*Config, error) {
	v := viper.New()
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[config] No config.yaml found, using defaults and environment")
	} else {
		log.Printf("[config] Loaded %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply to all of them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 3000)
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "storefront.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("db.debug", false)
	v.SetDefault("session.store", "storage")
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("uploads.dir", "./data/uploads")
	v.SetDefault("uploads.max_bytes", 5<<20)
	v.SetDefault("payment.callback_base_url", "http://localhost:3000")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "orders")
	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.email", "")
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("storage.driver must be memory, sqlite or postgres, got %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		return errors.New("storage.postgres_dsn is required for the postgres driver")
	}
	switch c.Session.Store {
	case "storage", "redis":
	default:
		return fmt.Errorf("session.store must be storage or redis, got %q", c.Session.Store)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.HTTP.Port)
	}
	if c.Uploads.MaxBytes <= 0 {
		return errors.New("uploads.max_bytes must be positive")
	}
	if (c.Admin.Username == "") != (c.Admin.Password == "") {
		log.Println("[config] Warning: admin.username and admin.password must both be set to seed an admin")
	}
	return nil
}
