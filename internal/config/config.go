// Package config loads application configuration from an optional yaml file
// with environment-variable overrides (prefix HOURSTACK_).
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string `mapstructure:"name"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Database struct {
		DSN         string `mapstructure:"dsn"`
		MaxOpen     int    `mapstructure:"max_open"`
		MaxIdle     int    `mapstructure:"max_idle"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
		EnableTLS   bool   `mapstructure:"enable_tls"`
	} `mapstructure:"database"`

	Redis struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		DB        int    `mapstructure:"db"`
		PoolSize  int    `mapstructure:"pool_size"`
		EnableTLS bool   `mapstructure:"enable_tls"`
	} `mapstructure:"redis"`

	RabbitMQ struct {
		URL        string `mapstructure:"url"`
		EnableTLS  bool   `mapstructure:"enable_tls"`
		Exchange   string `mapstructure:"exchange"`
		AuditQueue string `mapstructure:"audit_queue"`
		Prefetch   int    `mapstructure:"prefetch"`
	} `mapstructure:"rabbitmq"`

	Auth struct {
		ProjectRef string `mapstructure:"project_ref"`
		AnonKey    string `mapstructure:"anon_key"`
		AdminEmail string `mapstructure:"admin_email"`
	} `mapstructure:"auth"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	Cache struct {
		TTLSec int `mapstructure:"ttl_sec"`
	} `mapstructure:"cache"`

	Subscribe struct {
		MaxRetries    int `mapstructure:"max_retries"`
		BackoffBaseMS int `mapstructure:"backoff_base_ms"`
	} `mapstructure:"subscribe"`

	Store struct {
		WriteTimeoutSec int `mapstructure:"write_timeout_sec"`
	} `mapstructure:"store"`

	Telemetry struct {
		Enabled      bool    `mapstructure:"enabled"`
		OtlpEndpoint string  `mapstructure:"otlp_endpoint"`
		SampleRatio  float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"telemetry"`
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.Subscribe.BackoffBaseMS) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Store.WriteTimeoutSec) * time.Second
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("HOURSTACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// No config file is fine; env and defaults carry the load.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "hourstack-api")
	v.SetDefault("app.env", "development")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("database.dsn", "host=localhost user=postgres password=postgres dbname=hourstack port=5432 sslmode=disable")
	v.SetDefault("database.max_open", 20)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "hourstack.entries")
	v.SetDefault("rabbitmq.audit_queue", "hourstack.audit")
	v.SetDefault("rabbitmq.prefetch", 10)

	v.SetDefault("log.level", "info")

	v.SetDefault("cache.ttl_sec", 300)

	v.SetDefault("subscribe.max_retries", 3)
	v.SetDefault("subscribe.backoff_base_ms", 1000)

	v.SetDefault("store.write_timeout_sec", 10)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.sample_ratio", 1.0)
}
