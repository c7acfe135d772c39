// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

// DefaultJWTSecret is used when no signing secret is configured. Tokens signed
// with it are forgeable, so startup warns loudly about it.
const DefaultJWTSecret = "your-jwt-secret-change-this"

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

	// command line flags that override nested keys
	flagKeys = map[string]string{
		"log-level": "app.log_level",
		"port":      "host.port",
		"push-url":  "push.url",
	}
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Host       HostConfig       `mapstructure:"host"`
	Bot        BotConfig        `mapstructure:"bot"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	Durable    DurableConfig    `mapstructure:"durable"`
	AWS        AWSConfig        `mapstructure:"aws"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Push       PushConfig       `mapstructure:"push"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

type HostConfig struct {
	Port      int    `mapstructure:"port"`
	StaticDir string `mapstructure:"static_dir"`
}

// BotConfig controls who may write stats. An empty APIToken means open mode
// unless RequireToken is set.
type BotConfig struct {
	APIToken     string `mapstructure:"api_token"`
	RequireToken bool   `mapstructure:"require_token"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type DiscordConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	APIBase      string `mapstructure:"api_base"`
	BotToken     string `mapstructure:"bot_token"`
}

type DurableConfig struct {
	Type string `mapstructure:"type"`
	Key  string `mapstructure:"key"`
}

type AWSConfig struct {
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
}

type CloudflareConfig struct {
	AccountID       string `mapstructure:"account_id"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

type SentryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PushConfig struct {
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
}

// Setup reads flags, the optional config.toml and the environment, applies
// defaults and validates the result. An error means the application can't run.
func Setup(flags *pflag.FlagSet) (*Config, error) {
	v.Reset()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags, %w", err)
		}

		for flag, key := range flagKeys {
			if f := flags.Lookup(flag); f != nil {
				v.BindPFlag(key, f)
			}
		}
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if p := v.GetString("config"); p != "" {
		v.SetConfigFile(p)
	}

	//
	// ENVS
	//
	v.BindEnv("app.name", "APP_NAME")
	v.BindEnv("app.version", "WEBSITE_VERSION")
	v.BindEnv("app.environment", "NODE_ENV", "APP_ENVIRONMENT")
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "PORT", "HOST_PORT")
	v.BindEnv("host.static_dir", "HOST_STATIC_DIR")

	v.BindEnv("bot.api_token", "BOT_API_TOKEN")
	v.BindEnv("bot.require_token", "BOT_REQUIRE_TOKEN")

	v.BindEnv("jwt.secret", "JWT_SECRET")
	v.BindEnv("jwt.ttl", "JWT_TTL")

	v.BindEnv("discord.client_id", "DISCORD_CLIENT_ID")
	v.BindEnv("discord.client_secret", "DISCORD_CLIENT_SECRET")
	v.BindEnv("discord.api_base", "DISCORD_API_BASE")
	v.BindEnv("discord.bot_token", "BOT_TOKEN")

	v.BindEnv("durable.type", "DURABLE_TYPE")
	v.BindEnv("durable.key", "DURABLE_KEY")

	v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("aws.bucket", "AWS_BUCKET")
	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.endpoint", "AWS_ENDPOINT")

	v.BindEnv("cloudflare.account_id", "CLOUDFLARE_ACCOUNT_ID")
	v.BindEnv("cloudflare.access_key_id", "CLOUDFLARE_ACCESS_KEY_ID")
	v.BindEnv("cloudflare.secret_access_key", "CLOUDFLARE_SECRET_ACCESS_KEY")
	v.BindEnv("cloudflare.bucket", "CLOUDFLARE_BUCKET")

	v.BindEnv("redis.url", "REDIS_URL")

	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("sentry.dsn", "SENTRY_DSN")
	v.BindEnv("metrics.enabled", "METRICS_ENABLED")

	v.BindEnv("push.url", "PUSH_URL")
	v.BindEnv("push.interval", "PUSH_INTERVAL")

	//
	// Defaults
	//
	v.SetDefault("app.name", "Floofs Den API")
	v.SetDefault("app.version", "v2.1.5")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 3001)

	v.SetDefault("bot.require_token", false)

	v.SetDefault("jwt.ttl", 7*24*time.Hour)

	v.SetDefault("discord.api_base", "https://discord.com/api/v10")

	v.SetDefault("durable.type", "none")
	v.SetDefault("durable.key", "bot-stats")

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("database.path", "stats.db")

	v.SetDefault("metrics.enabled", false)

	v.SetDefault("push.url", "http://localhost:3001/api/update-stats")
	v.SetDefault("push.interval", 5*time.Minute)

	// The file is optional, a serverless deployment is configured through env only
	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file, %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to decode config, %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.JWT.Secret == "" {
		c.JWT.Secret = DefaultJWTSecret
	}

	return &c, nil
}

// Validate reports the first setting that makes the configuration unusable
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.App.LogLevel) {
		return errors.New("invalid log level provided")
	}

	if c.Host.Port <= 0 || c.Host.Port > 65535 {
		return errors.New("invalid port provided")
	}

	if c.JWT.TTL <= 0 {
		return errors.New("jwt.ttl must be bigger than 0")
	}

	if c.Push.Interval <= 0 {
		return errors.New("push.interval must be bigger than 0")
	}

	if c.Durable.Key == "" {
		return errors.New("durable.key can't be empty")
	}

	switch c.Durable.Type {
	case "none":
	case "s3":
		if c.AWS.Bucket == "" {
			return errors.New("aws.bucket can't be empty")
		}
		if c.AWS.AccessKeyID == "" {
			return errors.New("aws.access_key_id can't be empty")
		}
		if c.AWS.SecretAccessKey == "" {
			return errors.New("aws.secret_access_key can't be empty")
		}
	case "r2":
		if c.Cloudflare.AccountID == "" {
			return errors.New("account id can't be empty")
		}
		if c.Cloudflare.AccessKeyID == "" {
			return errors.New("account access id can't be empty")
		}
		if c.Cloudflare.SecretAccessKey == "" {
			return errors.New("secret access key can't be empty")
		}
		if c.Cloudflare.Bucket == "" {
			return errors.New("bucket can't be empty")
		}
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url can't be empty")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path can't be empty")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn can't be empty")
		}
	default:
		return errors.New("invalid durable store type provided")
	}

	return nil
}

// OpenMode reports whether stats writes are accepted without a token
func (c *Config) OpenMode() bool {
	return c.Bot.APIToken == "" && !c.Bot.RequireToken
}

// Warnings lists the non fatal configuration problems worth logging at startup
func (c *Config) Warnings() []string {
	var w []string

	if c.JWT.Secret == DefaultJWTSecret {
		w = append(w, "JWT secret not set, session tokens are signed with the insecure default. Set JWT_SECRET")
	}

	if c.OpenMode() {
		w = append(w, "BOT_API_TOKEN not set, anyone can write bot stats")
	}

	if c.Bot.APIToken == "" && c.Bot.RequireToken {
		w = append(w, "bot.require_token is set without BOT_API_TOKEN, every stats write will be rejected")
	}

	if c.Discord.ClientID == "" || c.Discord.ClientSecret == "" {
		w = append(w, "Discord client credentials missing, login will fail")
	}

	return w
}
