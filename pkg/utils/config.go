package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Email    EmailConfig
	Mail     MailQueueConfig
	OTP      OTPConfig
	License  LicenseConfig
	Admin    AdminConfig
	Events   EventsConfig
	Rate     RateLimitConfig
}

type AppConfig struct {
	Name            string
	Version         string
	Port            string
	Debug           bool
	LogPath         string
	PublicURL       string
	ShutdownTimeout time.Duration
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxy bool
}

// StorageConfig memilih backend object store: file, postgres, redis atau memory
type StorageConfig struct {
	Driver string
	Dir    string
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type EmailConfig struct {
	Driver           string
	Host             string
	Port             int
	User             string
	Password         string
	From             string
	FromName         string
	MailerSendAPIKey string
	AdminEmail       string
}

type MailQueueConfig struct {
	QueueSize       int
	Workers         int
	MaxAttempts     int
	RetryBackoff    time.Duration
	DeadLetterLimit int
}

type OTPConfig struct {
	ExpiryMinutes int
	Length        int
}

type LicenseConfig struct {
	OTPLength        int
	RequireCodeMatch bool
}

type AdminConfig struct {
	KeyHash string
}

type EventsConfig struct {
	NATSURL string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// Set defaults
	v.SetDefault("APP_NAME", "license-server")
	v.SetDefault("APP_VERSION", "1.0")
	v.SetDefault("PORT", "4000")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_PATH", "logs/")
	v.SetDefault("PUBLIC_URL", "http://localhost:4000")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("TRUST_PROXY", false)
	v.SetDefault("STORAGE_DRIVER", "file")
	v.SetDefault("STORAGE_DIR", "data")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("MAIL_DRIVER", "dev")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("EMAIL_FROM_NAME", "License Server")
	v.SetDefault("ADMIN_EMAIL", "admin@localhost")
	v.SetDefault("MAIL_QUEUE_SIZE", 64)
	v.SetDefault("MAIL_WORKERS", 2)
	v.SetDefault("MAIL_MAX_ATTEMPTS", 3)
	v.SetDefault("MAIL_RETRY_BACKOFF", "2s")
	v.SetDefault("MAIL_DEAD_LETTER_LIMIT", 100)
	v.SetDefault("OTP_EXPIRY_MINUTES", 5)
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("LICENSE_OTP_LENGTH", 8)
	v.SetDefault("LICENSE_REQUIRE_CODE_MATCH", false)
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)

	// .env opsional, env var tetap dibaca
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Version:         v.GetString("APP_VERSION"),
			Port:            v.GetString("PORT"),
			Debug:           v.GetBool("DEBUG"),
			LogPath:         v.GetString("LOG_PATH"),
			PublicURL:       v.GetString("PUBLIC_URL"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			TrustProxy:      v.GetBool("TRUST_PROXY"),
		},
		Storage: StorageConfig{
			Driver: v.GetString("STORAGE_DRIVER"),
			Dir:    v.GetString("STORAGE_DIR"),
		},
		Database: DatabaseConfig{
			URL:      v.GetString("DATABASE_URL"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		JWT: JWTConfig{
			Secret:      v.GetString("JWT_SECRET"),
			ExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		},
		Email: EmailConfig{
			Driver:           v.GetString("MAIL_DRIVER"),
			Host:             v.GetString("SMTP_HOST"),
			Port:             v.GetInt("SMTP_PORT"),
			User:             v.GetString("SMTP_USER"),
			Password:         v.GetString("SMTP_PASS"),
			From:             v.GetString("EMAIL_FROM"),
			FromName:         v.GetString("EMAIL_FROM_NAME"),
			MailerSendAPIKey: v.GetString("MAILERSEND_API_KEY"),
			AdminEmail:       v.GetString("ADMIN_EMAIL"),
		},
		Mail: MailQueueConfig{
			QueueSize:       v.GetInt("MAIL_QUEUE_SIZE"),
			Workers:         v.GetInt("MAIL_WORKERS"),
			MaxAttempts:     v.GetInt("MAIL_MAX_ATTEMPTS"),
			RetryBackoff:    v.GetDuration("MAIL_RETRY_BACKOFF"),
			DeadLetterLimit: v.GetInt("MAIL_DEAD_LETTER_LIMIT"),
		},
		OTP: OTPConfig{
			ExpiryMinutes: v.GetInt("OTP_EXPIRY_MINUTES"),
			Length:        v.GetInt("OTP_LENGTH"),
		},
		License: LicenseConfig{
			OTPLength:        v.GetInt("LICENSE_OTP_LENGTH"),
			RequireCodeMatch: v.GetBool("LICENSE_REQUIRE_CODE_MATCH"),
		},
		Admin: AdminConfig{
			KeyHash: v.GetString("ADMIN_KEY_HASH"),
		},
		Events: EventsConfig{
			NATSURL: v.GetString("NATS_URL"),
		},
		Rate: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// OTPExpiry returns the configured OTP lifetime.
func (c *Config) OTPExpiry() time.Duration {
	return time.Duration(c.OTP.ExpiryMinutes) * time.Minute
}
