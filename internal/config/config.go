package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	DefaultAppPort       = "8087"
	DefaultSessionTTL    = 24 * time.Hour
	DefaultSessionCookie = "blog_session"
)

var (
	ErrMissingSecretKey   = errors.New("SECRET_KEY is required")
	ErrMissingDatabaseURI = errors.New("DATABASE_URI is required")
	ErrInvalidSessionTTL  = errors.New("SESSION_TTL must be a positive duration")
)

type Config struct {
	AppName string
	AppEnv  string
	AppPort string

	// SecretKey signs session cookies.
	SecretKey string

	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Session  SessionConfig
}

type DBConfig struct {
	// URI is postgres://..., postgresql://... or sqlite://<path>.
	URI string
}

type RedisConfig struct {
	Host          string
	Port          string
	RedisPassword string
	RedisDB       string
}

// Enabled reports whether sessions should live in Redis instead of the database.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

type RabbitMQConfig struct {
	URL string
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type SessionConfig struct {
	TTL        time.Duration
	CookieName string
	Secure     bool

	rawTTL string
}

func Load() *Config {
	rawTTL := os.Getenv("SESSION_TTL")
	ttl := DefaultSessionTTL
	if rawTTL != "" {
		if d, err := time.ParseDuration(rawTTL); err == nil {
			ttl = d
		}
	}

	secure, _ := strconv.ParseBool(os.Getenv("SESSION_SECURE"))

	return &Config{
		AppName: getEnv("APP_NAME", "blog"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppPort: getEnv("APP_PORT", DefaultAppPort),

		SecretKey: os.Getenv("SECRET_KEY"),

		DB: DBConfig{
			URI: os.Getenv("DATABASE_URI"),
		},

		Redis: RedisConfig{
			Host:          os.Getenv("REDIS_HOST"),
			Port:          getEnv("REDIS_PORT", "6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnv("REDIS_DB", "0"),
		},

		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},

		Session: SessionConfig{
			TTL:        ttl,
			CookieName: getEnv("SESSION_COOKIE", DefaultSessionCookie),
			Secure:     secure,
			rawTTL:     rawTTL,
		},
	}
}

// Validate reports configuration the process cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, ErrMissingSecretKey)
	}
	if c.DB.URI == "" {
		errs = append(errs, ErrMissingDatabaseURI)
	}
	if c.Session.rawTTL != "" {
		if d, err := time.ParseDuration(c.Session.rawTTL); err != nil || d <= 0 {
			errs = append(errs, ErrInvalidSessionTTL)
		}
	} else if c.Session.TTL <= 0 {
		errs = append(errs, ErrInvalidSessionTTL)
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
