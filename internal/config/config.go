package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Redis is optional; without it revocations live only in Postgres
	RedisURL string `envconfig:"REDIS_URL"`

	// AMQP is optional; without it audit events only go to the log
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"sorria.audit"`

	// Extractor
	ExtractorType string        `envconfig:"EXTRACTOR_TYPE" default:"deepface"`
	DeepFaceURL   string        `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel string        `envconfig:"DEEPFACE_MODEL" default:"Facenet"`
	AWSRegion     string        `envconfig:"AWS_REGION" default:"us-east-1"`
	DetectTimeout time.Duration `envconfig:"DETECT_TIMEOUT" default:"5s"`

	// Capture loop
	CaptureInterval  time.Duration `envconfig:"CAPTURE_INTERVAL" default:"100ms"`
	CaptchaSecret    string        `envconfig:"CAPTCHA_SECRET"`
	CaptchaVerifyURL string        `envconfig:"CAPTCHA_VERIFY_URL" default:"https://www.google.com/recaptcha/api/siteverify"`

	// Security
	HandOffSecret  string        `envconfig:"HANDOFF_SECRET" required:"true"`
	HandOffTTL     time.Duration `envconfig:"HANDOFF_TTL" default:"10m"`
	CodeTTL        time.Duration `envconfig:"CODE_TTL" default:"1h"`
	AccessTokenTTL time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"0s"`

	// Rate limits
	ExchangeRateLimit int `envconfig:"EXCHANGE_RATE_LIMIT" default:"60"`
	ValidateRateLimit int `envconfig:"VALIDATE_RATE_LIMIT" default:"20"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CaptchaEnabled reports whether capture sessions must pass a captcha first.
func (c *Config) CaptchaEnabled() bool {
	return c.CaptchaSecret != ""
}
