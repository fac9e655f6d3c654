package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingAPIKey    = errors.New("CLIMATIQ_API_KEY is required")
	ErrMissingJWTSecret = errors.New("JWT_SECRET is required when TRACKER_PASSCODE_HASH is set")
)

// devJWTSecret signs tokens only while authentication is off.
const devJWTSecret = "default-secret-key-change-in-production"

// Config holds everything the server needs, read once at start-up.
type Config struct {
	Port string

	ClimatiqAPIKey      string
	ClimatiqEndpoint    string
	ClimatiqDataVersion string

	MongoURI string
	MongoDB  string

	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string

	JWTSecret    string
	JWTExpiry    time.Duration
	PasscodeHash string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	LogLevel log.Level
}

// AuthEnabled reports whether callers must present a device token.
func (c *Config) AuthEnabled() bool {
	return c.PasscodeHash != ""
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		ClimatiqAPIKey:      os.Getenv("CLIMATIQ_API_KEY"),
		ClimatiqEndpoint:    getEnv("CLIMATIQ_ENDPOINT", "https://api.climatiq.io/data/v1/estimate"),
		ClimatiqDataVersion: getEnv("CLIMATIQ_DATA_VERSION", "28.28"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDB:             getEnv("MONGO_DB", "carbontrack"),
		MQTTBroker:          os.Getenv("MQTT_BROKER"),
		MQTTClientID:        getEnv("MQTT_CLIENT_ID", "carbontrack-api"),
		MQTTTopicPrefix:     getEnv("MQTT_TOPIC_PREFIX", "carbontrack"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTExpiry:           24 * time.Hour,
		PasscodeHash:        os.Getenv("TRACKER_PASSCODE_HASH"),
		RateLimitRequests:   30,
		RateLimitWindow:     time.Minute,
		LogLevel:            log.InfoLevel,
	}

	if cfg.ClimatiqAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.JWTSecret == "" {
		if cfg.AuthEnabled() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = devJWTSecret
	}

	var err error
	if cfg.JWTExpiry, err = getDuration("JWT_EXPIRY", cfg.JWTExpiry); err != nil {
		return nil, err
	}
	if cfg.RateLimitWindow, err = getDuration("RATE_LIMIT_WINDOW", cfg.RateLimitWindow); err != nil {
		return nil, err
	}
	if v := os.Getenv("RATE_LIMIT_REQUESTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid RATE_LIMIT_REQUESTS %q", v)
		}
		cfg.RateLimitRequests = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := log.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
