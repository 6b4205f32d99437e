package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/pota-spot-hunter/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// ErrMissingSecret is returned when a required credential is unset or blank.
var ErrMissingSecret = errors.New("missing required secret")

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Required secrets.
	QRZUsername   string
	QRZPassword   string
	PushoverToken string
	PushoverUser  string

	PushoverSound string
	PushoverTitle string

	POTAFeedURL    string
	QRZAPIURL      string
	PushoverAPIURL string
	QRZTimeout     time.Duration

	Criteria domain.Criteria

	// Credential store: SQLite unless RedisAddr is set.
	CredentialDBPath string
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisKeyPrefix   string

	// Optional downstream channels.
	KafkaBrokers   []string
	KafkaSpotTopic string
	TelegramToken  string
	TelegramChatID int64

	Schedule        string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
	LogFile         string
}

// Load reads configuration from environment variables, applying defaults where unset.
// The four secrets are checked before anything else is parsed.
func Load() (*Config, error) {
	cfg := &Config{
		QRZUsername:   strings.TrimSpace(os.Getenv("QRZ_USERNAME")),
		QRZPassword:   strings.TrimSpace(os.Getenv("QRZ_PASSWORD")),
		PushoverToken: strings.TrimSpace(os.Getenv("PUSHOVER_TOKEN")),
		PushoverUser:  strings.TrimSpace(os.Getenv("PUSHOVER_USER")),
	}
	if err := cfg.checkSecrets(); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	qrzTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("QRZ_TIMEOUT", "10s"))
	if err != nil || qrzTimeout <= 0 {
		return nil, errors.New("invalid QRZ_TIMEOUT")
	}

	criteria, err := loadCriteria()
	if err != nil {
		return nil, err
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	cfg.PushoverSound = sharedcfg.EnvOrDefault("PUSHOVER_SOUND", "gamelan")
	cfg.PushoverTitle = sharedcfg.EnvOrDefault("PUSHOVER_TITLE", "POTA spots")
	cfg.POTAFeedURL = sharedcfg.EnvOrDefault("POTA_FEED_URL", "https://api.pota.app/spot/activator/")
	cfg.QRZAPIURL = sharedcfg.EnvOrDefault("QRZ_API_URL", "https://xmldata.qrz.com/xml/current/")
	cfg.PushoverAPIURL = sharedcfg.EnvOrDefault("PUSHOVER_API_URL", "https://api.pushover.net/1/messages.json")
	cfg.QRZTimeout = qrzTimeout
	cfg.Criteria = criteria
	cfg.CredentialDBPath = sharedcfg.EnvOrDefault("CREDENTIAL_DB_PATH", "data/qrz.db")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = redisDB
	cfg.RedisKeyPrefix = sharedcfg.EnvOrDefault("REDIS_KEY_PREFIX", "pota-hunter:")
	cfg.KafkaSpotTopic = sharedcfg.EnvOrDefault("KAFKA_SPOT_TOPIC", "pota-spots")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.Schedule = strings.TrimSpace(os.Getenv("SCHEDULE"))
	cfg.HTTPAddr = sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080")
	cfg.ShutdownTimeout = shutdownTimeout
	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", "info")
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", "json")
	cfg.LogFile = os.Getenv("LOG_FILE")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(brokers)
	}

	if cfg.CredentialDBPath == "" && cfg.RedisAddr == "" {
		return nil, errors.New("CREDENTIAL_DB_PATH is required when REDIS_ADDR is not set")
	}
	if cfg.KafkaSpotTopic == "" && len(cfg.KafkaBrokers) > 0 {
		return nil, errors.New("KAFKA_SPOT_TOPIC is required when KAFKA_BROKERS is set")
	}

	chatID := os.Getenv("TELEGRAM_CHAT_ID")
	switch {
	case cfg.TelegramToken != "" && chatID == "":
		return nil, errors.New("TELEGRAM_BOT_TOKEN is set but TELEGRAM_CHAT_ID is not")
	case cfg.TelegramToken == "" && chatID != "":
		return nil, errors.New("TELEGRAM_CHAT_ID is set but TELEGRAM_BOT_TOKEN is not")
	case chatID != "":
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, errors.New("invalid TELEGRAM_CHAT_ID")
		}
		cfg.TelegramChatID = id
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid SCHEDULE %q: %w", cfg.Schedule, err)
		}
	}

	return cfg, nil
}

// KafkaEnabled reports whether enriched spots should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// TelegramEnabled reports whether batches are mirrored to Telegram.
func (c *Config) TelegramEnabled() bool { return c.TelegramToken != "" }

// Scheduled reports whether the process should keep running on a cron schedule.
func (c *Config) Scheduled() bool { return c.Schedule != "" }

func (c *Config) checkSecrets() error {
	var missing []string
	for _, s := range []struct{ name, value string }{
		{"QRZ_USERNAME", c.QRZUsername},
		{"QRZ_PASSWORD", c.QRZPassword},
		{"PUSHOVER_TOKEN", c.PushoverToken},
		{"PUSHOVER_USER", c.PushoverUser},
	} {
		if s.value == "" {
			missing = append(missing, s.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}
