package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"trade-bot/internal/backend"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

const (
	RunModeLongpoll = "longpoll"
	RunModeWebhook  = "webhook"
)

type Config struct {
	TelegramToken   string        `env:"TOKEN,required,notEmpty"`
	TelegramDebug   bool          `env:"TELEGRAM_DEBUG" envDefault:"false"`
	BackendURL      string        `env:"URL,required,notEmpty"`
	BackendLogin    string        `env:"LOGIN,required,notEmpty"`
	BackendPassword string        `env:"PASSWORD,required,notEmpty"`
	BackendProtocol string        `env:"BACKEND_PROTOCOL" envDefault:"json"`
	AttachmentDir   string        `env:"ATTACHMENT_DIR"`
	RunMode         string        `env:"RUN_MODE" envDefault:"longpoll"`
	LongPollTimeout int           `env:"LONGPOLL_TIMEOUT" envDefault:"60"`
	SkipUpdates     bool          `env:"SKIP_UPDATES" envDefault:"true"`
	WebhookURL      string        `env:"WEBHOOK_URL"`
	WebhookListen   string        `env:"WEBHOOK_LISTEN" envDefault:":8443"`
	WebhookSecret   string        `env:"WEBHOOK_SECRET"`
	StartupTimeout  time.Duration `env:"STARTUP_TIMEOUT" envDefault:"2m"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads the optional dotenv files first, then the process environment.
// Variables already present in the environment are never overridden.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises enum-like fields in place.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("nil config")
	}

	protocol := strings.ToLower(strings.TrimSpace(c.BackendProtocol))
	if protocol == "" {
		protocol = backend.ProtocolJSON
	}
	switch protocol {
	case backend.ProtocolJSON, backend.ProtocolPath:
	default:
		return fmt.Errorf("invalid BACKEND_PROTOCOL %q; allowed: json, path", c.BackendProtocol)
	}
	c.BackendProtocol = protocol

	mode := strings.ToLower(strings.TrimSpace(c.RunMode))
	if mode == "" || mode == "polling" {
		mode = RunModeLongpoll
	}
	switch mode {
	case RunModeLongpoll:
		if c.LongPollTimeout < 0 {
			return fmt.Errorf("LONGPOLL_TIMEOUT must be >= 0")
		}
	case RunModeWebhook:
		if strings.TrimSpace(c.WebhookURL) == "" {
			return fmt.Errorf("WEBHOOK_URL is required when RUN_MODE is webhook")
		}
		if strings.TrimSpace(c.WebhookListen) == "" {
			return fmt.Errorf("WEBHOOK_LISTEN is required when RUN_MODE is webhook")
		}
	default:
		return fmt.Errorf("invalid RUN_MODE %q; allowed: longpoll, webhook", c.RunMode)
	}
	c.RunMode = mode

	return nil
}
