package app

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/banquet-desk/internal/banquet/session"
)

// Config holds runtime configuration for the desk service.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"50s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	RedisAddr  string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"720h"`
	DeskIdle   time.Duration `envconfig:"DESK_IDLE" default:"2h"`
	DeskSweep  time.Duration `envconfig:"DESK_SWEEP" default:"5m"`

	BookingBaseURL         string        `envconfig:"BOOKING_BASE_URL" required:"true"`
	BookingTimeout         time.Duration `envconfig:"BOOKING_TIMEOUT" default:"20s"`
	ReceiptSuccessSentinel string        `envconfig:"RECEIPT_SUCCESS_SENTINEL" default:"Receipt saved successfully"`

	DraftDebounce       time.Duration `envconfig:"DRAFT_DEBOUNCE" default:"300ms"`
	DateFrame           time.Duration `envconfig:"DATE_FRAME" default:"16ms"`
	ActionSafetyTimeout time.Duration `envconfig:"ACTION_SAFETY_TIMEOUT" default:"45s"`
	ActionCooldown      time.Duration `envconfig:"ACTION_COOLDOWN" default:"750ms"`

	HotelID string `envconfig:"HOTEL_ID"`
	LoginID string `envconfig:"LOGIN_ID"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(strings.TrimSpace(c.BookingBaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("booking base url must be an absolute url")
	}
	if c.DraftDebounce > session.MaxDebounce {
		return errors.New("draft debounce must not exceed one second")
	}
	if c.DraftDebounce < 0 || c.DateFrame < 0 || c.ActionSafetyTimeout < 0 {
		return errors.New("timing settings must not be negative")
	}
	if c.AppRequestTimeout >= c.AppWriteTimeout {
		return errors.New("request timeout must be shorter than the write timeout")
	}
	if c.DeskIdle <= 0 || c.DeskSweep <= 0 {
		return errors.New("desk idle window and sweep interval must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
