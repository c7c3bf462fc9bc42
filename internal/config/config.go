package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"wedding-rsvp/internal/models"
)

// Config holds the application configuration
type Config struct {
	Port string `env:"PORT" envDefault:"3000"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`

	// Storage
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"file"`
	DataFile      string `env:"RSVP_DATA_FILE" envDefault:"data/responses.json"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"data/rsvps.db"`
	DatabaseURL   string `env:"DATABASE_URL"`

	// Notification
	NotifyMode    string        `env:"NOTIFY_MODE" envDefault:"blocking"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"20s"`
	HostEmails    []string      `env:"HOST_EMAILS" envSeparator:","`
	EmailFrom     string        `env:"EMAIL_FROM"`

	// SMTP (Gmail app password by default)
	SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"EMAIL_USER"`
	SMTPPass string `env:"EMAIL_PASS"`

	// HTTPS email API, preferred over SMTP when a key is set
	EmailAPIKey string `env:"RESEND_API_KEY"`
	EmailAPIURL string `env:"EMAIL_API_URL" envDefault:"https://api.resend.com"`

	// WhatsApp
	WhatsAppEnabled     bool     `env:"WHATSAPP_ENABLED" envDefault:"false"`
	WhatsAppDataDir     string   `env:"WHATSAPP_DATA_DIR" envDefault:"data"`
	WhatsAppHosts       []string `env:"WHATSAPP_HOSTS" envSeparator:","`
	WhatsAppCountryCode string   `env:"WHATSAPP_COUNTRY_CODE" envDefault:"962"`

	// Event details
	WeddingDate     string `env:"WEDDING_DATE" envDefault:"Saturday, March 28, 2026"`
	WeddingLocation string `env:"WEDDING_LOCATION" envDefault:"Venue TBD"`
	BrideName       string `env:"BRIDE_NAME" envDefault:"Bride"`
	GroomName       string `env:"GROOM_NAME" envDefault:"Groom"`
	TimeZone        string `env:"TIME_ZONE" envDefault:"Asia/Amman"`

	// Extras
	DigestCron  string `env:"DIGEST_CRON"`
	DebugRoutes bool   `env:"DEBUG_ROUTES" envDefault:"true"`
	Console     bool   `env:"CONSOLE" envDefault:"false"`
}

// LoadConfig loads configuration from a .env file (if any) and environment
// variables, falling back to defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Event returns the event details shown to guests and hosts.
func (c *Config) Event() models.Event {
	return models.Event{
		BrideName: c.BrideName,
		GroomName: c.GroomName,
		Date:      c.WeddingDate,
		Location:  c.WeddingLocation,
	}
}

// Location resolves TimeZone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

// EmailFromAddress is the sender used for email notifications.
func (c *Config) EmailFromAddress() string {
	if c.EmailFrom != "" {
		return c.EmailFrom
	}
	return c.SMTPUser
}
