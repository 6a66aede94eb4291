// Package config loads runtime settings from .env, an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/questbibek/leads-scraper-pro/internal/browser"
	"github.com/questbibek/leads-scraper-pro/internal/navigate"
	"github.com/questbibek/leads-scraper-pro/internal/paginate"
	"github.com/questbibek/leads-scraper-pro/internal/session"
	"github.com/questbibek/leads-scraper-pro/internal/verify"
)

// Default configuration values
const (
	DefaultMapsURL      = "https://www.google.com/maps"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	DefaultDriver       = "file"
	DefaultSnapshotPath = "data/snapshot.json"
	DefaultExportDir    = "exports"
	DefaultMySQLHost    = "127.0.0.1:3306"
	DefaultDBUser       = "gmaps"
	DefaultDBPassword   = "mapmap"
	DefaultDBName       = "gmaps"
	DefaultSSLMode      = "disable"
)

// Database holds the SQL snapshot store connection settings.
type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Timing holds every delay and bound of a scrape, in the units the packages use.
type Timing struct {
	Settle           time.Duration
	FeedPoll         time.Duration
	FeedPollAttempts int
	Cooldown         time.Duration

	ScrollSettle  time.Duration
	MaxScrolls    int
	StagnantLimit int

	VerifyTimeout  time.Duration
	VerifyPoll     time.Duration
	MinWaitBase    time.Duration
	MinWaitStep    time.Duration
	MismatchGrace  time.Duration
	MaxAttempts    int
	RetryBase      time.Duration
	RetryStep      time.Duration
	PersistQuiet   time.Duration
	BrowserTimeout time.Duration
}

// Config is the full runtime configuration.
type Config struct {
	Headless  bool
	UserAgent string
	MapsURL   string

	Database     Database
	SnapshotPath string
	ExportDir    string

	LogLevel      string
	VerifyEmailMX bool
	DNSServers    []string

	Timing Timing
}

var msKeys = map[string]int{
	"SETTLE_MS":               3000,
	"FEED_POLL_MS":            500,
	"COOLDOWN_MS":             2000,
	"SCROLL_SETTLE_MS":        1500,
	"VERIFY_TIMEOUT_MS":       10000,
	"VERIFY_POLL_MS":          250,
	"VERIFY_MIN_WAIT_BASE_MS": 1000,
	"VERIFY_MIN_WAIT_STEP_MS": 500,
	"VERIFY_GRACE_MS":         4000,
	"RETRY_BASE_MS":           2000,
	"RETRY_STEP_MS":           1000,
	"PERSIST_QUIET_MS":        500,
	"BROWSER_TIMEOUT_MS":      30000,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HEADLESS", true)
	v.SetDefault("USER_AGENT", DefaultUserAgent)
	v.SetDefault("MAPS_URL", DefaultMapsURL)
	v.SetDefault("DB_DRIVER", DefaultDriver)
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", "")
	v.SetDefault("DB_USER", DefaultDBUser)
	v.SetDefault("DB_PASSWORD", DefaultDBPassword)
	v.SetDefault("DB_NAME", DefaultDBName)
	v.SetDefault("DB_SSLMODE", DefaultSSLMode)
	v.SetDefault("SNAPSHOT_PATH", DefaultSnapshotPath)
	v.SetDefault("EXPORT_DIR", DefaultExportDir)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERIFY_EMAIL_MX", false)
	v.SetDefault("DNS_SERVERS", "8.8.8.8:53,1.1.1.1:53")

	v.SetDefault("FEED_POLL_ATTEMPTS", 10)
	v.SetDefault("MAX_SCROLLS", 30)
	v.SetDefault("STAGNANT_LIMIT", 3)
	v.SetDefault("MAX_ATTEMPTS", 5)
	for key, ms := range msKeys {
		v.SetDefault(key, ms)
	}
}

// Load reads .env (when present), then the YAML file at path (optional; when
// empty ./config.yaml is tried), then environment variables, which win.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ms(v *viper.Viper, key string) time.Duration {
	n := v.GetInt(key)
	if n < 0 {
		n = msKeys[key]
	}
	return time.Duration(n) * time.Millisecond
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Headless:  v.GetBool("HEADLESS"),
		UserAgent: strings.TrimSpace(v.GetString("USER_AGENT")),
		MapsURL:   strings.TrimSpace(v.GetString("MAPS_URL")),
		Database: Database{
			Driver:   strings.ToLower(strings.TrimSpace(v.GetString("DB_DRIVER"))),
			Host:     strings.TrimSpace(v.GetString("DB_HOST")),
			Port:     strings.TrimSpace(v.GetString("DB_PORT")),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		SnapshotPath:  v.GetString("SNAPSHOT_PATH"),
		ExportDir:     v.GetString("EXPORT_DIR"),
		LogLevel:      strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		VerifyEmailMX: v.GetBool("VERIFY_EMAIL_MX"),
		DNSServers:    splitList(v.GetString("DNS_SERVERS")),
		Timing: Timing{
			Settle:           ms(v, "SETTLE_MS"),
			FeedPoll:         ms(v, "FEED_POLL_MS"),
			FeedPollAttempts: v.GetInt("FEED_POLL_ATTEMPTS"),
			Cooldown:         ms(v, "COOLDOWN_MS"),
			ScrollSettle:     ms(v, "SCROLL_SETTLE_MS"),
			MaxScrolls:       v.GetInt("MAX_SCROLLS"),
			StagnantLimit:    v.GetInt("STAGNANT_LIMIT"),
			VerifyTimeout:    ms(v, "VERIFY_TIMEOUT_MS"),
			VerifyPoll:       ms(v, "VERIFY_POLL_MS"),
			MinWaitBase:      ms(v, "VERIFY_MIN_WAIT_BASE_MS"),
			MinWaitStep:      ms(v, "VERIFY_MIN_WAIT_STEP_MS"),
			MismatchGrace:    ms(v, "VERIFY_GRACE_MS"),
			MaxAttempts:      v.GetInt("MAX_ATTEMPTS"),
			RetryBase:        ms(v, "RETRY_BASE_MS"),
			RetryStep:        ms(v, "RETRY_STEP_MS"),
			PersistQuiet:     ms(v, "PERSIST_QUIET_MS"),
			BrowserTimeout:   ms(v, "BROWSER_TIMEOUT_MS"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "file":
		if strings.TrimSpace(c.SnapshotPath) == "" {
			return errors.New("SNAPSHOT_PATH is required when DB_DRIVER=file")
		}
	case "mysql", "postgres":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q: want file, mysql or postgres", c.Database.Driver)
	}

	if c.MapsURL == "" {
		return errors.New("MAPS_URL is required")
	}

	t := c.Timing
	for name, n := range map[string]int{
		"FEED_POLL_ATTEMPTS": t.FeedPollAttempts,
		"MAX_SCROLLS":        t.MaxScrolls,
		"STAGNANT_LIMIT":     t.StagnantLimit,
		"MAX_ATTEMPTS":       t.MaxAttempts,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}
	if t.VerifyPoll <= 0 {
		return errors.New("VERIFY_POLL_MS must be positive")
	}
	if t.VerifyTimeout <= 0 {
		return errors.New("VERIFY_TIMEOUT_MS must be positive")
	}
	return nil
}

// DSN builds the connection string for the configured SQL driver.
func (d Database) DSN() string {
	if d.Driver == "postgres" {
		host, port := d.Host, d.Port
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			host, port, d.User, d.Password, d.Name, d.SSLMode,
		)
	}

	addr := d.Host
	if addr == "" {
		addr = DefaultMySQLHost
	}
	if d.Port != "" && !strings.Contains(addr, ":") {
		addr += ":" + d.Port
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		d.User, d.Password, addr, d.Name,
	)
}

// Browser returns the chromedp driver settings.
func (c *Config) Browser() browser.Config {
	return browser.Config{
		Headless:      c.Headless,
		UserAgent:     c.UserAgent,
		MapsURL:       c.MapsURL,
		ActionTimeout: c.Timing.BrowserTimeout,
	}
}

// Session returns the orchestrator timings.
func (c *Config) Session() session.Config {
	return session.Config{
		Settle:           c.Timing.Settle,
		FeedPoll:         c.Timing.FeedPoll,
		FeedPollAttempts: c.Timing.FeedPollAttempts,
		Cooldown:         c.Timing.Cooldown,
	}
}

// Paginate returns the pagination loader settings.
func (c *Config) Paginate() paginate.Config {
	return paginate.Config{
		MaxScrolls:    c.Timing.MaxScrolls,
		StagnantLimit: c.Timing.StagnantLimit,
		Settle:        c.Timing.ScrollSettle,
	}
}

// Verify returns the panel verifier settings.
func (c *Config) Verify() verify.Config {
	return verify.Config{
		Timeout:  c.Timing.VerifyTimeout,
		Interval: c.Timing.VerifyPoll,
		MinWait:  verify.MinWait{Base: c.Timing.MinWaitBase, Step: c.Timing.MinWaitStep},
		Grace:    c.Timing.MismatchGrace,
	}
}

// Navigate returns the item navigator retry policy.
func (c *Config) Navigate() navigate.Config {
	return navigate.Config{
		MaxAttempts: c.Timing.MaxAttempts,
		Backoff:     navigate.Backoff{Base: c.Timing.RetryBase, Step: c.Timing.RetryStep},
	}
}
