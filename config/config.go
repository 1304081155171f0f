package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-flashsale/logger"
)

// Config holds the configuration shared by the scraper, email-capture and pinger services.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Logging  logger.Config  `yaml:"logging"`
	Feed     FeedConfig     `yaml:"feed"`
	Export   ExportConfig   `yaml:"export"`
	Email    EmailConfig    `yaml:"email"`
	Pinger   PingerConfig   `yaml:"pinger"`
}

// ServiceConfig holds HTTP service settings.
type ServiceConfig struct {
	Name            string        `yaml:"name"`
	Version         string        `yaml:"version"`
	Port            int           `env:"PORT"      yaml:"port"`
	Debug           bool          `env:"APP_DEBUG" yaml:"debug"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL settings. URL takes precedence over the discrete fields.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"      yaml:"url"`
	Host            string        `env:"POSTGRES_HOST"     yaml:"host"`
	Port            int           `env:"POSTGRES_PORT"     yaml:"port"`
	User            string        `env:"POSTGRES_USER"     yaml:"user"`
	Password        string        `env:"POSTGRES_PASSWORD" yaml:"password"`
	Name            string        `env:"POSTGRES_DB"       yaml:"name"`
	SSLMode         string        `env:"POSTGRES_SSLMODE"  yaml:"sslmode"`
	SkipMigrations  bool          `env:"SKIP_MIGRATIONS"   yaml:"skip_migrations"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN returns the lib/pq connection string. A URL without an sslmode gets
// sslmode=require, matching hosted databases that hand out DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		parsed, err := url.Parse(d.URL)
		if err != nil {
			return d.URL
		}
		q := parsed.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", "require")
			parsed.RawQuery = q.Encode()
		}
		return parsed.String()
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// FeedConfig describes the remote flash-sale catalog endpoint.
type FeedConfig struct {
	BaseURL     string        `env:"FEED_BASE_URL" yaml:"base_url"`
	API         string        `yaml:"api"`
	APIVersion  string        `yaml:"api_version"`
	JSVersion   string        `yaml:"js_version"`
	AppKey      string        `env:"FEED_APP_KEY" yaml:"app_key"`
	AppID       string        `yaml:"app_id"`
	Region      string        `yaml:"region"`
	Language    string        `yaml:"language"`
	Origin      string        `yaml:"origin"`
	UserAgent   string        `yaml:"user_agent"`
	MaxPages    int           `env:"FEED_MAX_PAGES"  yaml:"max_pages"`
	PageDelay   time.Duration `env:"FEED_PAGE_DELAY" yaml:"page_delay"`
	Timeout     time.Duration `env:"FEED_TIMEOUT"    yaml:"timeout"`
	MaxBodySize int           `yaml:"max_body_size"`
}

// ExportConfig tunes CSV export.
type ExportConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// EmailConfig tunes the email-capture submit route.
type EmailConfig struct {
	MaxSubmissions int           `yaml:"max_submissions"`
	Window         time.Duration `yaml:"window"`
}

// PingerConfig configures the webhook pinger.
type PingerConfig struct {
	Schedule  string        `env:"PINGER_SCHEDULE" yaml:"schedule"`
	Targets   []string      `env:"PINGER_TARGETS"  yaml:"targets"`
	Method    string        `yaml:"method"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// DefaultConfig returns the production defaults for the flash-sale feed.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:            "flashsale-scraper",
			Version:         "0.1.0",
			Port:            3000,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "flashsale",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Logging: logger.Config{Level: logger.DefaultLevel},
		Feed: FeedConfig{
			BaseURL:     "https://acs-m.daraz.pk/h5/mtop.relationrecommend.lazadarecommend.recommend/1.0/",
			API:         "mtop.relationrecommend.LazadaRecommend.recommend",
			APIVersion:  "1.0",
			JSVersion:   "2.7.2",
			AppKey:      "24677475",
			AppID:       "41711",
			Region:      "PK",
			Language:    "en",
			Origin:      "https://pages.daraz.pk",
			UserAgent:   defaultUserAgent,
			MaxPages:    20,
			PageDelay:   1500 * time.Millisecond,
			Timeout:     20 * time.Second,
			MaxBodySize: 50 << 20,
		},
		Export: ExportConfig{CacheSize: 32},
		Email: EmailConfig{
			MaxSubmissions: 10,
			Window:         time.Minute,
		},
		Pinger: PingerConfig{
			Schedule:  "@every 1m",
			Method:    "GET",
			Timeout:   10 * time.Second,
			UserAgent: defaultUserAgent,
		},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("service port must be between 1 and 65535")
	}
	if c.Service.WriteTimeout < 0 || c.Service.ReadTimeout < 0 {
		return fmt.Errorf("service timeouts cannot be negative")
	}
	if err := c.Feed.Validate(); err != nil {
		return err
	}
	if c.Export.CacheSize <= 0 {
		return fmt.Errorf("export cache size must be positive")
	}
	if c.Email.MaxSubmissions <= 0 {
		return fmt.Errorf("email max submissions must be positive")
	}
	if c.Email.Window <= 0 {
		return fmt.Errorf("email window must be positive")
	}
	return c.Pinger.Validate()
}

// Validate checks the feed endpoint settings.
func (f *FeedConfig) Validate() error {
	if f.BaseURL == "" {
		return fmt.Errorf("feed base URL cannot be empty")
	}
	parsedURL, err := url.Parse(f.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid feed base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("feed base URL must include a host")
	}
	if f.AppKey == "" {
		return fmt.Errorf("feed app key cannot be empty")
	}
	if f.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if f.PageDelay < 0 {
		return fmt.Errorf("page delay cannot be negative")
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("feed timeout must be positive")
	}
	if f.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// Validate checks the pinger schedule inputs. The cron expression itself is
// parsed when the pinger starts.
func (p *PingerConfig) Validate() error {
	if strings.TrimSpace(p.Schedule) == "" {
		return fmt.Errorf("pinger schedule cannot be empty")
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("pinger timeout must be positive")
	}
	for _, target := range p.Targets {
		parsed, err := url.Parse(target)
		if err != nil {
			return fmt.Errorf("invalid pinger target %q: %w", target, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("pinger target %q must be http or https", target)
		}
	}
	return nil
}
