package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingCredential is the fatal pre-fetch configuration error: a
// live fetch is required but no ledger credential is present.
var ErrMissingCredential = errors.New("missing SPLITWISE_API_KEY")

type Config struct {
	// Ledger API
	SplitwiseAPIKey   string
	SplitwiseGroupID  int64
	PageSize          int
	MaxRecords        int
	RequestsPerMinute int
	FetchTimeout      time.Duration
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	RetryMaxDelay     time.Duration

	// Snapshot tiers
	OutputDir      string
	GDriveFolderID string

	// Statistics
	TopCategories int

	// Report
	DashboardTitle string

	// Email
	GmailAddress     string
	GmailAppPassword string
	RecipientEmail   string
	SMTPHost         string
	SMTPPort         int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Run archive
	SQLiteDBPath string

	// Worker
	RunInterval time.Duration
}

func Load() *Config {
	return &Config{
		SplitwiseAPIKey:   getEnv("SPLITWISE_API_KEY", ""),
		SplitwiseGroupID:  getEnvInt64("SPLITWISE_GROUP_ID", 0),
		PageSize:          getEnvInt("FETCH_PAGE_SIZE", 100),
		MaxRecords:        getEnvInt("FETCH_MAX_RECORDS", 0),
		RequestsPerMinute: getEnvInt("FETCH_REQUESTS_PER_MINUTE", 60),
		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 60*time.Second),
		RetryMaxAttempts:  getEnvInt("FETCH_RETRY_ATTEMPTS", 3),
		RetryInitialDelay: getEnvDuration("FETCH_RETRY_DELAY", 1*time.Second),
		RetryMaxDelay:     getEnvDuration("FETCH_RETRY_MAX_DELAY", 30*time.Second),

		OutputDir:      getEnv("OUTPUT_DIR", "./output"),
		GDriveFolderID: getEnv("GDRIVE_FOLDER_ID", ""),

		TopCategories: getEnvInt("TOP_CATEGORIES", 5),

		DashboardTitle: getEnv("DASHBOARD_TITLE", "Expense Dashboard"),

		GmailAddress:     getEnv("GMAIL_ADDRESS", ""),
		GmailAppPassword: getEnv("GMAIL_APP_PASSWORD", ""),
		RecipientEmail:   getEnv("RECIPIENT_EMAIL", ""),
		SMTPHost:         getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:         getEnvInt("SMTP_PORT", 465),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "reports"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledgerdash.db"),

		RunInterval: getEnvDuration("RUN_INTERVAL", 24*time.Hour),
	}
}

// RequireAPIKey returns ErrMissingCredential when no ledger credential
// is configured. Callers check it before any live fetch.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.SplitwiseAPIKey) == "" {
		return ErrMissingCredential
	}
	return nil
}

// EmailConfigured reports whether the email sink can be wired.
func (c *Config) EmailConfigured() bool {
	return c.GmailAddress != "" && c.GmailAppPassword != "" && c.RecipientEmail != ""
}

// DriveConfigured reports whether the remote snapshot tier can be wired.
func (c *Config) DriveConfigured() bool {
	return c.GDriveFolderID != ""
}

// AMQPConfigured reports whether the report event publisher can be wired.
func (c *Config) AMQPConfigured() bool {
	return c.AMQPURL != ""
}

// Recipients splits the comma-separated recipient list.
func (c *Config) Recipients() []string {
	if c.RecipientEmail == "" {
		return nil
	}
	parts := strings.Split(c.RecipientEmail, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.PageSize < 1 || c.PageSize > 500 {
		errs = append(errs, fmt.Sprintf("invalid fetch page size %d: must be between 1 and 500", c.PageSize))
	}
	if c.MaxRecords < 0 {
		errs = append(errs, fmt.Sprintf("invalid fetch max records %d: must not be negative", c.MaxRecords))
	}
	if c.RetryMaxAttempts < 1 || c.RetryMaxAttempts > 10 {
		errs = append(errs, fmt.Sprintf("invalid retry attempts %d: must be between 1 and 10", c.RetryMaxAttempts))
	}
	if c.RetryInitialDelay < 0 || c.RetryMaxDelay < 0 {
		errs = append(errs, "retry delays must not be negative")
	}
	if c.TopCategories < 1 || c.TopCategories > 50 {
		errs = append(errs, fmt.Sprintf("invalid top categories %d: must be between 1 and 50", c.TopCategories))
	}
	if c.OutputDir == "" {
		errs = append(errs, "output directory cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.EmailConfigured() {
		if c.SMTPHost == "" {
			errs = append(errs, "SMTP host cannot be empty when email is configured")
		}
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			errs = append(errs, fmt.Sprintf("invalid SMTP port %d", c.SMTPPort))
		}
		if len(c.Recipients()) == 0 {
			errs = append(errs, "recipient email list is empty")
		}
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.RunInterval < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid run interval %v: must be at least 1 minute", c.RunInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
