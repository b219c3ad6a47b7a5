package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ecomdash/internal/dataset/csvfile"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string

	// CSV dataset
	DatasetURL      string
	DatasetTimeout  time.Duration
	RefreshInterval time.Duration

	// Database
	SQLiteDBPath string
	SnapshotKeep int

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Dashboard
	ChartRateLimit int
	CurrencyCode   string
}

func Load() *Config {
	cfg := &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: getEnv("DATA_BACKEND", "csv"),

		DatasetURL:      getEnv("DATASET_URL", csvfile.DefaultURL),
		DatasetTimeout:  getEnvDuration("DATASET_TIMEOUT", 60*time.Second),
		RefreshInterval: getEnvDuration("DATASET_REFRESH_INTERVAL", 0),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ecomdash.db"),
		SnapshotKeep: getEnvInt("SNAPSHOT_KEEP", 5),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ecomdash"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "dataset_reload"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Orders"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ChartRateLimit: getEnvInt("CHART_RATE_LIMIT", 120),
		CurrencyCode:   strings.ToUpper(getEnv("CURRENCY_CODE", "BRL")),
	}

	return cfg
}

// AMQPEnabled reports whether reload notifications are configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	// Validate data backend
	validBackends := []string{"csv", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "csv" {
		if strings.TrimSpace(c.DatasetURL) == "" {
			errors = append(errors, "dataset URL cannot be empty when using csv backend")
		} else if u, err := url.Parse(c.DatasetURL); err == nil && u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" && len(u.Scheme) > 1 {
			// single-letter schemes are Windows drive letters
			errors = append(errors, fmt.Sprintf("invalid dataset URL scheme '%s': must be 'http', 'https' or a file path", u.Scheme))
		}
	}

	if c.DatasetTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid dataset timeout %v: must be at least 1 second", c.DatasetTimeout))
	} else if c.DatasetTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid dataset timeout %v: must be at most 10 minutes", c.DatasetTimeout))
	}

	if c.RefreshInterval < 0 {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must not be negative", c.RefreshInterval))
	} else if c.RefreshInterval > 0 && c.RefreshInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be 0 or at least 1 minute", c.RefreshInterval))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SnapshotKeep < 1 {
		errors = append(errors, fmt.Sprintf("invalid snapshot keep %d: must be at least 1", c.SnapshotKeep))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if backend is sheets
	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}

		// A missing key falls back to GOOGLE_APPLICATION_CREDENTIALS.
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" && os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_APPLICATION_CREDENTIALS must be provided for sheets backend")
		}
	}

	if c.ChartRateLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid chart rate limit %d: must be at least 1", c.ChartRateLimit))
	} else if c.ChartRateLimit > 10000 {
		errors = append(errors, fmt.Sprintf("invalid chart rate limit %d: must be at most 10000", c.ChartRateLimit))
	}

	if len(c.CurrencyCode) != 3 {
		errors = append(errors, fmt.Sprintf("invalid currency code '%s': must be a 3-letter ISO code", c.CurrencyCode))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
