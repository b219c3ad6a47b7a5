package backend

import (
	"context"
	"time"

	"ecomdash/internal/dataset"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the order reader and an optional cleanup function
type BackendResult struct {
	Reader  dataset.OrderReader
	Cleanup CleanupFunc
}

// Close runs the cleanup function if one was set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates order readers based on configuration
type Factory interface {
	// CreateBackend creates a reader for the configured data source
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// CSV specific
	DatasetURL     string
	DatasetTimeout time.Duration

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	CSVBackend    BackendType = "csv"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case CSVBackend, SQLiteBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// Importable reports whether bt can feed a SQLite snapshot.
func (bt BackendType) Importable() bool {
	return bt == CSVBackend || bt == SheetsBackend
}
