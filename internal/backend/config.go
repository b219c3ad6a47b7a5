package backend

import (
	"errors"
	"fmt"
	"strings"

	"ecomdash/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid DATA_BACKEND %q (want one of %s)", appConfig.DataBackend, typeList(Types()))
	}

	return Config{
		Type: backendType,

		DatasetURL:     appConfig.DatasetURL,
		DatasetTimeout: appConfig.DatasetTimeout,

		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}, nil
}

// ForImport returns a copy of c reading from source. The SQLite store is the
// import target, so it cannot be a source.
func (c Config) ForImport(source BackendType) (Config, error) {
	if !source.Importable() {
		return Config{}, fmt.Errorf("invalid import source %q (want one of %s)", source, typeList(ImportSources()))
	}
	c.Type = source
	return c, c.Validate()
}

// Validate reports every setting the selected backend is missing.
func (c Config) Validate() error {
	var errs []error

	switch c.Type {
	case CSVBackend:
		if strings.TrimSpace(c.DatasetURL) == "" {
			errs = append(errs, errors.New("dataset URL is required for csv backend"))
		}
		if c.DatasetTimeout < 0 {
			errs = append(errs, errors.New("dataset timeout cannot be negative"))
		}

	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			errs = append(errs, errors.New("SQLite database path is required for sqlite backend"))
		}

	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, errors.New("Google Spreadsheet ID is required for sheets backend"))
		}
		if c.GoogleSheetName == "" {
			errs = append(errs, errors.New("Google Sheet name is required for sheets backend"))
		}
		// Credentials may come from GOOGLE_APPLICATION_CREDENTIALS, checked at dial time.

	default:
		errs = append(errs, fmt.Errorf("invalid backend type: %q", c.Type))
	}

	return errors.Join(errs...)
}

// Types returns every backend the server can read orders from.
func Types() []BackendType {
	return []BackendType{CSVBackend, SQLiteBackend, SheetsBackend}
}

// ImportSources returns the backends ecomdash-import can copy into SQLite.
func ImportSources() []BackendType {
	return []BackendType{CSVBackend, SheetsBackend}
}

func typeList(types []BackendType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, ", ")
}
