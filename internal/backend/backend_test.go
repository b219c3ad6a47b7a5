package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/config"
	"ecomdash/internal/dataset"
	"ecomdash/internal/log"
	"ecomdash/internal/storage"
)

const sample = "order_id,customer_id,order_approved_at,payment_value\n" +
	"o1,c1,2018-01-01 10:00:00,10\n" +
	"o2,c2,2018-01-02 10:00:00,20\n"

func TestBackendType(t *testing.T) {
	for _, bt := range Types() {
		assert.True(t, bt.IsValid(), bt.String())
	}
	assert.False(t, BackendType("memory").IsValid())
	assert.Equal(t, "csv, sqlite, sheets", typeList(Types()))

	for _, bt := range ImportSources() {
		assert.True(t, bt.Importable(), bt.String())
	}
	assert.False(t, SQLiteBackend.Importable())
}

func TestConfigForImport(t *testing.T) {
	base := Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", DatasetURL: "data.csv"}

	cfg, err := base.ForImport(CSVBackend)
	require.NoError(t, err)
	assert.Equal(t, CSVBackend, cfg.Type)
	assert.Equal(t, SQLiteBackend, base.Type, "receiver must not change")

	_, err = base.ForImport(SQLiteBackend)
	assert.ErrorContains(t, err, "invalid import source")

	_, err = base.ForImport(SheetsBackend)
	assert.ErrorContains(t, err, "Spreadsheet ID")
}

func TestConfigValidateReportsAllProblems(t *testing.T) {
	err := Config{Type: SheetsBackend}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Spreadsheet ID")
	assert.Contains(t, err.Error(), "Sheet name")
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	require.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "memory"})
	require.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:         "sheets",
		DatasetURL:          "https://example.com/all_data.csv",
		DatasetTimeout:      time.Minute,
		SQLiteDBPath:        "./data/ecomdash.db",
		GoogleSpreadsheetID: "sheet-id",
		GoogleSheetName:     "Orders",
	})
	require.NoError(t, err)
	assert.Equal(t, SheetsBackend, cfg.Type)
	assert.Equal(t, "sheet-id", cfg.GoogleSpreadsheetID)
	assert.Equal(t, time.Minute, cfg.DatasetTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"csv ok", Config{Type: CSVBackend, DatasetURL: "data.csv"}, false},
		{"csv without url", Config{Type: CSVBackend}, true},
		{"sqlite ok", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend, GoogleSheetName: "Orders"}, true},
		{"sheets without sheet", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, true},
		{"unknown type", Config{Type: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateCSVBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	result, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{
		Type:           CSVBackend,
		DatasetURL:     path,
		DatasetTimeout: time.Second,
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, result.Close()) }()

	orders, err := result.Reader.ReadOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ecomdash.db")

	orders, err := dataset.ParseCSV(strings.NewReader(sample))
	require.NoError(t, err)

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	snap, err := repo.SaveSnapshot(context.Background(), "test", orders)
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	result, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: dbPath,
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, result.Close()) }()

	reader, ok := result.Reader.(dataset.SnapshotReader)
	require.True(t, ok, "sqlite backend should expose snapshot ids")

	got, err := reader.ReadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
	assert.Len(t, got.Orders, 2)
}

func TestCreateSQLiteBackendEmpty(t *testing.T) {
	result, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "empty.db"),
	})
	require.NoError(t, err)
	defer result.Close()

	_, err = result.Reader.ReadOrders(context.Background())
	assert.True(t, errors.Is(err, storage.ErrNoSnapshot))
}

func TestCreateSheetsBackendWithoutCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{
		Type:                SheetsBackend,
		GoogleSpreadsheetID: "sheet-id",
		GoogleSheetName:     "Orders",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestCreateBackendInvalid(t *testing.T) {
	_, err := NewFactory(log.Discard()).CreateBackend(context.Background(), Config{Type: "memory"})
	require.Error(t, err)
}

func TestBackendResultCloseNil(t *testing.T) {
	var r *BackendResult
	assert.NoError(t, r.Close())
	assert.NoError(t, (&BackendResult{}).Close())
}
