package csvfile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecomdash/internal/dataset"
)

const body = "order_id,customer_id,order_approved_at,payment_value\n" +
	"o2,c2,2018-01-02 10:00:00,20\n" +
	"o1,c1,2018-01-01 10:00:00,10\n"

func TestReadOrdersFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	src := New(srv.URL+"/all_data.csv", 5*time.Second)
	orders, err := src.ReadOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o1", orders[0].OrderID)
}

func TestReadOrdersBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second).ReadOrders(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestReadOrdersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	orders, err := New(path, 0).ReadOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestReadOrdersMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	content := "order_id,customer_id,order_approved_at,payment_value\no1,c1,not-a-date,1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := New(path, 0).ReadOrders(context.Background())
	assert.ErrorIs(t, err, dataset.ErrMalformedTimestamp)
}

func TestReadOrdersMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.csv"), 0).ReadOrders(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
