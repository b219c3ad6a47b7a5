// Package csvfile reads the order dataset from a CSV file or an HTTP(S) URL.
package csvfile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"ecomdash/internal/core"
	"ecomdash/internal/dataset"
)

// DefaultURL is the public export the dashboard was built around.
const DefaultURL = "https://raw.githubusercontent.com/ihsanuramdan/dicoding/refs/heads/main/all_data.csv"

type Source struct {
	location string
	client   *http.Client
}

var _ dataset.OrderReader = (*Source)(nil)

// New creates a source for location, which is either an http(s) URL or a
// path on the local filesystem. timeout bounds a single remote fetch.
func New(location string, timeout time.Duration) *Source {
	return &Source{
		location: strings.TrimSpace(location),
		client:   newHTTPClient(timeout),
	}
}

// Location returns the configured URL or path.
func (s *Source) Location() string {
	return s.location
}

// ReadOrders fetches and parses the whole dataset.
func (s *Source) ReadOrders(ctx context.Context) ([]core.Order, error) {
	start := time.Now()
	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	orders, err := dataset.ParseCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.location, err)
	}

	slog.InfoContext(ctx, "Dataset loaded",
		"location", s.location,
		"rows", len(orders),
		"duration_ms", time.Since(start).Milliseconds())
	return orders, nil
}

func (s *Source) open(ctx context.Context) (io.ReadCloser, error) {
	if !isRemote(s.location) {
		f, err := os.Open(s.location)
		if err != nil {
			return nil, fmt.Errorf("open dataset file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("build dataset request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch dataset: unexpected status %d from %s", resp.StatusCode, s.location)
	}
	return resp.Body, nil
}

func isRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// newHTTPClient creates an HTTP client with connection pooling and
// timeouts suited to one large download at startup.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
