// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating the date-range
// query parameters shared by the page, the partial and the chart endpoints.

package http

import (
	"net/http"
	"net/url"
	"strings"

	"ecomdash/internal/analytics"
	"ecomdash/internal/core"
)

const (
	paramStart = "start"
	paramEnd   = "end"
)

// RangeParams holds the start/end days read from a request. A zero day means
// the parameter was absent or unusable; Invalid names the unusable ones.
type RangeParams struct {
	Start   core.Date
	End     core.Date
	Invalid []string
}

// ParseRangeParams extracts start and end (YYYY-MM-DD) from query or form values.
// Malformed values are reported in Invalid and left zero so the caller falls
// back to the dataset bounds.
func ParseRangeParams(values url.Values) RangeParams {
	var params RangeParams

	if v := sanitizeInput(values.Get(paramStart)); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			params.Start = d
		} else {
			params.Invalid = append(params.Invalid, paramStart)
		}
	}
	if v := sanitizeInput(values.Get(paramEnd)); v != "" {
		if d, err := core.ParseDate(v); err == nil {
			params.End = d
		} else {
			params.Invalid = append(params.Invalid, paramEnd)
		}
	}

	return params
}

// Resolve fills absent ends with the session's bounds.
func (p RangeParams) Resolve(s *analytics.Session) core.DateRange {
	return s.ResolveRange(p.Start, p.End)
}

// RangeQuery encodes a resolved range back into query parameters.
func RangeQuery(r core.DateRange) url.Values {
	q := url.Values{}
	if !r.Start.IsZero() {
		q.Set(paramStart, r.Start.String())
	}
	if !r.End.IsZero() {
		q.Set(paramEnd, r.End.String())
	}
	return q
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers. HEAD is
// accepted too.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}
