// Package http provides HTTP server and handler implementations.
//
// This file holds the builder used by the page and partial handlers to set
// HTMX headers (HX-Trigger, HX-Push-Url) and write placeholder error bodies.

package http

import (
	"encoding/json"
	"html/template"
	"net/http"

	"ecomdash/internal/core"
)

// HX-Trigger event names listened to by web/static/app.js.
const (
	eventRangeChanged = "range:changed"
	eventNotification = "show-notification"
)

// notificationDuration is how long a toast stays on screen, in milliseconds.
const notificationDuration = 5000

// HTMXResponseBuilder collects headers, HX-Trigger events and a body, then
// writes them in one go.
type HTMXResponseBuilder struct {
	statusCode int
	headers    http.Header
	triggers   map[string]interface{}
	body       []byte
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(http.Header),
		triggers:   make(map[string]interface{}),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds an event to HX-Trigger. A later event with the same name wins.
func (b *HTMXResponseBuilder) Trigger(name string, data interface{}) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerRangeChanged tells the page which range was applied, so the date
// inputs follow a range the server corrected.
func (b *HTMXResponseBuilder) TriggerRangeChanged(r core.DateRange, rows int) *HTMXResponseBuilder {
	return b.Trigger(eventRangeChanged, map[string]interface{}{
		"start": r.Start.String(),
		"end":   r.End.String(),
		"rows":  rows,
	})
}

// TriggerWarningNotification shows message as a warning toast.
func (b *HTMXResponseBuilder) TriggerWarningNotification(message string) *HTMXResponseBuilder {
	return b.Trigger(eventNotification, map[string]interface{}{
		"type":     "warning",
		"message":  message,
		"duration": notificationDuration,
	})
}

// PushURL sets HX-Push-Url so the browser history follows the applied range.
func (b *HTMXResponseBuilder) PushURL(url string) *HTMXResponseBuilder {
	return b.Header("HX-Push-Url", url)
}

func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets an HTML body and its content type.
func (b *HTMXResponseBuilder) BodyHTML(html []byte) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	b.body = html
	return b
}

// Write sends the built response. Triggers that fail to encode are dropped
// rather than failing the response.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, values := range b.headers {
		w.Header()[name] = values
	}
	if len(b.triggers) > 0 {
		if triggerJSON, err := json.Marshal(b.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// ErrorResponse renders message as the placeholder box the dashboard shows in
// place of content. The message is HTML-escaped.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		Header("Cache-Control", "no-store").
		BodyHTML([]byte(`<div class="placeholder error">` + template.HTMLEscapeString(message) + `</div>`))
}

func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ServiceUnavailableError is returned while no dataset is loaded.
func ServiceUnavailableError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusServiceUnavailable, message).Header("Retry-After", "5")
}

func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// MethodNotAllowedError creates a 405 response listing allowedMethods.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}
