package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ecomdash/internal/analytics"
	"ecomdash/internal/core"
	"ecomdash/internal/log"
)

const loadingMessage = "The dataset is still loading. Please retry in a few seconds."

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.metrics.uptime).String(),
	}
	writeJSON(w, http.StatusOK, health)
}

// handleReady reports ready once templates are parsed and a dataset session is loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if session := s.holder.Load(); session == nil {
		checks["dataset"] = "loading"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["dataset"] = map[string]interface{}{
			"status":      "ok",
			"snapshot_id": session.ID(),
			"rows":        session.Len(),
			"range":       session.Bounds().String(),
			"loaded_at":   session.LoadedAt().Format(time.RFC3339),
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	uptime := time.Since(s.metrics.uptime)

	rows := 0
	if session := s.holder.Load(); session != nil {
		rows = session.Len()
	}

	w.WriteHeader(http.StatusOK)

	// Write metrics in Prometheus-like format
	writeMetric(w, "http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	writeMetric(w, "http_server_errors_total", "counter", "Total number of 5xx responses", traceMetrics.ServerErrors)
	writeMetric(w, "http_average_response_ms", "gauge", "Average response time in milliseconds", traceMetrics.AverageResponseTime.Milliseconds())
	writeMetric(w, "dashboard_renders_total", "counter", "Total dashboard page and partial renders", s.metrics.pageRenders.Load())
	writeMetric(w, "chart_renders_total", "counter", "Total chart renders", s.metrics.chartRenders.Load())
	writeMetric(w, "chart_errors_total", "counter", "Total chart render failures", s.metrics.chartErrors.Load())
	writeMetric(w, "dataset_rows", "gauge", "Rows in the loaded dataset", int64(rows))
	writeMetric(w, "rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	writeMetric(w, "active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	writeMetric(w, "suspicious_requests_total", "counter", "Total suspicious requests detected", s.securityDetector.SuspiciousRequests())
	writeMetric(w, "uptime_seconds", "gauge", "Application uptime in seconds", int64(uptime.Seconds()))
}

func writeMetric(w http.ResponseWriter, name, kind, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %d\n\n", name, value)
}

// handleIndex renders the full dashboard page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("page not found").Write(w)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		log.LogError(r.Context(), "Templates not loaded", fmt.Errorf("nil template set"),
			log.ComponentTemplate, log.OpRender, log.LogFields{log.FieldPath: r.URL.Path})
		InternalServerError("templates not loaded").Write(w)
		return
	}

	data, _, ok := s.dashboard(r)
	if !ok {
		ServiceUnavailableError(loadingMessage).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", indexData{Title: "E-Commerce Dashboard", Dashboard: data}); err != nil {
		log.LogError(r.Context(), "Index template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.LogFields{"template": "index.html"})
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}
	NewHTMXResponse().BodyHTML(buf.Bytes()).Write(w)
}

// handleDashboard renders the dashboard partial swapped in by the date form.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}

	data, rng, ok := s.dashboard(r)
	if !ok {
		ServiceUnavailableError(loadingMessage).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard", data); err != nil {
		log.LogError(r.Context(), "Dashboard template execution failed", err, log.ComponentTemplate, log.OpRender,
			log.LogFields{"template": "dashboard"})
		InternalServerError("Error rendering dashboard").Write(w)
		return
	}

	resp := NewHTMXResponse().
		PushURL("/?"+RangeQuery(rng).Encode()).
		TriggerRangeChanged(rng, data.RowCount)
	if data.Notice != "" {
		resp.TriggerWarningNotification(data.Notice)
	}
	resp.BodyHTML(buf.Bytes()).Write(w)
}

// dashboard filters the current session by the request's range and lays out
// the report. ok is false while no session is loaded.
func (s *Server) dashboard(r *http.Request) (dashboardData, core.DateRange, bool) {
	session := s.holder.Load()
	if session == nil {
		return dashboardData{}, core.DateRange{}, false
	}

	params := ParseRangeParams(r.URL.Query())
	rng := params.Resolve(session)

	start := time.Now()
	view := session.Filter(rng)
	report := analytics.BuildReport(view)
	s.metrics.pageRenders.Add(1)

	logger := log.FromContext(r.Context())
	logger.DebugContext(r.Context(), "Report built",
		log.FieldRange, rng.String(),
		log.FieldRows, report.Rows,
		log.FieldSnapshot, session.ID(),
		log.FieldDuration, time.Since(start).Milliseconds())

	data := buildDashboard(report, session, s.currency)
	if len(params.Invalid) > 0 {
		logger.WarnContext(r.Context(), "Invalid date parameters ignored",
			"params", strings.Join(params.Invalid, ","),
			log.FieldQuery, r.URL.RawQuery,
			log.FieldRange, rng.String())
		data.Notice = fmt.Sprintf("Ignored invalid %s date; showing %s to %s.",
			strings.Join(params.Invalid, " and "), rng.Start, rng.End)
	}
	return data, rng, true
}
