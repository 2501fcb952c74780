package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"receipts/internal/insights"
	"receipts/internal/log"
	"receipts/internal/services"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	}).Write(w, r)
}

// handleReady verifies the data backend answers within a short deadline.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.analytics == nil:
		checks["analytics"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		checks["analytics"] = "ok"
	}

	if s.ready != nil {
		if err := s.ready.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	if s.cacheStats != nil {
		st := s.cacheStats()
		checks["cache"] = map[string]any{"entries": st.Size, "status": "ok"}
	}
	checks["rate_limiter"] = map[string]any{"active_clients": s.rateLimiter.ActiveClients(), "status": "ok"}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w, r)
}

// handleMetrics provides request, cache and security counters in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	requests, meanMicros := s.trace.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", requests)

	fmt.Fprintf(w, "# HELP http_request_duration_mean_microseconds Mean request duration\n")
	fmt.Fprintf(w, "# TYPE http_request_duration_mean_microseconds gauge\n")
	fmt.Fprintf(w, "http_request_duration_mean_microseconds %d\n\n", meanMicros)

	if s.cacheStats != nil {
		st := s.cacheStats()
		fmt.Fprintf(w, "# HELP analytics_cache_hits_total Dashboard cache hits\n")
		fmt.Fprintf(w, "# TYPE analytics_cache_hits_total counter\n")
		fmt.Fprintf(w, "analytics_cache_hits_total %d\n\n", st.Hits)

		fmt.Fprintf(w, "# HELP analytics_cache_misses_total Dashboard cache misses\n")
		fmt.Fprintf(w, "# TYPE analytics_cache_misses_total counter\n")
		fmt.Fprintf(w, "analytics_cache_misses_total %d\n\n", st.Misses)

		fmt.Fprintf(w, "# HELP analytics_cache_entries Current cache entries\n")
		fmt.Fprintf(w, "# TYPE analytics_cache_entries gauge\n")
		fmt.Fprintf(w, "analytics_cache_entries %d\n\n", st.Size)
	}

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.startedAt).Seconds())
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.analytics.Dashboard(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err, "dashboard")
		return
	}
	NewJSONResponse().Body(resp).Write(w, r)
}

// insightsResponse is the dashboard without the per-chart series.
type insightsResponse struct {
	Reference  time.Time       `json:"reference"`
	Stats      *insights.Stats `json:"stats"`
	Highlights []string        `json:"highlights"`
	Cards      []insights.Card `json:"timeframeCards"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	resp, err := s.analytics.Dashboard(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err, "insights")
		return
	}
	highlights := resp.Highlights
	if highlights == nil {
		highlights = []string{}
	}
	NewJSONResponse().Body(insightsResponse{
		Reference:  resp.Reference,
		Stats:      resp.Stats,
		Highlights: highlights,
		Cards:      resp.Cards,
	}).Write(w, r)
}

func (s *Server) handleCategoryDrilldown(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	values := r.URL.Query()
	view, err := s.analytics.CategoryDrilldown(r.Context(), q, ParseCategoryState(values), ParseBool(values.Get("all")))
	if err != nil {
		s.writeServiceError(w, r, err, "category drilldown")
		return
	}
	NewJSONResponse().Body(view).Write(w, r)
}

func (s *Server) handleMerchantDrilldown(w http.ResponseWriter, r *http.Request) {
	q, ok := s.parseQuery(w, r)
	if !ok {
		return
	}
	values := r.URL.Query()
	view, err := s.analytics.MerchantDrilldown(r.Context(), q, ParseMerchantState(values), ParseBool(values.Get("all")))
	if err != nil {
		s.writeServiceError(w, r, err, "merchant drilldown")
		return
	}
	NewJSONResponse().Body(view).Write(w, r)
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	if s.receipts == nil {
		ErrorResponse(http.StatusMethodNotAllowed, "read_only_backend", services.ErrReadOnlyBackend.Error()).Write(w, r)
		return
	}

	raw, err := ReadReceipt(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "too_large", "receipt exceeds the size limit").Write(w, r)
			return
		}
		BadRequestError(err.Error()).Write(w, r)
		return
	}

	id, err := s.receipts.Ingest(r.Context(), raw)
	if err != nil {
		s.writeServiceError(w, r, err, "ingest")
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/receipts/"+id).
		Body(map[string]string{"id": id}).
		Write(w, r)
}

func (s *Server) parseQuery(w http.ResponseWriter, r *http.Request) (services.Query, bool) {
	if s.analytics == nil {
		ServiceUnavailableError("analytics not configured").Write(w, r)
		return services.Query{}, false
	}
	q, err := ParseQuery(r.URL.Query(), s.loc)
	if err != nil {
		BadRequestError(err.Error()).Write(w, r)
		return services.Query{}, false
	}
	return q, true
}

// writeServiceError maps service sentinels onto status codes and logs the rest.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, services.ErrInvalidGranularity):
		BadRequestError(err.Error()).Write(w, r)
	case errors.Is(err, services.ErrReadOnlyBackend):
		ErrorResponse(http.StatusMethodNotAllowed, "read_only_backend", err.Error()).Write(w, r)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailableError("request timed out").Write(w, r)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldError, err.Error())
		InternalServerError("internal error").Write(w, r)
	}
}
