package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"betlog/internal/core"
	"betlog/internal/log"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready != nil {
		if err := s.ready(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	} else {
		checks["store"] = "ok"
	}

	checks["cache"] = map[string]any{
		"summary_entries":  s.summaryCache.Size(),
		"calendar_entries": s.calendarCache.Size(),
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}
	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_response_time_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("transactions_recorded_total", "counter", "Transactions recorded since start", atomic.LoadInt64(&s.appMetrics.recorded))
	metric("transactions_rejected_total", "counter", "Incomplete submissions ignored", atomic.LoadInt64(&s.appMetrics.rejected))
	metric("cache_hits_total", "counter", "Total cache hits", atomic.LoadInt64(&s.appMetrics.cacheHits))
	metric("cache_misses_total", "counter", "Total cache misses", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", rateLimitMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("blocked_requests_total", "counter", "Requests blocked by method", securityMetrics.BlockedRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))

	if s.stats == nil {
		return
	}
	counts, err := s.stats(r.Context())
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Store stats unavailable", "error", err)
		return
	}
	if counts == nil {
		return
	}
	sports := make([]string, 0, len(counts))
	for sport := range counts {
		sports = append(sports, sport)
	}
	sort.Strings(sports)
	fmt.Fprintf(w, "# HELP stored_transactions Transactions in the store per sport\n# TYPE stored_transactions gauge\n")
	for _, sport := range sports {
		fmt.Fprintf(w, "stored_transactions{sport=%q} %d\n", sport, counts[sport])
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	if s.templates == nil {
		logger.ErrorContext(ctx, "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldComponent, log.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	sport := s.bets.SelectedSport(ctx, sanitizeInput(r.URL.Query().Get("sport")))
	summary, err := s.getSummary(ctx, sport)
	if err != nil {
		logger.ErrorContext(ctx, "Summary error", "error", err, log.FieldSport, sport)
		summary = core.Summarize(sport, nil)
	}
	now := s.bets.Now()

	data := indexView{
		Sports: sportMenu(sport),
		Total:  newTotalView(summary),
		Year:   now.Year(),
		Month:  int(now.Month()),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		logger.ErrorContext(ctx, "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// handleTotal renders the running total partial for a sport.
func (s *Server) handleTotal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sport := s.bets.SelectedSport(ctx, sanitizeInput(r.URL.Query().Get("sport")))
	summary, err := s.getSummary(ctx, sport)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Summary error", "error", err, log.FieldSport, sport)
		InternalServerError("Error loading total").Write(w)
		return
	}
	s.renderPartial(w, r, "total", newTotalView(summary))
}

// handleCalendar renders the month grid partial.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sport := s.bets.SelectedSport(ctx, sanitizeInput(r.URL.Query().Get("sport")))
	params := ParseMonthParams(r.URL.Query(), s.bets.Now())

	cal, err := s.getCalendar(ctx, sport, params.Year, params.Month)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Calendar error", "error", err,
			log.FieldSport, sport, log.FieldYear, params.Year, log.FieldMonth, params.Month)
		InternalServerError("Error loading calendar").Write(w)
		return
	}
	s.renderPartial(w, r, "calendar", newCalendarView(sport, cal))
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error",
			"error", err, "template", name, log.FieldOperation, log.OpRender)
	}
}

func summaryKey(sport string) string {
	return "summary|" + sport
}

func calendarKey(sport string, year, month int) string {
	return "calendar|" + sport + "|" + strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) getSummary(ctx context.Context, sport string) (core.Summary, error) {
	key := summaryKey(sport)
	if data, found := s.summaryCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return data, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	gen := s.generation()
	data, err := s.bets.Summary(ctx, sport)
	if err != nil {
		return core.Summary{}, fmt.Errorf("summary (sport=%q): %w", sport, err)
	}
	s.storeIfCurrent(gen, func() { s.summaryCache.Set(key, data) })
	return data, nil
}

func (s *Server) getCalendar(ctx context.Context, sport string, year, month int) (core.CalendarMonth, error) {
	key := calendarKey(sport, year, month)
	if data, found := s.calendarCache.Get(key); found {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return data, nil
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	gen := s.generation()
	data, err := s.bets.Calendar(ctx, sport, year, month)
	if err != nil {
		return core.CalendarMonth{}, fmt.Errorf("calendar (sport=%q, year=%d, month=%d): %w", sport, year, month, err)
	}
	s.storeIfCurrent(gen, func() { s.calendarCache.Set(key, data) })
	return data, nil
}

// invalidate drops the cached views a new transaction changes: its sport's
// and the all-sports summary, and the calendars of its month.
func (s *Server) invalidate(t core.Transaction) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++

	s.summaryCache.Delete(summaryKey(t.Sport))
	s.summaryCache.Delete(summaryKey(""))

	d := t.Date.In(s.bets.Location())
	own := calendarKey(t.Sport, d.Year(), int(d.Month()))
	all := calendarKey("", d.Year(), int(d.Month()))
	s.calendarCache.DeleteMatching(func(key string) bool {
		return key == own || key == all
	})
}

func (s *Server) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// storeIfCurrent runs set unless an invalidation happened since gen was read.
func (s *Server) storeIfCurrent(gen uint64, set func()) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGen == gen {
		set()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
