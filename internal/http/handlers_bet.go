package http

import (
	"bytes"
	"errors"
	"net/http"
	"sync/atomic"

	"betlog/internal/core"
	"betlog/internal/log"
	"betlog/internal/services"
)

// handleCreateTransaction records a win or loss from the widget form. An
// incomplete submission is a silent no-op: 204 and nothing swapped in.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)
	if resp := ParseFormOrFail(r); resp != nil {
		logger.WarnContext(ctx, "Parse form error", log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		resp.Write(w)
		return
	}

	kind := sanitizeInput(r.Form.Get("type"))
	amount := sanitizeInput(r.Form.Get("amount"))
	sport := sanitizeInput(r.Form.Get("sport"))

	t, ref, err := s.bets.RecordBet(ctx, kind, amount, sport)
	if errors.Is(err, services.ErrIncomplete) {
		atomic.AddInt64(&s.appMetrics.rejected, 1)
		logger.DebugContext(ctx, "Ignoring incomplete submission", "error", err, log.FieldSport, sport)
		NoContent().Write(w)
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save transaction", "error", err,
			log.FieldSport, sport, log.FieldKind, kind, log.FieldOperation, log.OpAppend)
		InternalServerError("Error saving transaction").
			TriggerErrorNotification("Could not save the transaction").
			Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.recorded, 1)
	s.invalidate(t)

	summary, err := s.getSummary(ctx, t.Sport)
	if err != nil {
		logger.ErrorContext(ctx, "Summary error after record", "error", err, log.FieldSport, t.Sport)
		summary = core.Summary{Sport: t.Sport}
	}

	resp := NewHTMXResponse().
		TriggerTransactionCreated(t, s.bets.Location()).
		TriggerFormReset()
	var buf bytes.Buffer
	if s.templates != nil {
		if err := s.templates.ExecuteTemplate(&buf, "total", newTotalView(summary)); err != nil {
			logger.ErrorContext(ctx, "Template execution error", "error", err, "template", "total")
		}
	}
	logger.DebugContext(ctx, "Transaction recorded", log.FieldTransactionID, t.ID, log.FieldExportRef, ref)
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleAPISports(w http.ResponseWriter, r *http.Request) {
	out := make([]sportJSON, 0, len(core.DefaultSports))
	for _, sp := range core.DefaultSports {
		out = append(out, sportJSON{Name: sp.Name, Emoji: sp.Emoji})
	}
	writeJSON(w, http.StatusOK, out)
}

// apiSport reads the sport filter of an /api request. Empty means every
// sport; a name outside the catalogue is rejected.
func apiSport(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := sanitizeInput(r.URL.Query().Get("sport"))
	if raw == "" {
		return "", true
	}
	sp, ok := core.LookupSport(raw)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": core.ErrUnknownSport.Error()})
		return "", false
	}
	return sp.Name, true
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	sport, ok := apiSport(w, r)
	if !ok {
		return
	}
	txs, err := s.bets.Transactions(r.Context(), sport)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "List transactions error", "error", err, log.FieldSport, sport)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	sport, ok := apiSport(w, r)
	if !ok {
		return
	}
	summary, err := s.getSummary(r.Context(), sport)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary error", "error", err, log.FieldSport, sport)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "summary failed"})
		return
	}
	writeJSON(w, http.StatusOK, toSummaryJSON(summary))
}

func (s *Server) handleAPICalendar(w http.ResponseWriter, r *http.Request) {
	sport, ok := apiSport(w, r)
	if !ok {
		return
	}
	params := ParseMonthParams(r.URL.Query(), s.bets.Now())
	cal, err := s.getCalendar(r.Context(), sport, params.Year, params.Month)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Calendar error", "error", err, log.FieldSport, sport)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "calendar failed"})
		return
	}
	writeJSON(w, http.StatusOK, toCalendarJSON(sport, cal))
}

// handleAPICreateTransaction accepts a JSON or form body with type, amount
// and sport.
func (s *Server) handleAPICreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}

	t, ref, err := s.bets.RecordBet(ctx, p.Get("type"), p.Get("amount"), p.Get("sport"))
	if errors.Is(err, services.ErrIncomplete) {
		atomic.AddInt64(&s.appMetrics.rejected, 1)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "Failed to save transaction", "error", err, log.FieldOperation, log.OpAppend)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
		return
	}
	atomic.AddInt64(&s.appMetrics.recorded, 1)
	s.invalidate(t)

	writeJSON(w, http.StatusCreated, struct {
		transactionJSON
		Ref string `json:"ref"`
	}{toTransactionJSON(t), ref})
}
