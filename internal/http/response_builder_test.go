package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"betlog/internal/core"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyHTML("<p>ok</p>").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "<p>ok</p>" {
		t.Errorf("Body = %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHTMXResponseBuilder_TransactionCreated(t *testing.T) {
	w := httptest.NewRecorder()
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 23:30 UTC on Oct 31 is already November in Rome.
	tx := core.Transaction{ID: 42, Sport: "NFL", Kind: core.Win, Amount: core.Money{Cents: 100},
		Date: time.Date(2026, 10, 31, 23, 30, 0, 0, time.UTC)}

	NewHTMXResponse().
		TriggerTransactionCreated(tx, rome).
		TriggerFormReset().
		TriggerSuccessNotification("Saved").
		Write(w)

	var triggers map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers); err != nil {
		t.Fatalf("HX-Trigger not JSON: %v", err)
	}
	for _, name := range []string{"transaction:created", "form:reset", "show-notification"} {
		if _, ok := triggers[name]; !ok {
			t.Errorf("HX-Trigger missing %q", name)
		}
	}
	created := string(triggers["transaction:created"])
	for _, part := range []string{`"sport":"NFL"`, `"year":2026`, `"month":11`, `"id":42`} {
		if !strings.Contains(created, part) {
			t.Errorf("transaction:created missing %s: %s", part, created)
		}
	}
	if !strings.Contains(string(triggers["show-notification"]), `"type":"success"`) {
		t.Errorf("notification = %s", triggers["show-notification"])
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want value", got)
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger should not be set without triggers")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *HTMXResponseBuilder
		wantCode int
		wantBody string
	}{
		{"bad request", BadRequestError("bad <input>"), http.StatusBadRequest, "bad &lt;input&gt;"},
		{"internal", InternalServerError("boom"), http.StatusInternalServerError, `<div class="error">boom</div>`},
		{"no content", NoContent(), http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantBody == "" && w.Body.Len() != 0 {
				t.Errorf("body = %q, want empty", w.Body.String())
			}
			if tt.wantBody != "" && !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}
