package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{"defaults to now", url.Values{}, 2026, 10},
		{"explicit", url.Values{"year": {"2025"}, "month": {"2"}}, 2025, 2},
		{"month out of range", url.Values{"year": {"2025"}, "month": {"13"}}, 2025, 10},
		{"zero month", url.Values{"month": {"0"}}, 2026, 10},
		{"garbage ignored", url.Values{"year": {"abc"}, "month": {"x"}}, 2026, 10},
		{"whitespace trimmed", url.Values{"year": {" 2024 "}, "month": {" 12 "}}, 2024, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMonthParams(tt.query, now)
			if got.Year != tt.wantYear || got.Month != tt.wantMonth {
				t.Errorf("ParseMonthParams() = %d-%d, want %d-%d", got.Year, got.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantJSON    bool
		want        map[string]string
		wantErr     bool
	}{
		{
			name:        "json with numeric amount",
			body:        `{"type":"win","amount":12.5,"sport":"NBA"}`,
			contentType: "application/json",
			wantJSON:    true,
			want:        map[string]string{"type": "win", "amount": "12.5", "sport": "NBA"},
		},
		{
			name:        "form encoded",
			body:        "type=loss&amount=3%2C20&sport=UFC",
			contentType: "application/x-www-form-urlencoded",
			want:        map[string]string{"type": "loss", "amount": "3,20", "sport": "UFC"},
		},
		{
			name:        "markup is stripped",
			body:        `{"sport":"<b>NFL</b>"}`,
			contentType: "application/json",
			wantJSON:    true,
			want:        map[string]string{"sport": "NFL", "type": ""},
		},
		{
			name: "empty body",
			want: map[string]string{"type": ""},
		},
		{
			name:        "broken json",
			body:        `{"type":`,
			contentType: "application/json",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			p := NewRequestBodyParser(req)
			err := p.Parse()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", p.IsJSON(), tt.wantJSON)
			}
			for k, v := range tt.want {
				if got := p.Get(k); got != v {
					t.Errorf("Get(%q) = %q, want %q", k, got, v)
				}
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  NBA  ", "NBA"},
		{"<script>alert(1)</script>12", "12"},
		{"a\x01b\x07c", "abc"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
