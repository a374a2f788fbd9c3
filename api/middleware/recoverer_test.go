package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecovererWritesInternalError(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	resp := httptest.NewRecorder()
	Recoverer(nil)(handler).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "boom") {
		t.Fatalf("panic value leaked into response: %s", resp.Body.String())
	}
}

func TestRequestIDEchoesOrMints(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(requestIDHeader)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-1")
	RequestID(nil)(handler).ServeHTTP(httptest.NewRecorder(), req)
	if seen != "req-1" {
		t.Fatalf("expected caller id echoed, got %q", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	RequestID(nil)(handler).ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" || len(seen) > maxRequestIDLength {
		t.Fatalf("expected a minted id, got %q", seen)
	}
}
