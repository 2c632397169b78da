package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoggingPreservesResponse(t *testing.T) {
	handler := Logging(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status 418 got %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestStatusRecorderDefaultsToOKOnWrite(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}

	if _, err := rec.Write([]byte("ok")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if rec.status != http.StatusOK {
		t.Fatalf("expected implicit 200 got %d", rec.status)
	}

	explicit := &statusRecorder{ResponseWriter: httptest.NewRecorder()}
	explicit.WriteHeader(http.StatusNoContent)
	if explicit.status != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", explicit.status)
	}
}
