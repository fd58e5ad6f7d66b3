package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestRequestID_PreservesExisting(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "my-custom-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "my-custom-id" {
		t.Errorf("expected my-custom-id in context, got %q", seen)
	}
	if rec.Header().Get(RequestIDHeader) != "my-custom-id" {
		t.Errorf("expected my-custom-id in response header, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := RequestIDMiddleware(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	dec := json.NewDecoder(&buf)
	var inside, line map[string]any
	if err := dec.Decode(&inside); err != nil {
		t.Fatalf("decode handler log: %v", err)
	}
	if inside["request_id"] != "rid-1" {
		t.Errorf("handler logger missing request_id: %v", inside)
	}
	if err := dec.Decode(&line); err != nil {
		t.Fatalf("decode request log: %v", err)
	}
	if line["method"] != "GET" || line["path"] != "/brew" || line["status"] != float64(http.StatusTeapot) {
		t.Errorf("unexpected request log %v", line)
	}
	if _, ok := line["latency"]; !ok {
		t.Error("expected latency field")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error != "internal_error" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
