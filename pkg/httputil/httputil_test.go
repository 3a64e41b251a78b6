package httputil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/schemahub/pkg/errors"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeNotFound, "no such package"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidPath, "bad version"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidInput, "bad slug"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeStorage, "disk gone"), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", errors.New(errors.ErrCodeNotFound, "x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		if got := StatusOf(tt.err); got != tt.want {
			t.Errorf("StatusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs)
	req := httptest.NewRequest(http.MethodGet, "/packages/acme/weather", nil)

	rec := httptest.NewRecorder()
	WriteError(rec, req, logger, errors.New(errors.ErrCodeNotFound, "package acme/weather is not in the catalog"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != errors.ErrCodeNotFound || body.Message != "package acme/weather is not in the catalog" {
		t.Errorf("body = %+v", body)
	}
	if logs.Len() != 0 {
		t.Errorf("client errors should not be logged: %s", logs.String())
	}

	rec = httptest.NewRecorder()
	WriteError(rec, req, logger, errors.New(errors.ErrCodeStorage, "secret bucket path"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "secret bucket path") {
		t.Errorf("internal error not logged: %q", logs.String())
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"slug": "acme/weather"})
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "\n  \"slug\"") {
		t.Errorf("body not indented: %q", rec.Body.String())
	}
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := log.NewWithOptions(&logs, log.Options{Level: log.DebugLevel})

	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog.json", nil))
	out := logs.String()
	for _, want := range []string{"DEBU", "path=/catalog.json", "status=200", "bytes=2", "req="} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}

	logs.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	if !strings.Contains(logs.String(), "WARN") || !strings.Contains(logs.String(), "status=502") {
		t.Errorf("server error log = %q", logs.String())
	}
}
