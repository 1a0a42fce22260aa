package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestRouter_HealthAndMounts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	healthy := true
	mounted := func(body string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	r := NewRouter(zap.NewNop(), RouterDeps{
		Users:     &UserHandler{},
		Directory: &DirectoryHandler{},
		History:   &HistoryHandler{},
		WS:        mounted("ws"),
		Metrics:   mounted("metrics"),
		Health: func(context.Context) error {
			if healthy {
				return nil
			}
			return errors.New("db down")
		},
	})

	rec := performRequest(r, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	healthy = false
	rec = performRequest(r, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	for path, want := range map[string]string{"/ws": "ws", "/metrics": "metrics"} {
		rec = performRequest(r, http.MethodGet, path, nil)
		if rec.Body.String() != want {
			t.Fatalf("%s: expected %q, got %q", path, want, rec.Body.String())
		}
	}
}

func TestWithCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := WithCORS(next, []string{"https://chat.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	req.Header.Set("Origin", "https://chat.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://chat.example.com" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/search", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS header for foreign origin, got %q", got)
	}
}
