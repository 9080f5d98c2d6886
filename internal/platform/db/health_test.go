package db

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func runHealth(t *testing.T, p pinger, stats *PoolStats) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health/db", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := healthHandler(p, func() *PoolStats { return stats })(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return rec, body
}

func TestHealthHandler_Healthy(t *testing.T) {
	rec, body := runHealth(t, fakePinger{}, &PoolStats{TotalConns: 2, MaxConns: 10, Healthy: true})
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
	pool, ok := body["pool"].(map[string]interface{})
	if !ok {
		t.Fatal("expected pool object in response")
	}
	if pool["max_conns"] != float64(10) {
		t.Errorf("expected max_conns 10, got %v", pool["max_conns"])
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	rec, body := runHealth(t, fakePinger{err: errors.New("connection refused")}, &PoolStats{TotalConns: 1, Healthy: true})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body["error"] != "connection refused" {
		t.Errorf("expected error message, got %v", body["error"])
	}
	pool := body["pool"].(map[string]interface{})
	if pool["healthy"] != false {
		t.Error("expected pool to be reported unhealthy")
	}
}

func TestNewPool_InvalidURL(t *testing.T) {
	_, err := NewPool(context.Background(), PoolConfig{URL: "://not a url"})
	if err == nil {
		t.Fatal("expected error for invalid database url")
	}
}
