package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestHealth(t *testing.T) {
	h := &Handler{now: func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }}
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status %q", body["status"])
	}
	if body["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %q", body["timestamp"])
	}
	if body["message"] == "" {
		t.Fatal("expected message")
	}
}

func TestDocsListsEndpoints(t *testing.T) {
	r := chi.NewRouter()
	New().RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/docs", nil))

	var body struct {
		Endpoints []endpointDoc `json:"endpoints"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(body.Endpoints))
	}
	if body.Endpoints[0].Path != "/api/chat" || body.Endpoints[1].Path != "/api/health" {
		t.Fatalf("unexpected endpoints: %+v", body.Endpoints)
	}
}
