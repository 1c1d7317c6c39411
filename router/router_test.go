// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"

	"github.com/danielhkuo/publicpulse/models"
	"github.com/danielhkuo/publicpulse/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig(t)
	logger := zaptest.NewLogger(t)

	svc, err := NewServices(conn, afero.NewMemMapFs(), cfg, logger)
	if err != nil {
		t.Fatalf("NewServices failed: %v", err)
	}
	return NewRouter(svc, cfg, logger)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var body map[string]string
	testutil.AssertJSON(t, w, &body)
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", body["status"])
	}
}

func TestRootEndpoint(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var body map[string]string
	testutil.AssertJSON(t, w, &body)
	if expected := "Welcome to PublicPulse API"; body["message"] != expected {
		t.Errorf("Expected message %q, got %q", expected, body["message"])
	}
}

func TestRouteExistence(t *testing.T) {
	r := newTestRouter(t)

	// Every route must reach a handler; 400/404 from the handler is fine,
	// a router-level 404 (plain text) or 405 is not.
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},

		{"POST", "/datasets/upload"},
		{"GET", "/datasets"},
		{"GET", "/datasets/some-id"},

		{"GET", "/questions/blocks"},
		{"GET", "/questions/blocks/export"},

		{"POST", "/selections"},
		{"DELETE", "/selections"},
		{"GET", "/selections"},
		{"GET", "/selections/all"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s not registered", tc.method, tc.path)
			}
			if w.Code == http.StatusNotFound && w.Header().Get("Content-Type") != "application/json; charset=utf-8" {
				t.Errorf("Route %s %s not registered", tc.method, tc.path)
			}
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/polls", nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDatasetNotFoundIsJSON(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/datasets/missing", nil))

	testutil.AssertStatus(t, w, http.StatusNotFound)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Error != models.ErrCodeNotFound {
		t.Errorf("Expected error %q, got %q", models.ErrCodeNotFound, resp.Error)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/selections", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusNoContent)
	// test config allows any origin, without credentials
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard origin, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Errorf("Expected no credentials header, got %q", got)
	}
}

func TestUploadBodyLimit(t *testing.T) {
	r := newTestRouter(t)

	// test config allows 1 MiB files
	big := make([]byte, 3<<19)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, testutil.MakeUploadRequest(t, "/datasets/upload", "big.csv", big))

	testutil.AssertStatus(t, w, http.StatusRequestEntityTooLarge)
}
