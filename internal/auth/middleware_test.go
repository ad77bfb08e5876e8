package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sheetbridge/sheetbridge/internal/auth"
)

func serve(t *testing.T, mode, header, key string, set func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var called bool
	h := auth.APIKeyMiddleware(mode, header, key)(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	if set != nil {
		set(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code == http.StatusOK && !called {
		t.Error("200 without reaching the inner handler")
	}
	if rec.Code != http.StatusOK && called {
		t.Error("inner handler reached despite rejection")
	}
	return rec
}

func TestModeNonePassesThrough(t *testing.T) {
	rec := serve(t, "none", "X-API-Key", "secret", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestEmptyKeyPassesThrough(t *testing.T) {
	rec := serve(t, "apikey", "X-API-Key", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestCorrectKeyPasses(t *testing.T) {
	rec := serve(t, "apikey", "X-API-Key", "secret", func(r *http.Request) {
		r.Header.Set("X-API-Key", "secret")
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestWrongKeyRejected(t *testing.T) {
	rec := serve(t, "apikey", "X-API-Key", "secret", func(r *http.Request) {
		r.Header.Set("X-API-Key", "nope")
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("content type: got %q, want application/json", got)
	}
}

func TestMissingKeyRejected(t *testing.T) {
	rec := serve(t, "apikey", "X-API-Key", "secret", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestCustomHeaderName(t *testing.T) {
	rec := serve(t, "apikey", "X-Bridge-Token", "secret", func(r *http.Request) {
		r.Header.Set("X-Bridge-Token", "secret")
	})
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}
