package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cyclecount/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func TestSupervisorAuth(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
	}{
		{
			name:       "create assignment without token",
			method:     http.MethodPost,
			path:       "/api/v1/assignments",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "create assignment with token",
			method:     http.MethodPost,
			path:       "/api/v1/assignments",
			token:      "secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "create assignment with wrong token",
			method:     http.MethodPost,
			path:       "/api/v1/assignments",
			token:      "wrong",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "delete assignment without token",
			method:     http.MethodDelete,
			path:       "/api/v1/assignments/id/68b0a1b2c3d4e5f601234567",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "read assignments needs no token",
			method:     http.MethodGet,
			path:       "/api/v1/assignments",
			wantStatus: http.StatusOK,
		},
		{
			name:       "import without token",
			method:     http.MethodPost,
			path:       "/api/v1/inventory/import",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "sheet listing without token",
			method:     http.MethodPost,
			path:       "/api/v1/inventory/sheets",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "mapping update without token",
			method:     http.MethodPut,
			path:       "/api/v1/inventory/mapping",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "mapping read needs no token",
			method:     http.MethodGet,
			path:       "/api/v1/inventory/mapping",
			wantStatus: http.StatusOK,
		},
		{
			name:       "counts never need the token",
			method:     http.MethodPost,
			path:       "/api/v1/counts",
			wantStatus: http.StatusOK,
		},
	}

	handler := SupervisorAuth("secret", testLogger())(okHandler())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set(SupervisorTokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSupervisorAuth_NoTokenConfigured(t *testing.T) {
	handler := SupervisorAuth("", testLogger())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("supervisor route without a configured token: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// An empty presented header must not match an empty configured token.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/assignments", nil)
	req.Header.Set(SupervisorTokenHeader, "")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("empty header against empty token: status = %d, want %d", rec.Code, http.StatusForbidden)
	}

	// Counter routes stay open either way.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/counts", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("count route: status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestCounterRateLimiter_Allow(t *testing.T) {
	limiter := NewCounterRateLimiter(3, time.Minute, DefaultCounterExtractor, testLogger())
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Allow("Carlos") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("Carlos") {
		t.Error("request over the limit should be denied")
	}

	// Another counter has their own budget.
	if !limiter.Allow("Karen") {
		t.Error("a different counter should not share the limit")
	}

	// Anonymous requests are never limited.
	for i := 0; i < 10; i++ {
		if !limiter.Allow("") {
			t.Fatal("requests without an identity should not be limited")
		}
	}
}

func TestCounterRateLimit_Middleware(t *testing.T) {
	limiter := NewCounterRateLimiter(1, time.Minute, DefaultCounterExtractor, testLogger())
	defer limiter.Stop()

	handler := CounterRateLimit(limiter)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", nil)
	req.Header.Set("X-Counter-Name", "Carlos")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("429 response should carry Retry-After")
	}
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "Idempotency-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"call":%d}`, calls)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", nil)
	req.Header.Set("Idempotency-Key", "scan-gun-double-fire")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)

	if calls != 1 {
		t.Errorf("handler ran %d times, want 1", calls)
	}
	if second.Code != http.StatusCreated {
		t.Errorf("replayed status = %d, want 201", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Errorf("replayed body %q differs from original %q", second.Body.String(), first.Body.String())
	}
}

func TestIdempotency_DoesNotCacheFailures(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "Idempotency-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", nil)
	req.Header.Set("Idempotency-Key", "retry-after-error")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("first status = %d, want 500", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("retry status = %d, want 201; failures must not be replayed", rec.Code)
	}
	if calls != 2 {
		t.Errorf("handler ran %d times, want 2", calls)
	}
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Stop()

	calls := 0
	handler := Idempotency(store, "Idempotency-Key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/counts", nil)
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	if calls != 2 {
		t.Errorf("handler ran %d times, want 2 without a key", calls)
	}
}

func TestMaxRequestSize(t *testing.T) {
	handler := MaxRequestSize(10, 100, "/api/v1/inventory")(okHandler())

	body := func(n int) *strings.Reader {
		return strings.NewReader(strings.Repeat("x", n))
	}

	small := httptest.NewRequest(http.MethodPost, "/api/v1/counts", body(5))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, small)
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", rec.Code)
	}

	big := httptest.NewRequest(http.MethodPost, "/api/v1/counts", body(20))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", rec.Code)
	}

	// The import surface gets the larger cap.
	importReq := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/import", body(20))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, importReq)
	if rec.Code != http.StatusOK {
		t.Errorf("import body status = %d, want 200 under the import cap", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/assignments", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 after panic", rec.Code)
	}
}
