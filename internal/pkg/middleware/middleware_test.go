package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filestream/internal/pkg/logger"
)

func newTestLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Config{Level: "debug", Format: "json", Output: buf})
}

func TestRequestID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := r.Context().Value(logger.RequestIDKey); reqID == nil || reqID == "" {
			t.Error("expected request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates new request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		reqID := rec.Header().Get(RequestIDHeader)
		if reqID == "" {
			t.Error("expected X-Request-ID header to be set")
		}
		if len(reqID) != 32 {
			t.Errorf("expected request ID length 32, got %d", len(reqID))
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, "existing-id-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "existing-id-123" {
			t.Errorf("request ID = %q, want existing-id-123", got)
		}
	})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	handler := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	out := buf.String()
	for _, want := range []string{"request completed", "GET", "/test", "200", "duration_ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in log, got: %s", want, out)
		}
	}
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)

	handler := Recovery(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("expected panic to be logged")
	}
}

func TestTimeout(t *testing.T) {
	wrote := make(chan struct{})
	handler := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			// Keep writing past the deadline; the guard must swallow
			// this so it cannot corrupt the 504 response.
			time.Sleep(30 * time.Millisecond)
			_, _ = w.Write([]byte("late output"))
			close(wrote)
		case <-time.After(time.Second):
			t.Error("handler context was not canceled")
		}
	}))

	req := httptest.NewRequest("GET", "/slow", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	<-wrote

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "TIMEOUT") {
		t.Errorf("body = %q, want timeout envelope", body)
	}
	if strings.Contains(body, "late output") {
		t.Error("handler output leaked into the timeout response")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(5, 2)
	base := time.Now()
	rl.now = func() time.Time { return base }

	for i := 0; i < 5; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}

	// Beyond the per-minute limit the burst allowance is already spent
	// because all requests fall inside the burst window.
	if rl.Allow("1.2.3.4") {
		t.Error("expected request over limit to be rejected")
	}

	// Other clients are unaffected.
	if !rl.Allow("5.6.7.8") {
		t.Error("unrelated client should be allowed")
	}

	// A minute later the window has slid past the old requests.
	rl.now = func() time.Time { return base.Add(61 * time.Second) }
	if !rl.Allow("1.2.3.4") {
		t.Error("expected request after window to be allowed")
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(3, 2)
	base := time.Now()

	// Fill the per-minute budget early in the window.
	rl.now = func() time.Time { return base }
	for i := 0; i < 3; i++ {
		rl.Allow("ip")
	}

	// 30s later: over the minute limit, but only one request in the
	// burst window, so it passes.
	rl.now = func() time.Time { return base.Add(30 * time.Second) }
	if !rl.Allow("ip") {
		t.Error("expected burst allowance to admit the request")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf)
	rl := NewRateLimiter(1, 0)

	handler := RateLimit(rl, log, "/status")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/dl/f_1", nil)
	req.RemoteAddr = "9.9.9.9:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Error("expected Retry-After header")
	}

	// Status endpoint is exempt no matter the budget.
	statusReq := httptest.NewRequest("GET", "/status", nil)
	statusReq.RemoteAddr = "9.9.9.9:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, statusReq)
	if rec.Code != http.StatusOK {
		t.Errorf("status endpoint status = %d, want 200", rec.Code)
	}
}
