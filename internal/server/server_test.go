package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
}

// =============================================================================
// RequestIDMiddleware Tests
// =============================================================================

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	RequestIDMiddleware(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if seen == "" {
		t.Fatal("Expected request ID in context")
	}
	if got := rec.Header().Get("X-Request-ID"); got != seen {
		t.Errorf("X-Request-ID = %q, want %q", got, seen)
	}
}

func TestRequestIDMiddleware_Inbound(t *testing.T) {
	tests := []struct {
		name     string
		inbound  string
		wantKept bool
	}{
		{name: "kept", inbound: "trace-abc-123", wantKept: true},
		{name: "too long", inbound: strings.Repeat("x", 200), wantKept: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("X-Request-ID", tt.inbound)
			rec := httptest.NewRecorder()
			RequestIDMiddleware(handler).ServeHTTP(rec, req)

			kept := rec.Header().Get("X-Request-ID") == tt.inbound
			if kept != tt.wantKept {
				t.Errorf("kept inbound id = %v, want %v", kept, tt.wantKept)
			}
		})
	}
}

func TestRequestIDMiddleware_UniqueIDs(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	wrapped := RequestIDMiddleware(handler)

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		id := rec.Header().Get("X-Request-ID")
		if ids[id] {
			t.Fatalf("Duplicate request ID: %s", id)
		}
		ids[id] = true
	}
}

func TestGetRequestID_NotSet(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}

// =============================================================================
// TimeoutMiddleware Tests
// =============================================================================

func TestTimeoutMiddleware(t *testing.T) {
	var deadline time.Time
	var ok bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	})

	TimeoutMiddleware(time.Second)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !ok {
		t.Fatal("Expected deadline on request context")
	}
	if remaining := time.Until(deadline); remaining > time.Second {
		t.Errorf("deadline %v away, want <= 1s", remaining)
	}
}

func TestTimeoutMiddleware_ContextCancelled(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.WriteHeader(http.StatusGatewayTimeout)
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	rec := httptest.NewRecorder()
	TimeoutMiddleware(10*time.Millisecond)(handler).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusGatewayTimeout)
	}
}

func TestTimeoutMiddleware_MarksTimedOutRequests(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	wrapped := LoggingMiddleware(logger)(TimeoutMiddleware(10 * time.Millisecond)(handler))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))

	if !strings.Contains(buf.String(), "timed_out=true") {
		t.Errorf("Expected timed_out=true in log output: %s", buf.String())
	}
}

func TestTimeoutMiddleware_NonPositiveLimit(t *testing.T) {
	var hasDeadline bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	})

	TimeoutMiddleware(0)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if hasDeadline {
		t.Error("Expected no deadline for a zero limit")
	}
}

// =============================================================================
// LoggingMiddleware Tests
// =============================================================================

func TestLoggingMiddleware(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "tenant_id", "t1")
		AddLogInt(r.Context(), "usage_total_tokens", 46)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("OK"))
	})

	wrapped := RequestIDMiddleware(LoggingMiddleware(logger)(testHandler))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/chat", nil))

	output := buf.String()
	for _, want := range []string{"request completed", "path=/chat", "status=201", "tenant_id=t1", "usage_total_tokens=46", "request_id="} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in log output: %s", want, output)
		}
	}
}

func TestLoggingMiddleware_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var buf strings.Builder
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.WriteHeader(http.StatusTeapot)
			})
			LoggingMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

			if !strings.Contains(buf.String(), tt.level) {
				t.Errorf("Expected %s in log output: %s", tt.level, buf.String())
			}
		})
	}
}

func TestAddLogField_EmptyValue(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddLogField(r.Context(), "tenant_id", "")
	})
	LoggingMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Contains(buf.String(), "tenant_id") {
		t.Errorf("Expected empty field to be dropped: %s", buf.String())
	}
}

func TestAddLogField_NoContext(t *testing.T) {
	// Should not panic outside the middleware
	AddLogField(context.Background(), "key", "value")
	AddError(context.Background(), http.ErrHandlerTimeout)
}

func TestAddError(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		AddError(r.Context(), nil)
		AddError(r.Context(), context.DeadlineExceeded)
		w.WriteHeader(http.StatusGatewayTimeout)
	})
	LoggingMiddleware(logger)(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if !strings.Contains(buf.String(), `error="context deadline exceeded"`) {
		t.Errorf("Expected error field in log output: %s", buf.String())
	}
}

// =============================================================================
// Server Tests
// =============================================================================

func TestServer_Recovers(t *testing.T) {
	s := New(0, discardLogger(), time.Second)
	s.Router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest("GET", "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID on recovered response")
	}
}

func TestServer_StartShutdown(t *testing.T) {
	s := New(0, discardLogger(), 0)

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	time.Sleep(20 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Shutdown")
	}
}
