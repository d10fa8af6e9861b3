package httpserver

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"teamtracker/pkg/trace"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func setupTestGin(middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trace_id": trace.FromContext(c.Request.Context())})
	})
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return router
}

func TestRateLimiter(t *testing.T) {
	router := setupTestGin(RateLimiter(1, 2))

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Expected request %d to succeed, got status %d", i+1, w.Code)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be throttled, got status %d", w.Code)
	}

	// other clients keep their own bucket
	req, _ = http.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.2:1234"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected request from a different IP to succeed, got status %d", w.Code)
	}
}

func TestTraceMiddleware(t *testing.T) {
	router := setupTestGin(TraceMiddleware())

	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(trace.HeaderName, "abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get(trace.HeaderName); got != "abc123" {
		t.Errorf("Expected inbound trace id to be echoed, got %q", got)
	}

	req, _ = http.NewRequest(http.MethodGet, "/test", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get(trace.HeaderName) == "" {
		t.Error("Expected a generated trace id")
	}
}

func TestRecovery(t *testing.T) {
	router := setupTestGin(Recovery(zap.NewNop()))

	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got status %d", w.Code)
	}
}

func TestAuthMiddlewareChallenge(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/profile/", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got status %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("Expected WWW-Authenticate header")
	}

	w = s.do(t, http.MethodGet, "/profile/", "not-a-jwt", nil)
	body := decode[map[string]string](t, w)
	if w.Code != http.StatusUnauthorized || body["code"] != "token_not_valid" {
		t.Errorf("Expected token_not_valid, got %d %v", w.Code, body)
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v := newVisitors(1, 2)
	v.now = func() time.Time { return now }
	router := setupTestGin(rateLimiter(v))

	hit := func(ip string) int {
		req, _ := http.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 50; i++ {
		hit("10.0.0." + strconv.Itoa(i))
	}
	if v.len() != 50 {
		t.Fatalf("Expected 50 tracked visitors, got %d", v.len())
	}

	now = now.Add(visitorIdleTTL)
	if code := hit("10.0.1.1"); code != http.StatusOK {
		t.Errorf("Expected new visitor to pass, got status %d", code)
	}
	if v.len() != 1 {
		t.Errorf("Expected idle visitors to be evicted, %d remain", v.len())
	}

	// an active visitor keeps its bucket across sweeps
	hit("10.0.1.1")
	if code := hit("10.0.1.1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be throttled, got status %d", code)
	}
}
