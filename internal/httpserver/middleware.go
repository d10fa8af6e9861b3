package httpserver

import (
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"teamtracker/internal/apperr"
	"teamtracker/internal/handler"
	"teamtracker/internal/service/auth"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/metrics"
	"teamtracker/pkg/trace"
	"teamtracker/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TraceMiddleware propagates an inbound trace id or starts a new one, and
// echoes it on the response.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName), c.GetHeader("X-Request-ID"))
		if traceID == "" {
			traceID = trace.GenerateTraceID()
		}

		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName, traceID)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		l := logger.WithTrace(c.Request.Context(), log)
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			l.Warn("HTTP request", fields...)
		default:
			l.Info("HTTP request", fields...)
		}
	}
}

// MetricsMiddleware records request latency labelled by route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithTrace(c.Request.Context(), log).Error("Panic recovered",
					zap.Any("panic", err),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// visitorIdleTTL is how long an idle client keeps its bucket. A client idle
// this long has a full bucket again, so dropping it changes nothing.
const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// visitors holds one limiter per client IP and drops idle entries on a
// sweep that runs at most once per ttl.
type visitors struct {
	mu        sync.Mutex
	r         rate.Limit
	b         int
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]*visitor
	lastSweep time.Time
}

func newVisitors(r rate.Limit, b int) *visitors {
	ttl := visitorIdleTTL
	if r > 0 {
		if refill := time.Duration(float64(b) / float64(r) * float64(time.Second)); refill > ttl {
			ttl = refill
		}
	}
	return &visitors{
		r:       r,
		b:       b,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]*visitor),
	}
}

func (v *visitors) get(ip string) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	if now.Sub(v.lastSweep) >= v.ttl {
		for key, e := range v.entries {
			if now.Sub(e.lastSeen) >= v.ttl {
				delete(v.entries, key)
			}
		}
		v.lastSweep = now
	}

	e, ok := v.entries[ip]
	if !ok {
		e = &visitor{limiter: rate.NewLimiter(v.r, v.b)}
		v.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func (v *visitors) len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// RateLimiter applies a token bucket per client IP.
func RateLimiter(r rate.Limit, b int) gin.HandlerFunc {
	return rateLimiter(newVisitors(r, b))
}

func rateLimiter(v *visitors) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Request was throttled."})
			return
		}
		c.Next()
	}
}

// AuthMiddleware accepts only access tokens and loads the caller, who must
// still exist and be active.
func AuthMiddleware(svc *auth.Service, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := util.ExtractToken(c.Request)
		if token == "" {
			unauthorized(c, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		u, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperr.ErrInvalidToken):
				unauthorized(c, gin.H{"detail": "Given token not valid for any token type", "code": "token_not_valid"})
			case errors.Is(err, auth.ErrUserNotFound):
				unauthorized(c, gin.H{"detail": "User not found", "code": "user_not_found"})
			case errors.Is(err, auth.ErrUserInactive):
				unauthorized(c, gin.H{"detail": "User is inactive", "code": "user_inactive"})
			default:
				logger.WithTrace(c.Request.Context(), log).Error("Auth: failed to load user", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			return
		}

		c.Set(handler.ContextUserKey, u)
		c.Next()
	}
}

func unauthorized(c *gin.Context, body gin.H) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, body)
}
