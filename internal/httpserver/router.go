package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"teamtracker/internal/handler"
	"teamtracker/internal/service/auth"
	"teamtracker/pkg/config"
	"teamtracker/pkg/trace"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	Project   *handler.ProjectHandler
	Task      *handler.TaskHandler
	Update    *handler.UpdateHandler
	Dashboard *handler.DashboardHandler
	User      *handler.UserHandler
}

// ReadinessCheck reports whether backing stores are reachable.
type ReadinessCheck func(ctx context.Context) error

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	h Handlers,
	authService *auth.Service,
	serverCfg config.ServerConfig,
	ready ReadinessCheck,
	logger *zap.Logger,
) *Router {
	r := gin.New()

	r.Use(Recovery(logger))
	r.Use(TraceMiddleware())
	r.Use(RequestLogger(logger))
	r.Use(MetricsMiddleware())
	r.Use(cors.New(corsConfig(serverCfg.CORSOrigins)))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if ready != nil {
			if err := ready(ctx); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"status": "not_ready", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	limited := r.Group("/")
	if serverCfg.AuthRateLimit > 0 {
		limited.Use(RateLimiter(rate.Limit(serverCfg.AuthRateLimit), serverCfg.AuthRateBurst))
	}
	limited.POST("/register/", h.Auth.Register)
	limited.POST("/login/", h.Auth.Login)
	r.POST("/token/refresh/", h.Auth.Refresh)

	// Protected
	authed := r.Group("/")
	authed.Use(AuthMiddleware(authService, logger))
	{
		authed.POST("/logout/", h.Auth.Logout)
		authed.GET("/profile/", h.Auth.GetProfile)
		authed.PUT("/profile/", h.Auth.UpdateProfile)
		authed.PATCH("/profile/", h.Auth.UpdateProfile)

		authed.GET("/dashboard/", h.Dashboard.Get)

		authed.POST("/projects/", h.Project.Create)
		authed.GET("/projects/all/", h.Project.ListAll)
		authed.GET("/projects/:id/", h.Project.Get)
		authed.PUT("/projects/:id/", h.Project.Update)
		authed.PATCH("/projects/:id/", h.Project.Patch)
		authed.DELETE("/projects/:id/", h.Project.Delete)
		authed.POST("/projects/:id/add_member/", h.Project.AddMember)
		authed.POST("/projects/:id/remove_member/", h.Project.RemoveMember)

		authed.GET("/tasks/", h.Task.List)
		authed.POST("/tasks/", h.Task.Create)
		authed.GET("/tasks/:id/", h.Task.Get)
		authed.PUT("/tasks/:id/", h.Task.Update)
		authed.PATCH("/tasks/:id/", h.Task.Patch)
		authed.DELETE("/tasks/:id/", h.Task.Delete)

		authed.GET("/updates/", h.Update.List)
		authed.POST("/updates/", h.Update.Create)

		authed.GET("/users/", h.User.List)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	return &Router{Engine: r}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", trace.HeaderName},
		ExposeHeaders:    []string{"Content-Length", trace.HeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if strings.TrimSpace(o) == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	return cfg
}
