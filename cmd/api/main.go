package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamtracker/internal/config"
	"teamtracker/internal/events"
	"teamtracker/internal/handler"
	"teamtracker/internal/httpserver"
	"teamtracker/internal/repository"
	"teamtracker/internal/repository/memstore"
	"teamtracker/internal/service/auth"
	"teamtracker/internal/service/dashboard"
	"teamtracker/internal/service/directory"
	"teamtracker/internal/service/project"
	"teamtracker/internal/service/task"
	"teamtracker/internal/service/update"
	"teamtracker/pkg/circuitbreaker"
	"teamtracker/pkg/db"
	"teamtracker/pkg/logger"
	"teamtracker/pkg/mq"
	"teamtracker/pkg/outbox"
	redisclient "teamtracker/pkg/redis"

	"go.uber.org/zap"
)

type stores struct {
	users     repository.UserStore
	projects  repository.ProjectStore
	tasks     repository.TaskStore
	updates   repository.DailyUpdateStore
	blacklist repository.TokenBlacklist
}

func main() {
	cfg := config.Load()

	log := logger.NewLogger(cfg.Log)
	defer log.Sync()

	log.Info("Starting teamtracker api...",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("port", cfg.Server.Port),
	)

	var (
		st       stores
		checks   []httpserver.ReadinessCheck
		outboxDB *outbox.Repository
	)

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		log.Info("Initializing database connection...")
		dbConn, err := db.NewConnection(cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		defer dbConn.Close()

		if err := db.RunMigrations(dbConn, cfg.DB.Name, log); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}

		st.users = repository.NewUserRepository(dbConn, log)
		st.projects = repository.NewProjectRepository(dbConn, log)
		st.tasks = repository.NewTaskRepository(dbConn, log)
		st.updates = repository.NewDailyUpdateRepository(dbConn, log)
		outboxDB = outbox.NewRepository(dbConn)
		checks = append(checks, func(ctx context.Context) error { return dbConn.Ping(ctx) })
	default:
		log.Warn("Using in-memory storage, data is lost on restart")
		mem := memstore.New()
		st.users = mem.Users()
		st.projects = mem.Projects()
		st.tasks = mem.Tasks()
		st.updates = mem.DailyUpdates()
	}

	if cfg.Redis.Addr != "" {
		rdb := redisclient.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := redisclient.Ping(context.Background(), rdb); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		st.blacklist = repository.NewRedisTokenBlacklist(rdb, log)
		checks = append(checks, func(ctx context.Context) error { return redisclient.Ping(ctx, rdb) })
	} else {
		log.Warn("redis.addr not set, refresh token blacklist is process-local")
		st.blacklist = memstore.NewTokenBlacklist()
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var pub events.Publisher = events.Nop{}
	if cfg.MQ.URL != "" {
		mqPub, err := mq.NewPublisher(cfg.MQ)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer mqPub.Close()
		checks = append(checks, mqPub.Ping)

		if outboxDB != nil {
			// events go through the outbox table and are relayed in the background
			pub = events.NewOutboxPublisher(outboxDB, log)
			go outbox.NewDispatcher(outboxDB, mqPub, log).
				WithMaxAttempts(cfg.MQ.Outbox.MaxAttempts).
				WithBatchSize(cfg.MQ.Outbox.BatchSize).
				WithInterval(cfg.MQ.Outbox.Interval).
				Start(bgCtx)
		} else {
			pub = events.NewBrokerPublisher(mqPub, circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()), log)
		}
		log.Info("Activity events enabled", zap.Bool("outbox", outboxDB != nil))
	}

	authService := auth.NewService(st.users, st.blacklist, cfg.JWT, log)
	projectService := project.NewService(st.projects, st.users, pub, log)
	taskService := task.NewService(st.tasks, st.projects, st.users, pub, log)
	updateService := update.NewService(st.updates, pub, log)
	dashboardService := dashboard.NewService(st.projects, st.tasks, st.updates, log)
	directoryService := directory.NewService(st.users)

	router := httpserver.NewRouter(httpserver.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Project:   handler.NewProjectHandler(projectService, log),
		Task:      handler.NewTaskHandler(taskService, log),
		Update:    handler.NewUpdateHandler(updateService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService, log),
		User:      handler.NewUserHandler(directoryService, log),
	}, authService, cfg.Server, readiness(checks), log)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopBackground()

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("teamtracker api shutdown complete")
}

func readiness(checks []httpserver.ReadinessCheck) httpserver.ReadinessCheck {
	return func(ctx context.Context) error {
		for _, check := range checks {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}
