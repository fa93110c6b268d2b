package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/config"
	"github.com/iliyamo/robot-management/internal/database"
	"github.com/iliyamo/robot-management/internal/handler"
	"github.com/iliyamo/robot-management/internal/logger"
	"github.com/iliyamo/robot-management/internal/middleware"
	"github.com/iliyamo/robot-management/internal/queue"
	"github.com/iliyamo/robot-management/internal/repository"
	"github.com/iliyamo/robot-management/internal/router"
	"github.com/iliyamo/robot-management/internal/service"
	"github.com/iliyamo/robot-management/internal/validate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, db)
	cancel()
	if err != nil {
		lg.Fatal("schema migration failed", zap.Error(err))
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		lg.Warn("redis unavailable, rate limiting and caching disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	var pub service.AuditPublisher = service.NopPublisher{}
	if cfg.Audit.AMQPURL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.Audit.AMQPURL, cfg.Audit.Queue, lg.Named("audit"))
		defer amqpPub.Close()
		pub = amqpPub
		if cfg.Audit.ConsumerEnabled {
			consumer := &queue.Consumer{
				URL:    cfg.Audit.AMQPURL,
				Queue:  cfg.Audit.Queue,
				LogDir: cfg.Audit.LogDir,
				Log:    lg.Named("audit-consumer"),
			}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					lg.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	robots := repository.NewRobotRepo(db)
	tasks := repository.NewTaskRepo(db)
	executions := repository.NewTaskExecutionRepo(db)
	users := repository.NewUserRepo(db)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, repository.NewTokenRepo(db))

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.Debug
	e.Validator = validate.NewEchoValidator()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(lg.Named("http")))
	e.Use(echomw.Recover())

	chain := router.Chain{
		Tokens:    tokens,
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, lg.Named("ratelimit")),
		Cache:     middleware.NewRedisCache(cfg.Cache, rdb, lg.Named("cache")),
		Log:       lg.Named("auth"),
	}
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(users, tokens, pub, lg), chain)
	router.RegisterRobots(e, handler.NewRobotHandler(robots, pub, lg), chain)
	router.RegisterTasks(e, handler.NewTaskHandler(tasks, pub, lg), chain)
	router.RegisterTaskExecutions(e, handler.NewTaskExecutionHandler(executions, robots, tasks, pub, lg), chain)

	go func() {
		addr := ":" + cfg.Port
		lg.Info("listening", zap.String("addr", addr), zap.String("env", string(cfg.Env)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		lg.Error("graceful shutdown failed", zap.Error(err))
	}
}
