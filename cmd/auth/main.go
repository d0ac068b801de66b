package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/usiug6/auth-service/internal/adapters/db/memory"
	myPostgresRepo "github.com/usiug6/auth-service/internal/adapters/db/postgres"
	myRedisRepo "github.com/usiug6/auth-service/internal/adapters/db/redis"
	"github.com/usiug6/auth-service/internal/adapters/mail"
	myGrpc "github.com/usiug6/auth-service/internal/adapters/transport/grpc"
	httptransport "github.com/usiug6/auth-service/internal/adapters/transport/http"
	"github.com/usiug6/auth-service/internal/app/auth/jwt"
	"github.com/usiug6/auth-service/internal/app/auth/password"
	"github.com/usiug6/auth-service/internal/app/auth/reset"
	appsvc "github.com/usiug6/auth-service/internal/app/auth/service"
	"github.com/usiug6/auth-service/internal/domain/auth/repo"
	"github.com/usiug6/auth-service/internal/infra/config"
	"github.com/usiug6/auth-service/internal/infra/health"
	lg "github.com/usiug6/auth-service/internal/infra/log"
	"github.com/usiug6/auth-service/internal/infra/migrate"
	"github.com/usiug6/auth-service/internal/infra/server"
)

const (
	shutdownTimeout = 5 * time.Second
	healthTimeout   = 2 * time.Second
	healthInterval  = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()
	if zapLog.Core().Enabled(zap.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(gormpg.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var (
		revocations repo.RevocationRepo
		registry    *memory.RevocationRegistry
	)
	switch cfg.RevocationBackend {
	case config.RevocationRedis:
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		revocations = myRedisRepo.NewRedisTokenRepo(redisCli)
	default:
		registry = memory.NewRevocationRegistry()
		revocations = registry
	}
	zapLog.Info("revocation backend", zap.String("backend", cfg.RevocationBackend))

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	svc, err := appsvc.New(appsvc.Deps{
		Users:       userRepo,
		Revocations: revocations,
		Tokens:      jwtUtil,
		Hasher:      password.New(cfg.PasswordPepper, nil),
		Resets:      reset.NewManager(userRepo),
		Notifier:    mail.New(cfg, zapLog),
		Validator:   appsvc.NewValidator(),
		Log:         zapLog,
	})
	if err != nil {
		zapLog.Fatal("failed to init auth service", zap.Error(err))
	}

	checker := health.NewChecker(healthTimeout).
		Add("db", userRepo).
		Add("revocation", revocations)

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		grpc_prometheus.DefaultServerMetrics,
	)

	router := httptransport.NewRouter(
		httptransport.NewHandler(svc, checker, zapLog),
		httptransport.RouterConfig{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowCredentials: cfg.AllowCredentials,
			StaticDir:        cfg.StaticDir,
			Metrics:          metrics,
		},
		zapLog,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	rootCtx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(rootCtx)

	if registry != nil {
		g.Go(func() error {
			return registry.Run(ctx, cfg.RevocationSweepInterval, zapLog)
		})
	}

	if cfg.GRPCAddress != "" {
		probe := myGrpc.NewHealthProbe(checker, healthInterval, zapLog)
		g.Go(func() error { return probe.Run(ctx) })
		g.Go(func() error {
			return server.StartGRPCServer(ctx, cfg, probe, zapLog)
		})
	}

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddress), zap.Bool("tls", cfg.TLSEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		zapLog.Info("shutdown signal received")
	case <-ctx.Done():
		zapLog.Warn("component stopped, shutting down")
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLog.Error("shutdown error", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
