// Command dk-server starts the discovery gRPC server and its HTTP side channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	apiv1 "github.com/and161185/discokeeper/api/discovery/v1"
	"github.com/and161185/discokeeper/internal/config"
	"github.com/and161185/discokeeper/internal/gateway"
	"github.com/and161185/discokeeper/internal/limiter"
	"github.com/and161185/discokeeper/internal/matrix"
	"github.com/and161185/discokeeper/internal/metrics"
	"github.com/and161185/discokeeper/internal/migrate"
	"github.com/and161185/discokeeper/internal/repository"
	"github.com/and161185/discokeeper/internal/repository/memory"
	"github.com/and161185/discokeeper/internal/repository/postgres"
	"github.com/and161185/discokeeper/internal/repository/redisstore"
	grpcserver "github.com/and161185/discokeeper/internal/server/grpc"
	httpserver "github.com/and161185/discokeeper/internal/server/http"
	"github.com/and161185/discokeeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const (
	accessTTL       = 24 * time.Hour
	shutdownTimeout = 5 * time.Second
)

// main loads configuration, runs migrations and serves gRPC and HTTP until a signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("dev", cfg.Dev),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("postgres.New: %w", err)
	}
	defer db.Close()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Repositories
	settingsRepo := postgres.NewSettingsRepo(db)
	termsRepo := postgres.NewTermsRepo(db)
	lim := limiter.NewPG(db.Pool, cfg.SendWindow, cfg.MaxSends, cfg.BlockFor)

	var sessions repository.SessionStore = memory.NewSessions()
	if cfg.RedisURL != "" {
		rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()
		sessions = redisstore.NewSessions(rdb)
		logger.Info("bind sessions in redis")
	} else {
		logger.Warn("bind sessions kept in memory; pending verifications are lost on restart")
	}

	// Matrix gateways and services
	mx := matrix.New(cfg.HTTPTimeout, matrix.WithMetrics(m))
	gw := gateway.NewMatrix(mx, termsRepo, sessions, cfg.SessionTTL, logger)
	svc := service.NewDiscoveryService(service.Deps{
		Settings: settingsRepo,
		Terms:    termsRepo,
		Gateways: gw,
		Limiter:  lim,
		Language: cfg.Language,
		Metrics:  m,
		Log:      logger,
	})
	tokens := service.NewTokenService(cfg.JWTKey, accessTTL)

	// gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.AuthUnary(tokens),
			grpcserver.LoggingUnary(logger),
		),
	}
	if !cfg.Dev {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	gs := grpc.NewServer(opts...)
	apiv1.RegisterDiscoveryServer(gs, grpcserver.New(svc))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	if cfg.Dev {
		reflection.Register(gs)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	hsrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpserver.NewRouter(httpserver.New(svc, cfg.WebhookSecret, logger), reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("grpc listening", zap.String("addr", cfg.Addr), zap.Bool("tls", !cfg.Dev))
		return gs.Serve(lis)
	})
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := hsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()

		// graceful shutdown
		done := make(chan struct{})
		go func() {
			gs.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			gs.Stop()
		}

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return hsrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
