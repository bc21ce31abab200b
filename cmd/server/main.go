// Command peakflow-server starts the peak-flow tracker gRPC server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/and161185/peakflow/internal/api"
	"github.com/and161185/peakflow/internal/config"
	"github.com/and161185/peakflow/internal/limiter"
	"github.com/and161185/peakflow/internal/mailer"
	"github.com/and161185/peakflow/internal/metrics"
	"github.com/and161185/peakflow/internal/migrate"
	"github.com/and161185/peakflow/internal/repository"
	"github.com/and161185/peakflow/internal/repository/kv"
	"github.com/and161185/peakflow/internal/repository/postgres"
	grpcserver "github.com/and161185/peakflow/internal/server/grpc"
	"github.com/and161185/peakflow/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the gRPC and metrics servers.
func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.String("mail", cfg.MailProvider),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DSN); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	// DB pool
	pool, err := postgres.Open(ctx, cfg.DSN, int32(cfg.MaxConns))
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	db := &postgres.DB{Pool: pool}

	// Repositories: accounts always live in PostgreSQL, readings and settings follow --store.
	userRepo := postgres.NewUserRepo(db)
	codeRepo := postgres.NewResetCodeRepo(db)
	var (
		readingRepo  repository.ReadingRepository
		settingsRepo repository.SettingsRepository
	)
	switch cfg.Store {
	case config.StoreRedis:
		rdb, err := kv.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		store := kv.NewStore(rdb, cfg.RedisPrefix)
		readingRepo = kv.NewReadingRepo(store)
		settingsRepo = kv.NewSettingsRepo(store)
	default:
		readingRepo = postgres.NewReadingRepo(db)
		settingsRepo = postgres.NewSettingsRepo(db)
	}

	lim := limiter.NewPG(pool, cfg.LimitWindow, cfg.LimitMaxFails, cfg.LimitBlockFor)

	mail, err := newMailer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Services
	signKey := []byte(cfg.JWTKey)
	authSvc := service.NewAuthService(userRepo, settingsRepo, signKey, cfg.AccessTTL, lim, logger.Named("auth"))
	resetSvc := service.NewResetService(userRepo, codeRepo, mail, cfg.MailFrom, lim, logger.Named("reset"))
	trackerSvc := service.NewTrackerService(readingRepo, settingsRepo, logger.Named("tracker"), service.TrackerConfig{
		DefaultLocation: cfg.Location(),
		OnePerDay:       cfg.OnePerDay,
	})

	m := metrics.New()

	// gRPC server with interceptors
	interceptors := []grpc.UnaryServerInterceptor{
		grpcserver.RecoverUnary(logger),
		grpcserver.LoggingUnary(logger),
		grpcserver.MetricsUnary(m),
	}
	if cfg.RateRPS > 0 {
		interceptors = append(interceptors, grpcserver.RateLimitUnary(cfg.RateRPS, cfg.RateBurst, m))
	}
	interceptors = append(interceptors, grpcserver.AuthUnary(signKey))

	opts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}
	if cfg.Insecure {
		logger.Warn("TLS disabled")
	} else {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}
	s := grpc.NewServer(opts...)

	app := grpcserver.New(authSvc, resetSvc, trackerSvc, signKey, grpcserver.WithMetrics(m))
	api.RegisterPeakFlowServer(s, app)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	// Listen
	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", !cfg.Insecure))
		errCh <- s.Serve(lis)
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()
		// graceful shutdown
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.Stop()
		}
		if metricsSrv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(sctx)
		}
		return nil
	case err := <-errCh:
		s.Stop()
		return err
	}
}

// newLogger builds a production zap logger in json or console encoding.
func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	switch format {
	case "json", "":
	case "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return zc.Build()
}

// newMailer selects the reset code transport.
func newMailer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (mailer.Mailer, error) {
	switch cfg.MailProvider {
	case config.MailResend:
		return mailer.NewResend(cfg.ResendBaseURL, cfg.ResendAPIKey), nil
	case config.MailSES:
		m, err := mailer.NewSES(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return mailer.NewLog(logger.Named("mail")), nil
	}
}
