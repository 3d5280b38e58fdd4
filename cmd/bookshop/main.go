package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ahinestrog/bookshop/internal/cart"
	"github.com/ahinestrog/bookshop/internal/catalog"
	"github.com/ahinestrog/bookshop/internal/config"
	"github.com/ahinestrog/bookshop/internal/events"
	"github.com/ahinestrog/bookshop/internal/httpapi"
	"github.com/ahinestrog/bookshop/internal/logging"
	"github.com/ahinestrog/bookshop/internal/order"
	"github.com/ahinestrog/bookshop/internal/rpc"
	"github.com/ahinestrog/bookshop/internal/storage"
	"github.com/ahinestrog/bookshop/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("logging")
	}
	logger.Info().
		Str("http", cfg.HTTPAddr).
		Str("grpc", cfg.GRPCAddr).
		Str("db", cfg.DBPath).
		Str("driver", cfg.DBDriver).
		Msg("starting bookshop")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("fatal")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := storage.Migrate(ctx, db); err != nil {
		return err
	}

	pub, closePub := publisher(cfg, logger)
	defer closePub()

	catalogSvc := catalog.NewService(db, pub, logger)
	cartSvc := cart.NewService(db, logger)
	orderSvc := order.NewService(db, pub, logger)
	userSvc := user.NewService(db, pub, logger)

	if err := bootstrap(ctx, cfg, logger, catalogSvc, userSvc); err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewHandler(httpapi.Deps{
			Catalog: catalogSvc,
			Cart:    cartSvc,
			Orders:  orderSvc,
			Users:   userSvc,
			Health:  db.PingContext,
		}, httpapi.Options{
			CORSOrigins: cfg.CORSOrigins,
			RateLimit:   cfg.RateLimit,
			RateWindow:  cfg.RateWindow,
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcSrv := rpc.NewServer(cartSvc, orderSvc, cfg.GRPCToken, logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	errc := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.GRPCAddr).Msg("grpc listening")
		if err := grpcSrv.Serve(lis); err != nil {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Warn().Msg("shutting down...")
	case err := <-errc:
		logger.Error().Err(err).Msg("server failed, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}
	logger.Info().Msg("bye")
	return nil
}

// publisher connects to RabbitMQ when configured. Without a broker, or when
// it cannot be reached, events are dropped.
func publisher(cfg *config.Config, logger zerolog.Logger) (events.Publisher, func()) {
	if cfg.RabbitURL == "" {
		logger.Info().Msg("RABBIT_URL not set, events disabled")
		return events.Nop{}, func() {}
	}
	rb, err := events.NewRabbit(cfg.RabbitURL, cfg.RabbitExchange)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbit unavailable, events disabled")
		return events.Nop{}, func() {}
	}
	logger.Info().Str("exchange", cfg.RabbitExchange).Msg("publishing events to rabbit")
	return rb, rb.Close
}

func bootstrap(ctx context.Context, cfg *config.Config, logger zerolog.Logger, catalogSvc *catalog.Service, userSvc *user.Service) error {
	if cfg.AdminEmail != "" {
		admin, err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		logger.Info().Int64("user", admin.ID).Str("email", admin.Email).Msg("admin account ready")
	}
	if cfg.SeedOnStart {
		n, err := catalogSvc.SeedDemo(ctx)
		if err != nil {
			return err
		}
		logger.Info().Int("books", n).Msg("seeded demo catalog")
	}
	return nil
}
