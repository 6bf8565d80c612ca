package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	gogrpc "google.golang.org/grpc"

	"github.com/spbu-ds-practicum-2025/payment-network/internal/bootstrap"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/cache"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/config"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/db"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/domain"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/events"
	grpcserver "github.com/spbu-ds-practicum-2025/payment-network/internal/grpc"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/httpapi"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/metrics"
	"github.com/spbu-ds-practicum-2025/payment-network/internal/sim"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC and HTTP payment network servers",
		RunE:  runServe,
	}
	cmd.Flags().Bool("migrate", true, "Apply database migrations on startup")
	cmd.Flags().Bool("seed", false, "Load the bootstrap network file on startup")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	store := db.NewStore(pool.Pool, logger)

	if seed, _ := cmd.Flags().GetBool("seed"); seed {
		if err := seedNetwork(ctx, cfg.Network.BootstrapFile, store, logger); err != nil {
			return err
		}
	}

	var banks domain.BankRepository = store.Banks()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, bank lookups fall through to postgres", zap.Error(err))
		}
		banks = cache.NewBankCache(banks, client, cfg.Redis.BankTTL, logger)
		logger.Info("bank configuration cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	observer := metrics.NewObserver()
	opts := []domain.CoordinatorOption{
		domain.WithLogger(logger),
		domain.WithObserver(observer),
		domain.WithPublishTimeout(cfg.Network.PublishTimeout),
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := events.NewRabbitMQPublisher(cfg.RabbitMQ, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, domain.WithEventPublisher(publisher))
		logger.Info("rabbitmq publisher initialized", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}

	network := domain.NewPaymentNetwork(
		store,
		domain.NewBankDirectory(banks, store.Merchants()),
		sim.NewReal(),
		domain.NetworkConfig{
			StageTimeout:             cfg.Network.StageTimeout,
			CompensateCaptureFailure: cfg.Network.CompensateCaptureFailure,
		},
		opts...,
	)
	logger.Info("payment network initialized")

	return serve(ctx, cfg, network, observer, logger)
}

// serve runs both listeners until ctx is done or one of them fails.
func serve(ctx context.Context, cfg *config.Config, network *domain.PaymentNetwork, observer *metrics.Observer, logger *zap.Logger) error {
	grpcServer := gogrpc.NewServer()
	grpcserver.RegisterPaymentNetworkService(grpcServer, grpcserver.NewServer(network, logger))

	lis, err := net.Listen("tcp", ":"+cfg.GRPC.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", cfg.GRPC.Port, err)
	}

	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(network, httpapi.Options{
			CORSOrigins: cfg.HTTP.CORSOrigins,
			Metrics:     observer.Handler(),
			Logger:      logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gRPC server starting", zap.String("port", cfg.GRPC.Port))
		if err := grpcServer.Serve(lis); err != nil {
			return fmt.Errorf("gRPC server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		logger.Info("servers stopped")
		return err
	})

	return g.Wait()
}

func seedNetwork(ctx context.Context, path string, store domain.Store, logger *zap.Logger) error {
	network, err := bootstrap.Load(path)
	if err != nil {
		return err
	}
	if err := network.Apply(ctx, store); err != nil {
		return fmt.Errorf("failed to seed network: %w", err)
	}
	logger.Info("network seeded",
		zap.String("file", path),
		zap.Int("banks", len(network.Banks)),
		zap.Int("merchants", len(network.Merchants)),
		zap.Int("accounts", len(network.Accounts)))
	return nil
}
