package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-service/config"
	"inventory-service/internal/api"
	"inventory-service/internal/broker"
	"inventory-service/internal/notify"
	"inventory-service/internal/redisclient"
	"inventory-service/internal/service"
	"inventory-service/internal/store"
	"inventory-service/internal/store/memstore"
	"inventory-service/internal/util"
	"inventory-service/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// backend is the persistence layer the services run on
type backend interface {
	service.Repository
	Ping(ctx context.Context) error
}

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}
	logger.Info("Starting inventory service", zap.String("env", cfg.Server.Env))

	if cfg.Observ.TracingEnabled {
		tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint, cfg.Server.Env)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("Error shutting down tracer", zap.Error(err))
			}
		}()
	}

	repo := openBackend(cfg, logger)
	if closer, ok := repo.(io.Closer); ok {
		defer closer.Close()
	}
	readiness := []api.Pinger{repo}

	var (
		cache       service.Cache
		idempotency service.IdempotencyStore
		throttle    service.AlertThrottle
	)
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))

		cache, idempotency, throttle = redisClient, redisClient, redisClient
		readiness = append(readiness, redisClient)
	}

	channels := notify.NewMulti(
		notify.NewEmailSink(logger, cfg.Notify.AdminEmail),
		notify.NewSMSSink(logger, cfg.Notify.AdminPhone),
	)

	var (
		events      service.EventPublisher
		alertSink   notify.Sink = notify.NewMulti(notify.NewLogSink(logger), channels)
		alertWorker *worker.AlertWorker
	)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicInventory)
		defer producer.Close()
		logger.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers))

		publisher := broker.NewEventPublisher(producer)
		events = publisher
		alertSink = notify.NewMulti(notify.NewLogSink(logger), notify.NewBrokerSink(publisher))

		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicInventory, cfg.Kafka.ConsumerGroup)
		alertWorker = worker.NewAlertWorker(consumer, channels)
		go func() {
			if err := alertWorker.Start(workerCtx); err != nil && err != context.Canceled {
				logger.Error("Alert worker error", zap.Error(err))
			}
		}()
	}

	threshold := cfg.Business.LowStockThreshold
	monitor := service.NewLowStockMonitor(repo, repo, alertSink, threshold)
	if throttle != nil {
		monitor.WithThrottle(throttle, cfg.Business.LowStockCooldown)
	}

	ledger := service.NewProductLedger(repo, repo, monitor, events, cache, threshold, cfg.Business.DefaultProductPage)
	sales := service.NewSaleService(repo, repo, ledger, monitor, events, idempotency, cache,
		cfg.Business.IdempotencyKeyTTL, cfg.Business.DefaultSalePage)

	handler := api.NewHandler(api.Services{
		Products:  ledger,
		Sales:     sales,
		Suppliers: service.NewSupplierService(repo, repo),
		Analytics: service.NewAnalyticsService(repo, repo, cache, threshold, cfg.Business.AnalyticsCacheTTL),
		Monitor:   monitor,
		Auth:      service.NewAuthService(repo, cfg.Auth.JWTSecret, cfg.Auth.JWTExpire),
	}, cfg.Server.Env, cfg.Server.FrontendURL, readiness...)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	monitor.Wait()
	workerCancel()
	if alertWorker != nil {
		if err := alertWorker.Stop(); err != nil {
			logger.Error("Error stopping alert worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// openBackend selects Postgres or the in-memory store
func openBackend(cfg *config.Config, logger *zap.Logger) backend {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return memstore.New()
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	logger.Info("Database connected")
	return db
}
