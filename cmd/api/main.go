package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/schoolpay/backend/api/controllers"
	"github.com/schoolpay/backend/api/routes"
	"github.com/schoolpay/backend/internal/ledger"
	"github.com/schoolpay/backend/internal/payments"
	"github.com/schoolpay/backend/internal/receipts"
	"github.com/schoolpay/backend/internal/reconciliation"
	"github.com/schoolpay/backend/internal/students"
	"github.com/schoolpay/backend/pkg/config"
	"github.com/schoolpay/backend/pkg/db"
	"github.com/schoolpay/backend/pkg/logger"
	"github.com/schoolpay/backend/pkg/metrics"
	"github.com/schoolpay/backend/pkg/migrate"
	"github.com/schoolpay/backend/pkg/razorpay"
	"github.com/schoolpay/backend/pkg/redis"
	"github.com/schoolpay/backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "schoolpay-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server exited", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	storageClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer storageClient.Close()

	gateway, err := razorpay.NewClient(ctx, cfg.Razorpay, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	transactionRepo := payments.NewRepository(dbClient.DB())
	studentRepo := students.NewRepository(dbClient.DB())
	ledgerRepo := ledger.NewRepository(dbClient.DB())

	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return err
	}

	renderer := receipts.NewRenderer(cfg.School)
	receiptSvc, err := receipts.NewService(renderer, storageClient, transactionRepo, logg, paymentMetrics)
	if err != nil {
		return err
	}

	guard := payments.NewIdempotencyGuard(redisClient)
	paymentSvc, err := payments.NewService(
		transactionRepo,
		studentRepo,
		ledgerSvc,
		gateway,
		receiptSvc,
		guard,
		dbClient,
		logg,
		paymentMetrics,
	)
	if err != nil {
		return err
	}

	reconciliationSvc, err := reconciliation.NewService(transactionRepo, ledgerSvc, dbClient, logg, paymentMetrics)
	if err != nil {
		return err
	}

	router := routes.New(cfg, logg, routes.Controllers{
		Health: controllers.NewHealthController(logg, map[string]controllers.Pinger{
			"postgres": dbClient,
			"redis":    redisClient,
			"gcs":      storageClient,
		}),
		Payments:       controllers.NewPaymentsController(paymentSvc, logg),
		Reconciliation: controllers.NewReconciliationController(reconciliationSvc, logg),
		Ledger:         controllers.NewLedgerController(ledgerSvc, logg),
		Receipts:       controllers.NewReceiptsController(transactionRepo, studentRepo, receiptSvc, logg),
		Students:       controllers.NewStudentsController(studentRepo, logg),
	}, registry)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
