// cmd/rfp-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tanayreshamwala/rfp-ai-app/internal/ai"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/aws"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/config"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/database"
	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
	"github.com/tanayreshamwala/rfp-ai-app/internal/email"
	"github.com/tanayreshamwala/rfp-ai-app/internal/handlers"
	"github.com/tanayreshamwala/rfp-ai-app/internal/repositories"
	proposalsvc "github.com/tanayreshamwala/rfp-ai-app/internal/services/proposal"
	rfpsvc "github.com/tanayreshamwala/rfp-ai-app/internal/services/rfp"
)

// retryWithBackoff retries infrastructure connections that are expected to
// flap during startup ordering (compose, k8s).
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config load failed:", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting rfp server",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected")

	// --- Model gateway ---
	gateway, err := ai.NewClient(ai.Config{
		BaseURL:     cfg.OpenAI.BaseURL,
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     config.GetDuration(cfg.OpenAI.Timeout),
		MaxRetries:  cfg.OpenAI.MaxRetries,
		BackoffBase: config.GetDuration(cfg.OpenAI.BackoffBase),
	}, log)
	if err != nil {
		zapLog.Fatal("model gateway init failed", zap.Error(err))
	}
	aiService := ai.NewService(gateway, log)

	// --- Repositories ---
	rfpRepo := repositories.NewRfpRepository(pg.DB)
	vendorRepo := repositories.NewVendorRepository(pg.DB)
	proposalRepo := repositories.NewProposalRepository(pg.DB)
	emailRepo := repositories.NewEmailRepository(pg.DB)

	// --- Services ---
	rfpService := rfpsvc.NewService(rfpRepo, aiService, log)
	proposalService := proposalsvc.NewService(proposalRepo, rfpRepo, vendorRepo, aiService, aiService, rdb, log)

	var sender email.Sender
	if cfg.Email.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Email.SES.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		sender = sesClient
	} else {
		sender = email.NewLogSender(log)
	}
	emailService := email.NewService(sender, rfpRepo, vendorRepo, emailRepo, proposalService, cfg.Email, log)

	// --- HTTP surface ---
	mux := http.NewServeMux()
	handlers.NewRfpHandler(rfpService, emailService).Register(mux)
	handlers.NewProposalHandler(proposalService).Register(mux)
	handlers.NewVendorHandler(vendorRepo).Register(mux)
	handlers.NewWebhookHandler(emailService).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{"status": "ok"}
		code := http.StatusOK
		if err := pg.Ping(r.Context()); err != nil {
			status["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		if err := rdb.Ping(r.Context()); err != nil {
			status["redis"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		handlers.WriteJSON(w, code, status)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("http server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	zapLog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("shutdown complete")
}
