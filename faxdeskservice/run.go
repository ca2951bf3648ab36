// Package faxdeskservice is the composition root of the document API
// server.
package faxdeskservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/api"
	"github.com/avclabs/faxdesk/internal/config"
	"github.com/avclabs/faxdesk/internal/factory"
	"github.com/avclabs/faxdesk/internal/health"
	"github.com/avclabs/faxdesk/internal/logger"
	"github.com/avclabs/faxdesk/internal/mailout"
	"github.com/avclabs/faxdesk/internal/services"
	"github.com/avclabs/faxdesk/internal/store"
)

// Run starts the document API server and blocks until shutdown or error.
func Run() error {
	log := logger.New("faxdesk-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("s3_endpoint", cfg.S3Endpoint).
		Str("llm_provider", cfg.LLMProvider).
		Msg("faxdesk service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store unavailable")
		return err
	}
	blobs, err := factory.NewBlobStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("artifact store unavailable")
		return err
	}
	classifier, err := factory.NewClassifier(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("classifier unavailable")
		return err
	}
	sender, err := mailout.NewSMTP(mailout.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SenderEmail,
	})
	if err != nil {
		log.Error().Stack().Err(err).Msg("mail sender unavailable")
		return err
	}

	svcHealth := startHealthCheckers(ctx, cfg, log, st, blobs)

	router := api.NewRouter(api.RouterOptions{
		Documents: services.NewDocumentService(st, blobs, classifier, cfg.PresignTTL, log),
		Memos:     services.NewMemoService(st, log),
		Uploads:   services.NewUploadService(blobs, cfg.FaxIncomingPrefix, cfg.PresignTTL),
		Mail:      services.NewMailService(sender, log),
		Health:    svcHealth,
		Metrics:   api.NewMetrics("faxdesk"),
	})

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store, blobs health.HealthPinger) *health.ServiceHealthChecker {
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)

	blobChecker := health.NewPingChecker("artifact-store", blobs, log, probeTimeout)
	go blobChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, storeChecker, blobChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
