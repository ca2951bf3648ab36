// Package classifyworker is the composition root of the outbox poller
// that applies queued classification jobs.
package classifyworker

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/avclabs/faxdesk/internal/config"
	"github.com/avclabs/faxdesk/internal/factory"
	"github.com/avclabs/faxdesk/internal/logger"
	"github.com/avclabs/faxdesk/internal/outbox"
	"github.com/avclabs/faxdesk/internal/services"
)

// Run starts the classify worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("classify-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
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

	docs := services.NewDocumentService(st, blobs, classifier, cfg.PresignTTL, log)
	worker := outbox.NewWorker(st, docs, outbox.Config{
		BatchSize: cfg.WorkerBatchSize,
		Interval:  cfg.WorkerInterval,
	}, log)

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Stack().Err(err).Msg("classify worker exit")
		return err
	}
	return nil
}
