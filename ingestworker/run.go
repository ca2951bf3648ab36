// Package ingestworker is the composition root of the ingestion worker:
// it consumes bucket notifications and drives the FAX and email
// pipelines.
package ingestworker

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/avclabs/faxdesk/internal/config"
	"github.com/avclabs/faxdesk/internal/extract"
	"github.com/avclabs/faxdesk/internal/factory"
	"github.com/avclabs/faxdesk/internal/ingest"
	"github.com/avclabs/faxdesk/internal/logger"
	"github.com/avclabs/faxdesk/internal/mailparse"
	"github.com/avclabs/faxdesk/internal/pdfrender"
)

// Run starts the ingest worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("ingest-worker")

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

	fax := ingest.NewFaxPipeline(blobs, extract.NewOCRClient(cfg.OCRURL), pdfrender.NewPDFCPU(), st, cfg.S3Bucket, log)
	email := ingest.NewEmailPipeline(blobs, mailparse.NewEnmime(), st, log)
	worker := ingest.NewWorker(blobs, fax, email, cfg.FaxIncomingPrefix, cfg.RawMailPrefix, log)

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Stack().Err(err).Msg("ingest worker exit")
		return err
	}
	return nil
}
