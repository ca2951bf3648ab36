package ingest

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/blob"
)

// Worker consumes object-created notifications for the FAX and raw-mail
// intake prefixes and drives the matching pipeline. One bad object never
// stops the stream.
type Worker struct {
	blobs         blob.Store
	fax           *FaxPipeline
	email         *EmailPipeline
	faxPrefix     string
	rawMailPrefix string
	log           zerolog.Logger
}

func NewWorker(blobs blob.Store, fax *FaxPipeline, email *EmailPipeline, faxPrefix, rawMailPrefix string, log zerolog.Logger) *Worker {
	return &Worker{
		blobs:         blobs,
		fax:           fax,
		email:         email,
		faxPrefix:     faxPrefix,
		rawMailPrefix: rawMailPrefix,
		log:           log,
	}
}

// Run consumes both notification streams until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	faxEvents, err := w.blobs.Listen(ctx, w.faxPrefix)
	if err != nil {
		return err
	}
	mailEvents, err := w.blobs.Listen(ctx, w.rawMailPrefix)
	if err != nil {
		return err
	}
	w.log.Info().Str("faxPrefix", w.faxPrefix).Str("rawMailPrefix", w.rawMailPrefix).Msg("ingest worker starting")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.consume(ctx, faxEvents)
	}()
	go func() {
		defer wg.Done()
		w.consume(ctx, mailEvents)
	}()
	wg.Wait()

	w.log.Info().Msg("ingest worker stopping")
	return ctx.Err()
}

func (w *Worker) consume(ctx context.Context, events <-chan blob.ObjectEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.Dispatch(ctx, ev.Key)
		}
	}
}

// Dispatch routes one object key to its pipeline by prefix.
func (w *Worker) Dispatch(ctx context.Context, key string) {
	switch {
	case strings.HasPrefix(key, w.faxPrefix):
		if _, err := w.fax.Handle(ctx, key); err != nil {
			w.log.Error().Err(err).Str("key", key).Msg("fax ingestion failed")
		}
	case strings.HasPrefix(key, w.rawMailPrefix):
		if _, err := w.email.Handle(ctx, key); err != nil {
			w.log.Error().Err(err).Str("key", key).Msg("email ingestion failed")
		}
	default:
		w.log.Debug().Str("key", key).Msg("ignoring object outside intake prefixes")
	}
}
