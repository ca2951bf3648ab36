// Package factory constructs the shared infrastructure adapters
// (store, artifact store, classifier) from configuration.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/avclabs/faxdesk/internal/blob"
	"github.com/avclabs/faxdesk/internal/classify"
	"github.com/avclabs/faxdesk/internal/config"
	storepkg "github.com/avclabs/faxdesk/internal/store"
	storepg "github.com/avclabs/faxdesk/internal/store/postgres"
	storelite "github.com/avclabs/faxdesk/internal/store/sqlite"
)

// NewStore returns the configured store.Store. Postgres is the
// production driver; sqlite serves local development. Schema bootstrap
// for postgres runs async so a slow database does not block startup.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := storepg.EnsureSchema(bootstrapCtx, db); err != nil {
				log.Warn().Err(err).Msg("store schema bootstrap failed")
			}
		}()
		return storepg.NewWithDB(db), nil
	case "sqlite":
		return storelite.New(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}

// NewBlobStore connects the S3-compatible artifact store.
func NewBlobStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*blob.MinioStore, error) {
	return blob.NewMinio(ctx, blob.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		UseSSL:    cfg.S3UseSSL,
	}, log)
}

// NewClassifier builds the LLM classifier behind its circuit breaker.
func NewClassifier(cfg *config.Config, log zerolog.Logger) (classify.Classifier, error) {
	llm, err := classify.NewLLM(classify.LLMOptions{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
	}, log)
	if err != nil {
		return nil, err
	}
	return classify.NewBreaker(llm, log), nil
}
