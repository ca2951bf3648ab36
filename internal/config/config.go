package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the faxdesk services.
// Environment variables are parsed from the FAXDESK_ prefix,
// e.g. FAXDESK_HTTP_PORT, FAXDESK_POSTGRES_DSN.
type Config struct {
	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Storage driver: postgres or sqlite
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/faxdesk.db"`

	// Artifact store (S3-compatible)
	S3Endpoint  string        `envconfig:"S3_ENDPOINT" default:"localhost:9000"`
	S3AccessKey string        `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey string        `envconfig:"S3_SECRET_KEY" default:""`
	S3Bucket    string        `envconfig:"S3_BUCKET" default:"faxdesk"`
	S3UseSSL    bool          `envconfig:"S3_USE_SSL" default:"false"`
	PresignTTL  time.Duration `envconfig:"PRESIGN_TTL" default:"15m"`

	// Artifact key prefixes watched by the ingest worker
	FaxIncomingPrefix string `envconfig:"FAX_INCOMING_PREFIX" default:"fax/incoming/"`
	RawMailPrefix     string `envconfig:"RAW_MAIL_PREFIX" default:"emails/raw/"`

	// OCR sidecar
	OCRURL string `envconfig:"OCR_URL" default:"http://localhost:8884"`

	// Classifier LLM
	LLMProvider string `envconfig:"LLM_PROVIDER" default:"ollama"`
	LLMModel    string `envconfig:"LLM_MODEL" default:"llama3"`
	LLMBaseURL  string `envconfig:"LLM_BASE_URL" default:"http://localhost:11434"`

	// Outbound mail (SMTP)
	SMTPHost    string `envconfig:"SMTP_HOST" default:"localhost"`
	SMTPPort    int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser    string `envconfig:"SMTP_USER" default:""`
	SMTPPass    string `envconfig:"SMTP_PASS" default:""`
	SenderEmail string `envconfig:"SENDER_EMAIL" default:"noreply@faxdesk.local"`

	// Classify worker
	WorkerBatchSize int           `envconfig:"WORKER_BATCH_SIZE" default:"20"`
	WorkerInterval  time.Duration `envconfig:"WORKER_INTERVAL" default:"2s"`

	// Health probing
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates the driver selection and its required settings.
func (c *Config) ResolveDefaults() error {
	switch c.DBDriver {
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("FAXDESK_POSTGRES_DSN is required with DB_DRIVER=postgres")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("FAXDESK_SQLITE_PATH is required with DB_DRIVER=sqlite")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.WorkerBatchSize <= 0 {
		c.WorkerBatchSize = 20
	}
	if c.WorkerInterval <= 0 {
		c.WorkerInterval = 2 * time.Second
	}
	return nil
}

// New creates a new Config by parsing FAXDESK_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FAXDESK", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
