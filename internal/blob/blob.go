// Package blob abstracts the artifact store holding images, PDFs,
// extracted text files and email attachments.
package blob

import (
	"context"
	"time"
)

// ObjectEvent signals that an object was created under a watched prefix.
type ObjectEvent struct {
	Key string
}

// Store is the artifact-store boundary. Keys are hierarchical
// (prefix + filename); retrieval and upload happen via short-lived
// presigned URLs where the caller is a browser.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Listen streams object-created events for keys under prefix until
	// ctx is canceled.
	Listen(ctx context.Context, prefix string) (<-chan ObjectEvent, error)
}
