// Package extract wraps the text-extraction boundary: an OCR sidecar for
// images plus a local fallback for PDFs that already embed text.
package extract

import "context"

// Extractor turns image bytes into plain-text lines.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}
