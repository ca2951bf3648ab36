package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

// OCRClient calls an OCR sidecar over HTTP. The sidecar accepts raw image
// bytes on POST /ocr and answers {"lines": [...]}.
type OCRClient struct {
	http *resty.Client
}

// NewOCRClient builds a client for the sidecar at baseURL.
func NewOCRClient(baseURL string) *OCRClient {
	return &OCRClient{http: resty.New().SetBaseURL(baseURL)}
}

type ocrResponse struct {
	Lines []string `json:"lines"`
	Error string   `json:"error,omitempty"`
}

func (c *OCRClient) ExtractText(ctx context.Context, image []byte) (string, error) {
	var out ocrResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(image).
		SetResult(&out).
		Post("/ocr")
	if err != nil {
		return "", fmt.Errorf("ocr request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ocr status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return "", fmt.Errorf("ocr error: %s", out.Error)
	}
	return strings.Join(out.Lines, "\n"), nil
}

// HealthPing implements health.HealthPinger against the sidecar's
// health endpoint.
func (c *OCRClient) HealthPing(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ocr health status %d", resp.StatusCode())
	}
	return nil
}
