// Package pdfrender renders ingested FAX page images into a single PDF.
package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Renderer produces one PDF from a set of page images, one page per image.
type Renderer interface {
	RenderPDF(ctx context.Context, images [][]byte) ([]byte, error)
}

// PDFCPURenderer renders via pdfcpu's image import: pages normalized to
// A4 with each image fit and centered.
type PDFCPURenderer struct{}

func NewPDFCPU() *PDFCPURenderer { return &PDFCPURenderer{} }

func (r *PDFCPURenderer) RenderPDF(ctx context.Context, images [][]byte) ([]byte, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("no images to render")
	}
	imp, err := api.Import("form:A4, pos:c", types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("parse import config: %w", err)
	}
	readers := make([]io.Reader, 0, len(images))
	for _, img := range images {
		readers = append(readers, bytes.NewReader(img))
	}
	var out bytes.Buffer
	if err := api.ImportImages(nil, &out, readers, imp, nil); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return out.Bytes(), nil
}
