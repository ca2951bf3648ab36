// Package classify assigns tags and a category to a document from its
// extracted text.
package classify

import "context"

// Result is the outcome of one classification call.
type Result struct {
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
}

// Classifier produces a Result for a document's text content.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Result, error)
}
