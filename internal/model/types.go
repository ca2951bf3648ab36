package model

import (
	"strings"
	"time"
)

// DocumentType discriminates how a document entered the system.
type DocumentType string

const (
	DocumentTypeFax   DocumentType = "fax"
	DocumentTypeEmail DocumentType = "email"
)

// Category is the closed classification vocabulary. Values outside the
// known set are preserved verbatim rather than coerced; Known reports
// whether a value belongs to the closed enumeration.
type Category string

const (
	CategoryInvoice      Category = "invoice"
	CategoryOrder        Category = "order"
	CategoryContract     Category = "contract"
	CategoryQuotation    Category = "quotation"
	CategoryReceipt      Category = "receipt"
	CategoryNotification Category = "notification"
	CategoryInternal     Category = "internal"
	CategoryOther        Category = "other"
)

var knownCategories = map[Category]bool{
	CategoryInvoice:      true,
	CategoryOrder:        true,
	CategoryContract:     true,
	CategoryQuotation:    true,
	CategoryReceipt:      true,
	CategoryNotification: true,
	CategoryInternal:     true,
	CategoryOther:        true,
}

func (c Category) Known() bool { return knownCategories[c] }

// Memo is one free-text annotation attached to a document, optionally
// pinned to a page. MemoID is unique within the owning document only.
type Memo struct {
	MemoID    string    `json:"memoId"`
	Text      string    `json:"text"`
	Page      *int      `json:"page"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Deleted reports whether the memo is logically deleted (empty or
// whitespace-only text). Deleted memos never surface to API consumers.
func (m Memo) Deleted() bool { return strings.TrimSpace(m.Text) == "" }

// MemoSummary is the latest-memo projection cached on the document for
// list-view display.
type MemoSummary struct {
	Text      string    `json:"text"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Document is the stored record for one ingested FAX or email artifact.
type Document struct {
	ID         string       `json:"id"`
	Type       DocumentType `json:"type"`
	Subject    string       `json:"subject"`
	Sender     string       `json:"sender"`
	ReceivedAt time.Time    `json:"receivedAt"`

	// S3Key locates the primary renderable artifact (the PDF for fax
	// documents); empty for email-only bodies.
	S3Key         string                 `json:"s3Key,omitempty"`
	ExtractedText string                 `json:"extractedText,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`

	Tags                     []string     `json:"tags"`
	Folder                   string       `json:"folder,omitempty"`
	Category                 Category     `json:"category,omitempty"`
	ClassificationConfidence *float64     `json:"classificationConfidence,omitempty"`
	Memos                    []Memo       `json:"memos,omitempty"`
	LatestMemo               *MemoSummary `json:"latestMemo,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Version is the optimistic-concurrency token checked on memo writes.
	// It never leaves the service.
	Version int64 `json:"-"`
}

// LabelUpdate carries a partial tags/folder/category update. Nil fields
// are left untouched, never cleared.
type LabelUpdate struct {
	Tags     *[]string `json:"tags,omitempty"`
	Folder   *string   `json:"folder,omitempty"`
	Category *Category `json:"category,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u LabelUpdate) Empty() bool {
	return u.Tags == nil && u.Folder == nil && u.Category == nil
}

// Classification is the raw result returned by the classifier service.
type Classification struct {
	Tags       []string `json:"tags"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasoning  string   `json:"reasoning,omitempty"`
}

// ListDocumentsRequest captures the exact-match filters used when listing.
type ListDocumentsRequest struct {
	Type     string
	Tag      string
	Folder   string
	Category string
	// SortByReceived orders results by receivedAt descending; the default
	// is insertion order and clients must not rely on it.
	SortByReceived bool
}

// OutboxJob is one pending asynchronous operation.
type OutboxJob struct {
	ID          int64
	Op          string
	AggregateID string
	Payload     map[string]interface{}
	Attempts    int
}

// DedupeTags returns tags with duplicates removed, keeping first
// occurrence order.
func DedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// CleanMemos filters logically-deleted memos out of the sequence,
// preserving order. dirty reports whether anything was removed, in which
// case readers should persist the cleaned sequence back to the store.
func CleanMemos(memos []Memo) (clean []Memo, dirty bool) {
	clean = make([]Memo, 0, len(memos))
	for _, m := range memos {
		if m.Deleted() {
			dirty = true
			continue
		}
		clean = append(clean, m)
	}
	return clean, dirty
}

// LatestMemo returns the projection of the last non-empty memo, or nil
// when the cleaned sequence is empty.
func LatestMemo(clean []Memo) *MemoSummary {
	if len(clean) == 0 {
		return nil
	}
	last := clean[len(clean)-1]
	return &MemoSummary{Text: last.Text, UpdatedAt: last.UpdatedAt}
}
