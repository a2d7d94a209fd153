package export

import (
	"context"
	"errors"

	gmail "google.golang.org/api/gmail/v1"
)

// Label is a provider-side tag attached to messages.
type Label struct {
	ID   string
	Name string
}

// Transport is the narrow, authenticated Gmail surface the export
// pipeline requires. Credential acquisition and refresh happen behind
// it; the pipeline never sees tokens.
type Transport interface {
	// ListMessageIDs returns one page of message ids matching the
	// query, plus the continuation token for the next page ("" when
	// exhausted). pageSize is a hint; the provider may return fewer.
	ListMessageIDs(ctx context.Context, query, pageToken string, pageSize int64) (ids []string, nextPageToken string, err error)

	// GetMessage fetches one message in full format.
	GetMessage(ctx context.Context, id string) (*gmail.Message, error)

	// ListLabels returns all labels on the account.
	ListLabels(ctx context.Context) ([]Label, error)
}

// Renderer turns a parsed email into a Markdown document.
// internal/markdown provides the implementation; the pipeline depends
// only on this interface.
type Renderer interface {
	Render(e *Email) (string, error)
}

// Run-level error conditions. Per-message failures are reported in
// Result.Failures instead and never surface as errors.
var (
	// ErrSourceUnavailable wraps a listing-phase transport failure
	// that survived retries. It aborts the run: without an id list
	// there is nothing to process.
	ErrSourceUnavailable = errors.New("message source unavailable")

	// ErrMalformedMessage marks a payload that cannot be decoded as a
	// MIME message at all.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrLabelNotFound is returned when the filter names a label the
	// account does not have.
	ErrLabelNotFound = errors.New("label not found")
)
