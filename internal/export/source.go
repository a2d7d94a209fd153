package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

const (
	// listPageSize is the page size requested from the provider while
	// listing. Gmail caps list pages at 500 ids.
	listPageSize = 500

	sourceMaxAttempts    = 3
	sourceInitialBackoff = time.Second
)

// Source wraps a Transport with pagination and bounded retry. Each
// call is a fresh set of network requests; nothing is cached.
type Source struct {
	transport Transport
	log       *slog.Logger
}

// NewSource returns a Source over the given transport. logger may be
// nil, in which case logging is discarded.
func NewSource(transport Transport, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{transport: transport, log: logger}
}

// ListIDs lists all message ids matching query, following continuation
// tokens until the provider is exhausted or max ids have been
// collected (max <= 0 means unlimited). Transport failures are retried
// up to 3 attempts with exponential backoff; exhaustion surfaces as
// ErrSourceUnavailable, which is fatal to the run.
func (s *Source) ListIDs(ctx context.Context, query string, max int64) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		pageSize := int64(listPageSize)
		if max > 0 {
			remaining := max - int64(len(ids))
			if remaining <= 0 {
				break
			}
			if remaining < pageSize {
				pageSize = remaining
			}
		}

		token := pageToken
		type page struct {
			ids  []string
			next string
		}
		p, err := retryTransient(ctx, func() (page, error) {
			pageIDs, next, err := s.transport.ListMessageIDs(ctx, query, token, pageSize)
			return page{ids: pageIDs, next: next}, err
		})
		if err != nil {
			return nil, fmt.Errorf("%w: listing messages: %v", ErrSourceUnavailable, err)
		}

		ids = append(ids, p.ids...)
		s.log.Debug("listed message page",
			slog.Int("page_count", len(p.ids)),
			slog.Int("total", len(ids)))

		if p.next == "" {
			break
		}
		pageToken = p.next
	}

	if max > 0 && int64(len(ids)) > max {
		ids = ids[:max]
	}
	return ids, nil
}

// Fetch retrieves one message in full format with the same retry
// policy as ListIDs. A failure here is a per-item condition: the
// caller records it and moves on rather than aborting the batch.
func (s *Source) Fetch(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := retryTransient(ctx, func() (*gmail.Message, error) {
		return s.transport.GetMessage(ctx, id)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching message %s: %w", id, err)
	}
	return msg, nil
}

// Labels lists the account's labels, retrying transient failures.
func (s *Source) Labels(ctx context.Context) ([]Label, error) {
	labels, err := retryTransient(ctx, func() ([]Label, error) {
		return s.transport.ListLabels(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing labels: %v", ErrSourceUnavailable, err)
	}
	return labels, nil
}

// retryTransient runs op with exponential backoff starting at 1s, at
// most 3 attempts. Non-transient provider errors (4xx other than 429)
// fail immediately.
func retryTransient[T any](ctx context.Context, op func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = sourceInitialBackoff

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(sourceMaxAttempts))
}

// isTransient reports whether an error is worth retrying: rate limits,
// server-side failures, and network-level errors.
func isTransient(err error) bool {
	// Context errors come first: DeadlineExceeded satisfies net.Error,
	// and a dead context makes any retry pointless.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// Unclassified errors (closed connections, EOF) get the benefit
	// of the doubt.
	return true
}
