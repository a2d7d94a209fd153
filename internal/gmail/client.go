package gmail

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailtools/gmail2md/internal/export"
	"github.com/mailtools/gmail2md/internal/google"
)

// Gmail API quota units per call, and the per-user quota budget.
// See https://developers.google.com/gmail/api/reference/quota
const (
	quotaUnitsPerMessagesGet  = 5
	quotaUnitsPerMessagesList = 5
	quotaUnitsPerLabelsList   = 1

	quotaUnitsPerSecond = 250
	rateLimitPerSecond  = quotaUnitsPerSecond * 0.8
	rateLimitBurst      = quotaUnitsPerSecond
)

// Client talks to the Gmail API for a single account. It implements
// export.Transport and keeps request volume under the per-user quota
// with a client-side limiter, so bursts of message fetches do not run
// straight into 429 responses.
type Client struct {
	svc     *gmail.UsersService
	account string
	limiter *rate.Limiter
}

var _ export.Transport = (*Client)(nil)

// HasToken checks if a valid OAuth token exists for the account.
func HasToken(account string) bool {
	return google.HasToken(account)
}

// NewClientForAccount creates a Gmail client authenticated as the given
// account.
func NewClientForAccount(ctx context.Context, creds google.Credentials, account string) (*Client, error) {
	httpClient, err := google.GetHTTPClient(ctx, creds, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token for account %s: %w", account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		limiter: rate.NewLimiter(rateLimitPerSecond, rateLimitBurst),
	}, nil
}

// NewClient creates a Gmail client for the default account.
func NewClient(ctx context.Context, creds google.Credentials) (*Client, error) {
	return NewClientForAccount(ctx, creds, google.DefaultAccount)
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// ListMessageIDs returns one page of message ids matching query,
// together with the continuation token for the next page ("" when
// exhausted).
func (c *Client) ListMessageIDs(ctx context.Context, query, pageToken string, pageSize int64) ([]string, string, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPerMessagesList); err != nil {
		return nil, "", err
	}

	call := c.svc.Messages.List("me").Context(ctx).MaxResults(pageSize)
	if query != "" {
		call = call.Q(query)
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, "", err
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

// GetMessage fetches one message in full format, including the complete
// MIME part tree.
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPerMessagesGet); err != nil {
		return nil, err
	}
	return c.svc.Messages.Get("me", id).Context(ctx).Format("full").Do()
}

// ListLabels returns the account's labels.
func (c *Client) ListLabels(ctx context.Context) ([]export.Label, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPerLabelsList); err != nil {
		return nil, err
	}

	resp, err := c.svc.Labels.List("me").Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	labels := make([]export.Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, export.Label{ID: l.Id, Name: l.Name})
	}
	return labels, nil
}

// Profile returns the authenticated mailbox's email address.
func (c *Client) Profile(ctx context.Context) (string, error) {
	if err := c.limiter.WaitN(ctx, quotaUnitsPerLabelsList); err != nil {
		return "", err
	}
	p, err := c.svc.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return p.EmailAddress, nil
}
