package google

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultAccount is the account name used when none is specified.
const DefaultAccount = "default"

// Credentials identify the OAuth application. They come from the
// config file or the GMAIL2MD_CLIENT_ID/GMAIL2MD_CLIENT_SECRET
// environment variables; the environment wins.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// CredentialsFromEnv overlays environment variables onto creds.
func CredentialsFromEnv(creds Credentials) Credentials {
	if v := os.Getenv("GMAIL2MD_CLIENT_ID"); v != "" {
		creds.ClientID = v
	}
	if v := os.Getenv("GMAIL2MD_CLIENT_SECRET"); v != "" {
		creds.ClientSecret = v
	}
	return creds
}

// oauthConfig returns the OAuth2 configuration. Only read-only Gmail
// access is requested; the tool never needs to modify the mailbox.
func oauthConfig(creds Credentials) (*oauth2.Config, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("missing OAuth client credentials (set auth.client_id/auth.client_secret in the config file or GMAIL2MD_CLIENT_ID/GMAIL2MD_CLIENT_SECRET)")
	}
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     googleauth.Endpoint,
		RedirectURL:  oob,
		Scopes:       []string{gmail.GmailReadonlyScope},
	}, nil
}

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateAccountName rejects names that could escape the cache
// directory or produce surprising file names.
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q (use letters, digits, '-' and '_')", account)
	}
	return nil
}

// getTokenFilePath returns the token cache location for an account.
func getTokenFilePath(account string) string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "gmail2md", "google-"+account+".token")
}

// HasToken checks whether a cached token exists for the account.
func HasToken(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// GetAuthURL returns the URL the user must visit to authorize access.
func GetAuthURL(creds Credentials) (string, error) {
	conf, err := oauthConfig(creds)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline), nil
}

// SaveToken exchanges an authorization code for tokens and caches them
// for the account.
func SaveToken(ctx context.Context, creds Credentials, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	conf, err := oauthConfig(creds)
	if err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchanging auth code: %w", err)
	}

	tokenFile := getTokenFilePath(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0o700); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	tokenData := t.AccessToken + " " + t.RefreshToken
	if err := os.WriteFile(tokenFile, []byte(tokenData), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// GetTokenSource returns an OAuth2 token source backed by the cached
// token for the account, refreshing as needed.
func GetTokenSource(ctx context.Context, creds Credentials, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	conf, err := oauthConfig(creds)
	if err != nil {
		return nil, err
	}

	slurp, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no cached token for account %q; run 'gmail2md auth' first", account)
	}

	f := strings.Fields(strings.TrimSpace(string(slurp)))
	if len(f) != 2 {
		return nil, fmt.Errorf("invalid token file for account %q", account)
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{
		AccessToken:  f[0],
		TokenType:    "Bearer",
		RefreshToken: f[1],
		Expiry:       time.Unix(1, 0),
	})

	if _, err := ts.Token(); err != nil {
		return nil, fmt.Errorf("cached token for account %q is invalid: %w", account, err)
	}
	return ts, nil
}

// GetHTTPClient returns an HTTP client that authenticates requests with
// the account's cached token.
func GetHTTPClient(ctx context.Context, creds Credentials, account string) (*http.Client, error) {
	ts, err := GetTokenSource(ctx, creds, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}
