// Package google provides OAuth2 authentication and token management
// for the Gmail API.
//
// Tokens are cached per account under the user cache directory, so
// multiple mailboxes can be exported from one machine without
// re-authorizing. Only the gmail.readonly scope is ever requested.
package google
