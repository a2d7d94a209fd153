// Package cmd implements the command-line interface for gmail2md.
//
// This package provides the following commands:
//   - export: Export matching Gmail messages to Markdown files
//   - auth: Run the OAuth flow and cache a token for an account
//   - labels: List the labels of an account
//   - history: Inspect past export runs
//   - profiles: Manage saved export profiles
//   - version: Display version information
package cmd
