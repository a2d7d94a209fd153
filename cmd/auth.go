package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mailtools/gmail2md/internal/google"
)

func newAuthCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize gmail2md to read a Gmail account",
		Long: `Run the OAuth flow for an account. A browser URL is printed; after
approving read-only access, paste the authorization code back here.
The resulting token is cached per account, so this only needs to be
done once per mailbox.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := google.CredentialsFromEnv(google.Credentials{
				ClientID:     cfg.Auth.ClientID,
				ClientSecret: cfg.Auth.ClientSecret,
			})

			if google.HasToken(account) {
				fmt.Fprintf(cmd.OutOrStdout(), "Account %q is already authorized; continuing re-authorizes it.\n", account)
			}

			url, err := google.GetAuthURL(creds)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Visit this URL to authorize access:\n\n  %s\n\nPaste the authorization code: ", url)

			reader := bufio.NewReader(cmd.InOrStdin())
			code, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading authorization code: %w", err)
			}
			code = strings.TrimSpace(code)
			if code == "" {
				return fmt.Errorf("empty authorization code")
			}

			if err := google.SaveToken(cmd.Context(), creds, account, code); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token saved for account %q.\n", account)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Google account name to authorize")
	return cmd
}
