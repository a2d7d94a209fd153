package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mailtools/gmail2md/internal/export"
	"github.com/mailtools/gmail2md/internal/gmail"
	"github.com/mailtools/gmail2md/internal/google"
)

func newLabelsCmd() *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List the labels of a Gmail account",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := google.CredentialsFromEnv(google.Credentials{
				ClientID:     cfg.Auth.ClientID,
				ClientSecret: cfg.Auth.ClientSecret,
			})
			client, err := gmail.NewClientForAccount(cmd.Context(), creds, account)
			if err != nil {
				return err
			}

			labels, err := export.NewSource(client, log).Labels(cmd.Context())
			if err != nil {
				return err
			}

			sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
			for _, l := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), l.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Google account name to use")
	return cmd
}
