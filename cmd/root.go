package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailtools/gmail2md/internal/config"
	"github.com/mailtools/gmail2md/internal/logging"
)

// rootCmd represents the base command for the gmail2md application
var rootCmd = &cobra.Command{
	Use:   "gmail2md",
	Short: "Export Gmail messages as Markdown files",
	Long: `gmail2md exports messages from a Gmail mailbox into clean Markdown
documents, one file per message (or consolidated documents), with a
metadata header and an optional INDEX.md table of contents.

Messages are selected by label, free-text Gmail query, date range and
sender filters. Recurring exports can be saved as named profiles.`,
	SilenceUsage: true,
}

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
	log *slog.Logger
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmail2md version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the config file and builds the logger. It runs before
// every subcommand; flags override the config file.
func setup(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	format := cfg.Logging.Format
	if cmd.Flags().Changed("log-format") {
		format = logFormat
	}
	log = logging.New(os.Stderr, logging.ParseLevel(level), format)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")
	rootCmd.PersistentPreRunE = setup

	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newLabelsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newProfilesCmd())
	rootCmd.AddCommand(newVersionCmd())
}
