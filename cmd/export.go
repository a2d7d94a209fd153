package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mailtools/gmail2md/internal/export"
	"github.com/mailtools/gmail2md/internal/gmail"
	"github.com/mailtools/gmail2md/internal/google"
	"github.com/mailtools/gmail2md/internal/history"
	"github.com/mailtools/gmail2md/internal/instrumentation"
	"github.com/mailtools/gmail2md/internal/markdown"
	"github.com/mailtools/gmail2md/internal/profiles"
)

type exportFlags struct {
	account     string
	label       string
	query       string
	after       string
	before      string
	from        []string
	to          []string
	excludeFrom []string
	maxResults  int64

	outputDir      string
	organizeByDate bool
	dateBucket     string
	noIndex        bool
	overwrite      bool
	consolidate    string
	dryRun         bool
	wrapWidth      int
	metrics        bool

	profile     string
	saveProfile string
}

func newExportCmd() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export matching messages to Markdown files",
		Long: `Export messages matching the given filters to Markdown files.

Each message becomes one .md file named after its subject and a short
message id, or messages can be consolidated into combined documents
with --consolidate. Existing files are skipped unless --overwrite is
given, so re-running an export is cheap and idempotent.`,
		Example: `  gmail2md export --label Work --after 2024-01-01
  gmail2md export --from boss@corp.com --output ./mail --organize-by-date
  gmail2md export --profile weekly-report --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, &flags)
		},
	}

	cmd.Flags().StringVar(&flags.account, "account", google.DefaultAccount, "Google account name to use")
	cmd.Flags().StringVar(&flags.label, "label", "", "Gmail label to export (exact name)")
	cmd.Flags().StringVarP(&flags.query, "query", "q", "", "free-text Gmail search query")
	cmd.Flags().StringVar(&flags.after, "after", "", "only messages on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.before, "before", "", "only messages on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&flags.from, "from", nil, "only messages from these senders (repeatable)")
	cmd.Flags().StringSliceVar(&flags.to, "to", nil, "only messages to these recipients (repeatable)")
	cmd.Flags().StringSliceVar(&flags.excludeFrom, "exclude-from", nil, "exclude messages from these senders")
	cmd.Flags().Int64Var(&flags.maxResults, "max", 0, "maximum number of messages to export (0 = unlimited)")

	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&flags.organizeByDate, "organize-by-date", false, "place files in date subdirectories")
	cmd.Flags().StringVar(&flags.dateBucket, "date-bucket", "", "date subdirectory granularity (year, year-month, year-month-day)")
	cmd.Flags().BoolVar(&flags.noIndex, "no-index", false, "skip INDEX.md generation")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "overwrite existing files instead of skipping")
	cmd.Flags().StringVar(&flags.consolidate, "consolidate", "", "combine messages into one document per thread ('thread') or a single file ('single')")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "report what would be written without writing")
	cmd.Flags().IntVar(&flags.wrapWidth, "wrap", 0, "wrap body text at this column (0 = no wrapping)")
	cmd.Flags().BoolVar(&flags.metrics, "metrics", false, "emit OpenTelemetry metrics to stderr")

	cmd.Flags().StringVar(&flags.profile, "profile", "", "load filters from a saved profile")
	cmd.Flags().StringVar(&flags.saveProfile, "save-profile", "", "save these filters as a named profile and exit")

	return cmd
}

func runExport(cmd *cobra.Command, flags *exportFlags) error {
	if flags.profile != "" {
		p, err := profiles.NewManager("").Get(flags.profile)
		if err != nil {
			return err
		}
		applyProfile(cmd, flags, p)
	}

	if flags.saveProfile != "" {
		p := profileFromFlags(flags)
		p.Name = flags.saveProfile
		if err := profiles.NewManager("").Save(p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q\n", p.Name)
		return nil
	}

	filter, err := buildFilter(flags)
	if err != nil {
		return err
	}
	opts, err := buildOptions(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	creds := google.CredentialsFromEnv(google.Credentials{
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
	})
	client, err := gmail.NewClientForAccount(ctx, creds, flags.account)
	if err != nil {
		return err
	}

	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		Enabled:        flags.metrics || cfg.Metrics.Enabled,
		ServiceVersion: version,
		ExportInterval: time.Duration(cfg.Metrics.IntervalSeconds) * time.Second,
	}, nil)
	if err != nil {
		return err
	}
	defer provider.Shutdown(context.WithoutCancel(ctx))

	wrapWidth := flags.wrapWidth
	if wrapWidth == 0 {
		wrapWidth = cfg.Export.WrapWidth
	}
	renderer := markdown.New(markdown.Options{WrapWidth: wrapWidth})
	source := export.NewSource(client, log)

	progress := func(stage export.Stage, current, total int, subject string) {
		if total == 0 || stage != export.StageWriting && stage != export.StageConverting {
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\r[%d/%d] %s", current, total, truncateSubject(subject))
		if current == total {
			fmt.Fprintln(cmd.ErrOrStderr())
		}
	}

	orch := export.NewOrchestrator(source, renderer, log, progress, provider.Metrics())
	result, err := orch.Run(ctx, filter, opts)
	if err != nil {
		return err
	}

	printSummary(cmd, result)
	recordHistory(ctx, filter, result)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d messages failed", result.Failed, result.Found)
	}
	return nil
}

// applyProfile copies profile values into flags, but only where the
// user did not set the flag explicitly on this invocation.
func applyProfile(cmd *cobra.Command, flags *exportFlags, p profiles.Profile) {
	set := cmd.Flags().Changed
	if !set("label") {
		flags.label = p.Label
	}
	if !set("query") {
		flags.query = p.Query
	}
	if !set("after") {
		flags.after = p.After
	}
	if !set("before") {
		flags.before = p.Before
	}
	if !set("from") {
		flags.from = p.From
	}
	if !set("to") {
		flags.to = p.To
	}
	if !set("exclude-from") {
		flags.excludeFrom = p.ExcludeFrom
	}
	if !set("max") {
		flags.maxResults = p.MaxResults
	}
	if !set("output") && p.OutputDir != "" {
		flags.outputDir = p.OutputDir
	}
	if !set("organize-by-date") {
		flags.organizeByDate = p.OrganizeByDate
	}
	if !set("date-bucket") {
		flags.dateBucket = p.DateBucket
	}
	if !set("consolidate") {
		flags.consolidate = p.Consolidate
	}
}

func profileFromFlags(flags *exportFlags) profiles.Profile {
	return profiles.Profile{
		Label:          flags.label,
		Query:          flags.query,
		After:          flags.after,
		Before:         flags.before,
		From:           flags.from,
		To:             flags.to,
		ExcludeFrom:    flags.excludeFrom,
		MaxResults:     flags.maxResults,
		OutputDir:      flags.outputDir,
		OrganizeByDate: flags.organizeByDate,
		DateBucket:     flags.dateBucket,
		Consolidate:    flags.consolidate,
	}
}

func buildFilter(flags *exportFlags) (export.Filter, error) {
	filter := export.Filter{
		Label:       flags.label,
		Query:       flags.query,
		From:        flags.from,
		To:          flags.to,
		ExcludeFrom: flags.excludeFrom,
		MaxResults:  flags.maxResults,
	}

	var err error
	if flags.after != "" {
		if filter.After, err = time.Parse("2006-01-02", flags.after); err != nil {
			return filter, fmt.Errorf("invalid --after date %q (want YYYY-MM-DD)", flags.after)
		}
	}
	if flags.before != "" {
		if filter.Before, err = time.Parse("2006-01-02", flags.before); err != nil {
			return filter, fmt.Errorf("invalid --before date %q (want YYYY-MM-DD)", flags.before)
		}
	}
	if !filter.After.IsZero() && !filter.Before.IsZero() && filter.Before.Before(filter.After) {
		return filter, fmt.Errorf("--before (%s) is earlier than --after (%s)", flags.before, flags.after)
	}
	return filter, nil
}

func buildOptions(flags *exportFlags) (export.Options, error) {
	opts := export.Options{
		OutputDir:      flags.outputDir,
		Overwrite:      flags.overwrite,
		OrganizeByDate: flags.organizeByDate || cfg.Export.OrganizeByDate,
		CreateIndex:    !flags.noIndex && cfg.Export.CreateIndex,
		DryRun:         flags.dryRun,
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Export.OutputDir
	}
	if flags.overwrite || cfg.Export.Overwrite {
		opts.Overwrite = true
	}

	bucket := flags.dateBucket
	if bucket == "" {
		bucket = cfg.Export.DateBucket
	}
	switch bucket {
	case "", "year-month":
		opts.Bucket = export.BucketYearMonth
	case "year":
		opts.Bucket = export.BucketYear
	case "year-month-day":
		opts.Bucket = export.BucketYearMonthDay
	default:
		return opts, fmt.Errorf("invalid date bucket %q (want year, year-month or year-month-day)", bucket)
	}

	switch flags.consolidate {
	case "":
		opts.Consolidation = export.ConsolidateOff
	case "thread":
		opts.Consolidation = export.ConsolidateByThread
	case "single":
		opts.Consolidation = export.ConsolidateSingle
	default:
		return opts, fmt.Errorf("invalid --consolidate mode %q (want thread or single)", flags.consolidate)
	}
	return opts, nil
}

func printSummary(cmd *cobra.Command, result *export.Result) {
	out := cmd.OutOrStdout()

	verb := "Exported"
	if result.DryRun {
		verb = "Would export"
	}
	fmt.Fprintf(out, "%s %d of %d messages to %s (%d skipped, %d failed) in %s\n",
		verb, result.Written, result.Found, result.OutputDir,
		result.Skipped, result.Failed, result.Duration.Round(time.Millisecond))

	if result.Cancelled {
		fmt.Fprintln(out, "Export was cancelled; output is incomplete.")
	}
	for _, f := range result.Failures {
		fmt.Fprintf(out, "  failed (%s): %s %s\n", f.Kind, f.ID, f.Message)
	}
}

// recordHistory persists the run. History failures only warn; the
// export itself already succeeded.
func recordHistory(ctx context.Context, filter export.Filter, result *export.Result) {
	if !cfg.History.Enabled || result.DryRun {
		return
	}
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		log.Warn("opening history database", "error", err.Error())
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, export.BuildQuery(filter), result); err != nil {
		log.Warn("recording history", "error", err.Error())
	}
}

func truncateSubject(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if runes := []rune(s); len(runes) > 60 {
		return string(runes[:57]) + "..."
	}
	return s
}
