package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// runState tracks the orchestrator's position in its lifecycle:
// Idle -> Listing -> Processing -> Finalizing -> Done, with Cancelled
// reachable from Listing/Processing and Failed only from a listing
// failure.
type runState int

const (
	stateIdle runState = iota
	stateListing
	stateProcessing
	stateFinalizing
	stateDone
	stateCancelled
	stateFailed
)

func (s runState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateListing:
		return "listing"
	case stateProcessing:
		return "processing"
	case stateFinalizing:
		return "finalizing"
	case stateDone:
		return "done"
	case stateCancelled:
		return "cancelled"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunMetrics receives pipeline counts for instrumentation. A nil
// implementation is allowed everywhere.
type RunMetrics interface {
	RecordMessage(ctx context.Context, outcome string)
	RecordRun(ctx context.Context, d time.Duration, failed bool)
}

// Orchestrator drives the export pipeline end to end: list ids, then
// fetch/parse/convert/write each message sequentially, then finalize
// with optional index and consolidation output. Messages are processed
// strictly one at a time; the only shared mutable state is the Result
// accumulator owned by the loop itself.
//
// Two runs must not share an output directory concurrently; the
// orchestrator does not provide cross-run locking.
type Orchestrator struct {
	source   *Source
	renderer Renderer
	log      *slog.Logger
	progress ProgressFunc
	metrics  RunMetrics

	state runState
}

// NewOrchestrator wires an orchestrator. renderer is required; logger,
// progress and metrics may be nil.
func NewOrchestrator(source *Source, renderer Renderer, logger *slog.Logger, progress ProgressFunc, metrics RunMetrics) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		source:   source,
		renderer: renderer,
		log:      logger,
		progress: progress,
		metrics:  metrics,
	}
}

// renderedEmail pairs a converted document with the metadata needed
// for consolidation and indexing. Only consolidation mode buffers
// these across the batch; otherwise each is dropped after its write.
type renderedEmail struct {
	email    *Email
	document string
}

// Run executes one export. Per-message failures are recorded in the
// Result and never abort the batch; only a listing-phase failure (or a
// label that does not exist) returns an error, alongside cancellation
// which returns the partial Result flagged as incomplete.
func (o *Orchestrator) Run(ctx context.Context, filter Filter, opts Options) (*Result, error) {
	o.state = stateIdle
	result := &Result{
		StartedAt: time.Now(),
		OutputDir: opts.OutputDir,
		DryRun:    opts.DryRun,
	}
	defer func() {
		result.Duration = time.Since(result.StartedAt)
		if o.metrics != nil {
			o.metrics.RecordRun(ctx, result.Duration, o.state == stateFailed)
		}
	}()

	o.setState(stateListing)
	o.reportProgress(StageListing, 0, 0, "")

	if filter.Label != "" {
		if err := o.checkLabel(ctx, filter.Label); err != nil {
			o.setState(stateFailed)
			return result, err
		}
	}

	query := BuildQuery(filter)
	o.log.Info("listing messages", slog.String("query", query))

	ids, err := o.source.ListIDs(ctx, query, filter.MaxResults)
	if err != nil {
		if ctx.Err() != nil {
			o.setState(stateCancelled)
			result.Cancelled = true
			return result, nil
		}
		o.setState(stateFailed)
		return result, err
	}
	result.Found = len(ids)

	if len(ids) == 0 {
		o.setState(stateDone)
		o.log.Info("no messages matched", slog.String("query", query))
		return result, nil
	}

	o.setState(stateProcessing)
	var buffered []renderedEmail

	for i, id := range ids {
		// Cancellation is cooperative and checked only between
		// messages; an in-flight message always completes.
		if ctx.Err() != nil {
			o.setState(stateCancelled)
			result.Cancelled = true
			o.log.Warn("export cancelled",
				slog.Int("processed", i),
				slog.Int("found", result.Found))
			return result, nil
		}

		rendered := o.processMessage(ctx, id, opts, result, i+1, len(ids))
		if rendered != nil && opts.Consolidation != ConsolidateOff {
			buffered = append(buffered, *rendered)
		}
	}

	// Cancellation during the final message's fetch lands here rather
	// than at the top of the loop.
	if ctx.Err() != nil {
		o.setState(stateCancelled)
		result.Cancelled = true
		o.log.Warn("export cancelled",
			slog.Int("processed", len(ids)),
			slog.Int("found", result.Found))
		return result, nil
	}

	o.setState(stateFinalizing)
	o.finalize(ctx, opts, result, buffered)

	o.setState(stateDone)
	o.log.Info("export complete",
		slog.Int("found", result.Found),
		slog.Int("converted", result.Converted),
		slog.Int("written", result.Written),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Duration("duration", time.Since(result.StartedAt)))
	return result, nil
}

// processMessage runs one message through fetch, parse, convert and
// write. Every failure is caught here, recorded, and reported as
// progress; the returned rendering is non-nil only on success.
func (o *Orchestrator) processMessage(ctx context.Context, id string, opts Options, result *Result, current, total int) *renderedEmail {
	log := o.log.With(slog.String("message_id", id))

	msg, err := o.source.Fetch(ctx, id)
	if err != nil {
		// A fetch cut short by cancellation is a run-level outcome,
		// not a failure of this message; the loop flags the run.
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("fetch failed", slog.String("error", err.Error()))
		result.recordFailure(id, "", FailureFetch, err)
		o.recordOutcome(ctx, "failed")
		o.reportProgress(StageFetching, current, total, "")
		return nil
	}

	email, err := ParseMessage(msg)
	if err != nil {
		log.Warn("parse failed", slog.String("error", err.Error()))
		result.recordFailure(id, "", FailureParse, err)
		o.recordOutcome(ctx, "failed")
		o.reportProgress(StageParsing, current, total, "")
		return nil
	}

	document, err := o.renderer.Render(email)
	if err != nil {
		log.Warn("conversion failed", slog.String("error", err.Error()))
		result.recordFailure(id, email.Subject, FailureConvert, err)
		o.recordOutcome(ctx, "failed")
		o.reportProgress(StageConverting, current, total, email.Subject)
		return nil
	}
	result.Converted++

	rendered := &renderedEmail{email: email, document: document}

	// Consolidation replaces per-message files; the write happens in
	// finalize over the buffered batch.
	if opts.Consolidation != ConsolidateOff {
		o.recordOutcome(ctx, "converted")
		o.reportProgress(StageConverting, current, total, email.Subject)
		return rendered
	}

	target := Resolve(email, opts)
	outcome := o.writeDocument(target, document, opts, result)
	switch outcome {
	case writeSkipped:
		log.Debug("skipped existing file", slog.String("path", target.Path))
		result.Skipped++
		o.recordOutcome(ctx, "skipped")
	case writeFailed:
		result.recordFailure(id, email.Subject, FailureWrite, errors.New("write failed: "+target.Path))
		o.recordOutcome(ctx, "failed")
	default:
		result.Written++
		result.Files = append(result.Files, fileRecord(email, target.Path))
		o.recordOutcome(ctx, "written")
	}
	o.reportProgress(StageWriting, current, total, email.Subject)
	return rendered
}

type writeOutcome int

const (
	writeDone writeOutcome = iota
	writeSkipped
	writeFailed
)

// writeDocument enforces the overwrite policy and performs the actual
// write (or counts it, under dry-run).
func (o *Orchestrator) writeDocument(target FileTarget, document string, opts Options, result *Result) writeOutcome {
	full := filepath.Join(opts.OutputDir, filepath.FromSlash(target.Path))

	if !opts.Overwrite {
		if _, err := os.Stat(full); err == nil {
			return writeSkipped
		}
	}
	if opts.DryRun {
		// Counted as "would write"; nothing touches the filesystem.
		return writeDone
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		o.log.Error("creating output directory", slog.String("path", filepath.Dir(full)), slog.String("error", err.Error()))
		return writeFailed
	}
	if err := os.WriteFile(full, []byte(document), 0o644); err != nil {
		o.log.Error("writing file", slog.String("path", full), slog.String("error", err.Error()))
		return writeFailed
	}
	return writeDone
}

// finalize writes consolidated documents and the index. Failures here
// degrade to log warnings: the per-message output is already on disk.
func (o *Orchestrator) finalize(ctx context.Context, opts Options, result *Result, buffered []renderedEmail) {
	if opts.Consolidation != ConsolidateOff && len(buffered) > 0 {
		if err := o.writeConsolidated(opts, result, buffered); err != nil {
			o.log.Warn("consolidation failed", slog.String("error", err.Error()))
		}
	}

	if opts.CreateIndex && len(result.Files) > 0 && !opts.DryRun {
		if err := WriteIndex(opts.OutputDir, result.Files); err != nil {
			o.log.Warn("index generation failed", slog.String("error", err.Error()))
		} else {
			o.log.Info("index written", slog.Int("entries", len(result.Files)))
		}
	}
}

// checkLabel verifies the filter's label exists, returning
// ErrLabelNotFound with the available names when it does not. Label
// names are matched exactly; Gmail labels are case-sensitive.
func (o *Orchestrator) checkLabel(ctx context.Context, name string) error {
	labels, err := o.source.Labels(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Name == name {
			return nil
		}
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return fmt.Errorf("%w: %q (available: %s)", ErrLabelNotFound, name, strings.Join(names, ", "))
}

func (o *Orchestrator) setState(s runState) {
	o.log.Debug("state transition",
		slog.String("from", o.state.String()),
		slog.String("to", s.String()))
	o.state = s
}

func (o *Orchestrator) reportProgress(stage Stage, current, total int, subject string) {
	if o.progress != nil {
		o.progress(stage, current, total, subject)
	}
}

func (o *Orchestrator) recordOutcome(ctx context.Context, outcome string) {
	if o.metrics != nil {
		o.metrics.RecordMessage(ctx, outcome)
	}
}

func fileRecord(e *Email, relPath string) FileRecord {
	return FileRecord{
		MessageID: e.ID,
		ThreadID:  e.ThreadID,
		Path:      relPath,
		Subject:   e.Subject,
		From:      e.From(),
		Date:      e.Date,
		DateKnown: e.DateKnown,
		RawDate:   e.RawDate,
	}
}
