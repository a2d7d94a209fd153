package export

import "time"

// Filter describes which messages an export run selects. Label and
// Query may both be set; they are combined as independent (ANDed)
// query clauses. Address lists are OR-combined within a list and
// AND-combined across categories.
type Filter struct {
	Label string
	Query string

	// After selects messages on or after this calendar day.
	// Before selects messages up to and including this calendar day
	// (see BuildQuery for the boundary handling).
	// Zero values mean unbounded.
	After  time.Time
	Before time.Time

	From        []string
	To          []string
	ExcludeFrom []string

	// MaxResults caps the number of listed messages. 0 means
	// unlimited.
	MaxResults int64
}

// DateBucket selects the granularity of date-based output
// subdirectories.
type DateBucket int

const (
	BucketYearMonth DateBucket = iota // 2024/01
	BucketYear                        // 2024
	BucketYearMonthDay                // 2024/01/15
)

// ConsolidationMode selects whether per-message files are replaced by
// combined documents.
type ConsolidationMode int

const (
	ConsolidateOff ConsolidationMode = iota
	ConsolidateByThread
	ConsolidateSingle
)

// Options controls how an export run writes its output.
type Options struct {
	OutputDir string

	// Overwrite replaces existing files; when false existing targets
	// are counted as skipped, which is the intended resume mechanism
	// after an interrupted run.
	Overwrite bool

	OrganizeByDate bool
	Bucket         DateBucket

	CreateIndex   bool
	Consolidation ConsolidationMode

	// DryRun counts what would be written without touching the
	// filesystem.
	DryRun bool
}

// Stage identifies the pipeline phase a progress update refers to.
type Stage string

const (
	StageListing    Stage = "listing"
	StageFetching   Stage = "fetching"
	StageParsing    Stage = "parsing"
	StageConverting Stage = "converting"
	StageWriting    Stage = "writing"
)

// ProgressFunc receives an update after each completed or failed
// message. current and total refer to message counts within the run;
// subject is the current message's subject when known.
type ProgressFunc func(stage Stage, current, total int, subject string)
