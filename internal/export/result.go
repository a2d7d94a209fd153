package export

import "time"

// FailureKind classifies a per-message failure.
type FailureKind string

const (
	FailureFetch   FailureKind = "fetch"
	FailureParse   FailureKind = "parse"
	FailureConvert FailureKind = "convert"
	FailureWrite   FailureKind = "write"
)

// Failure records one message that could not be exported. The batch
// continues past it.
type Failure struct {
	ID      string
	Subject string // empty when the failure happened before parsing
	Kind    FailureKind
	Message string
}

// FileRecord describes one written output file, retained for index
// generation and history persistence.
type FileRecord struct {
	MessageID string
	ThreadID  string
	Path      string // relative to Result.OutputDir
	Subject   string
	From      string
	Date      time.Time
	DateKnown bool
	RawDate   string
}

// Result is the aggregate outcome of one export run. It is mutated
// only by the orchestrator's sequential loop and is immutable once the
// run returns.
type Result struct {
	Found     int
	Converted int
	Written   int
	Skipped   int
	Failed    int

	Failures []Failure
	Files    []FileRecord

	StartedAt time.Time
	Duration  time.Duration
	OutputDir string

	// Cancelled marks a run that stopped early on request; the counts
	// and files above are valid but incomplete.
	Cancelled bool
	DryRun    bool
}

func (r *Result) recordFailure(id, subject string, kind FailureKind, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{
		ID:      id,
		Subject: subject,
		Kind:    kind,
		Message: err.Error(),
	})
}
