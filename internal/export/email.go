package export

import (
	"strings"
	"time"
)

// NoSubject is the placeholder used for messages without a Subject header.
const NoSubject = "No Subject"

// Email is a parsed, immutable view of a single Gmail message.
// At least one of BodyHTML/BodyText is set unless EmptyBody is true.
type Email struct {
	ID       string
	ThreadID string

	// Headers holds the decoded message headers keyed by canonical
	// name (e.g. "From", "Subject"). Use Header for case-insensitive
	// lookup.
	Headers map[string]string

	// Subject is the decoded Subject header, or NoSubject.
	Subject string

	// Date is the parsed Date header (or the provider's internal
	// timestamp when the header is unparsable). The original timezone
	// offset is preserved in the Location. DateKnown is false when
	// neither source yielded a usable instant; Date is then the zero
	// time.
	Date      time.Time
	DateKnown bool

	// RawDate is the Date header exactly as it appeared, kept for
	// display so the sender's timezone formatting survives.
	RawDate string

	BodyHTML  string
	BodyText  string
	EmptyBody bool

	Labels []string
}

// Header returns the value of the named header, matching
// case-insensitively. Returns "" when the header is absent.
func (e *Email) Header(name string) string {
	if v, ok := e.Headers[name]; ok {
		return v
	}
	for k, v := range e.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// From, To and Cc are convenience accessors for the common headers.
func (e *Email) From() string { return e.Header("From") }
func (e *Email) To() string   { return e.Header("To") }
func (e *Email) Cc() string   { return e.Header("Cc") }

// DisplayDate returns the date string used in rendered output: the raw
// Date header when present, an RFC 1123 rendering of the fallback
// timestamp otherwise, or "Unknown".
func (e *Email) DisplayDate() string {
	if e.RawDate != "" {
		return e.RawDate
	}
	if e.DateKnown {
		return e.Date.Format(time.RFC1123Z)
	}
	return "Unknown"
}
