package export

import (
	"path"
	"strings"
	"unicode/utf8"
)

const (
	// maxFilenameLen caps the total basename length including the
	// extension. Truncation to fit happens on the subject portion,
	// never the id suffix, so distinct messages stay distinct.
	maxFilenameLen = 200

	shortIDLen = 8

	mdExtension = ".md"

	// unknownDateBucket receives messages whose date could not be
	// determined when organizing by date.
	unknownDateBucket = "unknown-date"
)

// FileTarget is the resolved output location for one message.
type FileTarget struct {
	// Path is relative to the output root, using forward slashes.
	Path string

	// Truncated reports that the subject portion was shortened to fit
	// the filename cap.
	Truncated bool
}

// Resolve derives the collision-safe output path for an email:
// sanitize(subject)_shortID.md, optionally under a date bucket.
//
// Two messages with identical subjects are kept apart by their short
// ids. If two distinct ids share the same 8-character prefix the
// targets collide; that pigeonhole case is not resolved here — under
// overwrite the later write wins, otherwise the later message is
// recorded as skipped.
func Resolve(e *Email, opts Options) FileTarget {
	name, truncated := buildFilename(e.Subject, e.ID)

	if !opts.OrganizeByDate {
		return FileTarget{Path: name, Truncated: truncated}
	}
	return FileTarget{
		Path:      path.Join(dateBucket(e, opts.Bucket), name),
		Truncated: truncated,
	}
}

func buildFilename(subject, id string) (string, bool) {
	clean := SanitizeFilename(subject)
	if clean == "" {
		clean = "untitled"
	}

	suffix := "_" + ShortID(id) + mdExtension
	maxSubject := maxFilenameLen - len(suffix)

	truncated := false
	if len(clean) > maxSubject {
		cut := maxSubject
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = strings.TrimRight(clean[:cut], "_")
		truncated = true
	}
	return clean + suffix, truncated
}

// ShortID returns the fixed-length filename-friendly derivative of a
// message id: its first 8 characters.
func ShortID(id string) string {
	if id == "" {
		return "unknown"
	}
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

// SanitizeFilename replaces filesystem-unsafe characters and control
// characters with underscores and collapses the resulting runs.
func SanitizeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastUnderscore := false
	for _, r := range s {
		unsafe := r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r)
		if unsafe || r == ' ' || r == '_' {
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}
	return strings.Trim(b.String(), "_")
}

// dateBucket formats the email's date at the configured granularity.
// Unknown dates land in a reserved bucket instead of failing.
func dateBucket(e *Email, bucket DateBucket) string {
	if !e.DateKnown {
		return unknownDateBucket
	}
	switch bucket {
	case BucketYear:
		return e.Date.Format("2006")
	case BucketYearMonthDay:
		return e.Date.Format("2006/01/02")
	default:
		return e.Date.Format("2006/01")
	}
}
