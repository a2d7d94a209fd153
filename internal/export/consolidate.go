package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const consolidatedFilename = "consolidated.md"

// writeConsolidated produces the combined document(s) for a buffered
// batch: one file for ConsolidateSingle, one per thread for
// ConsolidateByThread. Messages inside a document are ordered
// chronologically (unknown dates last, then by id for determinism).
func (o *Orchestrator) writeConsolidated(opts Options, result *Result, buffered []renderedEmail) error {
	groups := groupForConsolidation(buffered, opts.Consolidation)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		emails := groups[name]
		sortChronological(emails)
		document := buildConsolidated(emails)

		if !opts.DryRun {
			full := filepath.Join(opts.OutputDir, name)
			if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
			if err := os.WriteFile(full, []byte(document), 0o644); err != nil {
				return fmt.Errorf("writing consolidated document: %w", err)
			}
		}
		result.Written++
		for _, r := range emails {
			result.Files = append(result.Files, fileRecord(r.email, name))
		}
	}
	return nil
}

func groupForConsolidation(buffered []renderedEmail, mode ConsolidationMode) map[string][]renderedEmail {
	groups := make(map[string][]renderedEmail)
	for _, r := range buffered {
		name := consolidatedFilename
		if mode == ConsolidateByThread {
			tid := r.email.ThreadID
			if tid == "" {
				tid = "unknown-thread"
			}
			name = "thread_" + SanitizeFilename(tid) + mdExtension
		}
		groups[name] = append(groups[name], r)
	}
	return groups
}

func sortChronological(emails []renderedEmail) {
	sort.SliceStable(emails, func(i, j int) bool {
		a, b := emails[i].email, emails[j].email
		switch {
		case a.DateKnown && !b.DateKnown:
			return true
		case !a.DateKnown && b.DateKnown:
			return false
		case a.DateKnown && b.DateKnown && !a.Date.Equal(b.Date):
			return a.Date.Before(b.Date)
		default:
			return a.ID < b.ID
		}
	})
}

// buildConsolidated concatenates rendered documents with per-email
// anchors so entries remain addressable inside the combined file.
func buildConsolidated(emails []renderedEmail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Consolidated Export (%d messages)\n\n", len(emails))
	for i, r := range emails {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		fmt.Fprintf(&b, "<a id=%q></a>\n\n", AnchorID(r.email))
		b.WriteString(strings.TrimRight(r.document, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

var anchorUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)

// AnchorID derives a stable, human-scannable anchor for an email
// inside consolidated documents: a slug of the subject plus the short
// id.
func AnchorID(e *Email) string {
	slug := strings.ToLower(SanitizeFilename(e.Subject))
	slug = anchorUnsafe.ReplaceAllString(strings.ReplaceAll(slug, "_", "-"), "")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "email-" + strings.ToLower(ShortID(e.ID))
	}
	const maxSlug = 40
	if len(slug) > maxSlug {
		slug = strings.TrimRight(slug[:maxSlug], "-")
	}
	return slug + "-" + strings.ToLower(ShortID(e.ID))
}
