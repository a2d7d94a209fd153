package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexFilename is the table-of-contents document written at the
// output root when index generation is enabled.
const IndexFilename = "INDEX.md"

// WriteIndex generates INDEX.md summarizing the written files, newest
// first. The output depends only on the file records, so re-running an
// unchanged export reproduces the index byte for byte.
func WriteIndex(outputDir string, files []FileRecord) error {
	document := BuildIndex(files)
	path := filepath.Join(outputDir, IndexFilename)
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// BuildIndex renders the index document for the given records.
func BuildIndex(files []FileRecord) string {
	sorted := make([]FileRecord, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch {
		case a.DateKnown && !b.DateKnown:
			return true
		case !a.DateKnown && b.DateKnown:
			return false
		case a.DateKnown && b.DateKnown && !a.Date.Equal(b.Date):
			return a.Date.After(b.Date)
		default:
			return a.MessageID < b.MessageID
		}
	})

	var b strings.Builder
	b.WriteString("# Email Export Index\n\n")
	fmt.Fprintf(&b, "Total emails: %d\n\n", len(sorted))
	b.WriteString("| # | Subject | From | Date | File |\n")
	b.WriteString("|---|---------|------|------|------|\n")

	for i, f := range sorted {
		date := "Unknown"
		if f.DateKnown {
			date = f.Date.Format("2006-01-02")
		}
		link := fmt.Sprintf("[%s](./%s)", filepath.Base(f.Path), f.Path)
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			i+1,
			tableCell(f.Subject, 50),
			tableCell(f.From, 30),
			date,
			link)
	}
	b.WriteString("\n")
	return b.String()
}

// tableCell escapes pipes and truncates long values so the Markdown
// table stays readable.
func tableCell(s string, max int) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if runes := []rune(s); len(runes) > max {
		s = strings.TrimSpace(string(runes[:max-3])) + "..."
	}
	return s
}
