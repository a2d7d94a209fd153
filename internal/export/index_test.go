package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildIndexDeterministic(t *testing.T) {
	files := []FileRecord{
		{MessageID: "a", Subject: "One", From: "x@y.com", Path: "One_a.md",
			Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DateKnown: true},
		{MessageID: "b", Subject: "Two", From: "x@y.com", Path: "Two_b.md",
			Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), DateKnown: true},
	}
	assert.Equal(t, BuildIndex(files), BuildIndex(files))
}

func TestBuildIndexNewestFirstUnknownLast(t *testing.T) {
	files := []FileRecord{
		{MessageID: "old", Subject: "Old", Path: "old.md",
			Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), DateKnown: true},
		{MessageID: "nodate", Subject: "Undated", Path: "undated.md"},
		{MessageID: "new", Subject: "New", Path: "new.md",
			Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), DateKnown: true},
	}
	index := BuildIndex(files)

	newPos := strings.Index(index, "New")
	oldPos := strings.Index(index, "Old")
	undatedPos := strings.Index(index, "Undated")
	assert.Less(t, newPos, oldPos)
	assert.Less(t, oldPos, undatedPos)
	assert.Contains(t, index, "| Unknown |")
}

func TestBuildIndexEscapesPipes(t *testing.T) {
	files := []FileRecord{
		{MessageID: "a", Subject: "a | b", Path: "a.md", DateKnown: false},
	}
	assert.Contains(t, BuildIndex(files), `a \| b`)
}

func TestTableCellTruncation(t *testing.T) {
	long := strings.Repeat("é", 60)
	got := tableCell(long, 50)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len([]rune(got)), 50)
}

func TestAnchorID(t *testing.T) {
	tests := []struct {
		subject string
		id      string
		want    string
	}{
		{"Weekly Report", "abc123def456", "weekly-report-abc123de"},
		{"!!!", "abc123def456", "email-abc123de"},
		{"Ünïcödé Sübject", "abc123def456", "ncd-sbject-abc123de"},
	}
	for _, tt := range tests {
		e := &Email{ID: tt.id, Subject: tt.subject}
		assert.Equal(t, tt.want, AnchorID(e), "subject %q", tt.subject)
	}
}
