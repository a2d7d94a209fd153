package export

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{
			name:   "empty filter",
			filter: Filter{},
			want:   "",
		},
		{
			name:   "label only",
			filter: Filter{Label: "Work"},
			want:   "label:Work",
		},
		{
			name:   "label with spaces is quoted",
			filter: Filter{Label: "Project X"},
			want:   `label:"Project X"`,
		},
		{
			name:   "label and free-text query are independent clauses",
			filter: Filter{Label: "Work", Query: "has:attachment"},
			want:   "label:Work has:attachment",
		},
		{
			name:   "after is inclusive of the day",
			filter: Filter{After: day("2024-01-01")},
			want:   "after:2024/01/01",
		},
		{
			name:   "before emits the next day to include the boundary day",
			filter: Filter{Before: day("2024-01-31")},
			want:   "before:2024/02/01",
		},
		{
			name:   "before at month end rolls over correctly",
			filter: Filter{Before: day("2024-12-31")},
			want:   "before:2025/01/01",
		},
		{
			name:   "single from",
			filter: Filter{From: []string{"a@x.com"}},
			want:   "from:a@x.com",
		},
		{
			name:   "multiple from are OR-combined in parens",
			filter: Filter{From: []string{"a@x.com", "b@x.com"}},
			want:   "(from:a@x.com OR from:b@x.com)",
		},
		{
			name:   "to list",
			filter: Filter{To: []string{"c@x.com", "d@x.com"}},
			want:   "(to:c@x.com OR to:d@x.com)",
		},
		{
			name:   "exclusions are each negated",
			filter: Filter{From: []string{"a@x.com"}, ExcludeFrom: []string{"spam@x.com", "noreply@x.com"}},
			want:   "from:a@x.com -from:spam@x.com -from:noreply@x.com",
		},
		{
			name:   "blank list entries are dropped",
			filter: Filter{From: []string{" ", "a@x.com", ""}},
			want:   "from:a@x.com",
		},
		{
			name: "everything combined",
			filter: Filter{
				Label: "Test",
				Query: "is:unread",
				After: day("2024-01-01"),
				From:  []string{"a@x.com", "b@x.com"},
			},
			want: "label:Test is:unread after:2024/01/01 (from:a@x.com OR from:b@x.com)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.filter))
		})
	}
}

func TestQuoteQueryValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"with space", `"with space"`},
		{`quo"ted`, `"quo\"ted"`},
		{"par(en)s", `"par(en)s"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quoteQueryValue(tt.in), "input %q", tt.in)
	}
}
