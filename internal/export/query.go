package export

import (
	"fmt"
	"strings"
)

// BuildQuery translates a Filter into a single Gmail search query
// string. Adjacent clauses are ANDed by Gmail, so label, free-text
// query, date bounds and address filters are simply space-joined.
//
// Gmail's before: operator is exclusive of the named day. To give
// Filter.Before inclusive semantics the emitted bound is the *next*
// calendar day; a naive pass-through would silently drop messages from
// the boundary day itself.
func BuildQuery(f Filter) string {
	var parts []string

	if f.Label != "" {
		parts = append(parts, "label:"+quoteQueryValue(f.Label))
	}
	if f.Query != "" {
		parts = append(parts, f.Query)
	}

	if !f.After.IsZero() {
		parts = append(parts, "after:"+f.After.Format("2006/01/02"))
	}
	if !f.Before.IsZero() {
		parts = append(parts, "before:"+f.Before.AddDate(0, 0, 1).Format("2006/01/02"))
	}

	if p := addressClause("from", f.From); p != "" {
		parts = append(parts, p)
	}
	if p := addressClause("to", f.To); p != "" {
		parts = append(parts, p)
	}
	for _, addr := range f.ExcludeFrom {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		parts = append(parts, "-from:"+quoteQueryValue(addr))
	}

	return strings.Join(parts, " ")
}

// addressClause OR-combines the values of one address category, with a
// parenthesized disjunction when there is more than one.
func addressClause(field string, values []string) string {
	var terms []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		terms = append(terms, field+":"+quoteQueryValue(v))
	}
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	default:
		return "(" + strings.Join(terms, " OR ") + ")"
	}
}

// quoteQueryValue wraps values containing the query language's own
// delimiters in double quotes, escaping embedded quotes. Plain values
// pass through untouched.
func quoteQueryValue(v string) string {
	if !strings.ContainsAny(v, ` "()`) {
		return v
	}
	return fmt.Sprintf("%q", v)
}
