// Package schema renames noisy source column headers to canonical field
// names. Headers are matched with all whitespace stripped, so titles padded
// with spaces or split across lines in the source spreadsheet still resolve.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"PmdaPipeline/internal/table"
)

// ErrMissingCriticalField marks a source table that lacks a column the
// downstream joins depend on. It must never be silently nulled.
var ErrMissingCriticalField = errors.New("missing critical field")

// Mapping describes how one source table maps onto canonical fields.
type Mapping struct {
	// Renames maps source column names (whitespace-insensitive) to canonical
	// field names.
	Renames map[string]string
	// Critical lists canonical fields whose source column must exist.
	Critical []string
}

// whitespaceReplacer removes ASCII and full-width spaces plus line breaks.
var whitespaceReplacer = strings.NewReplacer(" ", "", "　", "", "\t", "", "\n", "", "\r", "")

// StripWhitespace collapses a header to its whitespace-free form.
func StripWhitespace(header string) string {
	return whitespaceReplacer.Replace(header)
}

// Apply renames matched columns, synthesizes NULL columns for unmatched
// optional canonical fields, and fails with ErrMissingCriticalField when a
// critical field has no source column. Source columns without a mapping are
// dropped from the output.
func (m Mapping) Apply(t table.Table) (table.Table, error) {
	// Resolve each canonical field to the first source column providing it.
	bySource := map[string]string{}
	present := map[string]bool{}
	for _, col := range t.Columns {
		stripped := StripWhitespace(col)
		if canonical, ok := m.Renames[stripped]; ok && !present[canonical] {
			bySource[col] = canonical
			present[canonical] = true
		}
	}

	for _, field := range m.Critical {
		if !present[field] {
			return table.Table{}, fmt.Errorf("%w: %s (columns: %v)", ErrMissingCriticalField, field, t.Columns)
		}
	}

	out := table.New(m.canonicalOrder()...)
	for _, row := range t.Rows {
		mapped := make(table.Row, len(out.Columns))
		for _, canonical := range out.Columns {
			mapped[canonical] = nil
		}
		for src, canonical := range bySource {
			mapped[canonical] = row.Get(src)
		}
		out.Rows = append(out.Rows, mapped)
	}
	return out, nil
}

// canonicalOrder returns the mapping's canonical fields in a stable order:
// critical fields first, then the remaining targets sorted.
func (m Mapping) canonicalOrder() []string {
	seen := map[string]bool{}
	var order []string
	for _, f := range m.Critical {
		if !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}
	var rest []string
	for _, canonical := range m.Renames {
		if !seen[canonical] {
			seen[canonical] = true
			rest = append(rest, canonical)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}
