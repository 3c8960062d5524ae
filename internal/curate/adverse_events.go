package curate

import (
	"errors"
	"fmt"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/table"
)

// Named failures for structurally unusable inputs. These indicate broken
// refined tables, not expected operational conditions.
var (
	ErrMissingJoinKey          = errors.New("missing join key column")
	ErrMissingCharacterization = errors.New("missing characterization column")
)

const joinKey = "id"

// AdverseEventColumns is the curated fact-table column set: one row per
// (suspected drug x reaction) pair per case.
var AdverseEventColumns = []string{
	"case_id",
	"patient_sex",
	"patient_age_group",
	"suspect_drug_name",
	"reaction_term",
	"reporting_year",
}

// AdverseEvents reconstructs the three JADER tables into the denormalized
// fact table.
//
// Suspected drug rows anchor the result: a case missing from demo still
// appears with NULL demographics, and a suspected drug with no reactions
// still appears once with a NULL reaction term. Duplicate source rows are
// deliberately not deduplicated; they multiply the output because raw
// duplicates may reflect distinct dosing records.
func AdverseEvents(demo, drug, reac table.Table) (table.Table, error) {
	for name, t := range map[string]table.Table{"demo": demo, "drug": drug, "reac": reac} {
		if !t.HasColumn(joinKey) {
			return table.Table{}, fmt.Errorf("%w: %s table", ErrMissingJoinKey, name)
		}
	}
	if !drug.HasColumn("characterization") {
		return table.Table{}, fmt.Errorf("%w: drug table", ErrMissingCharacterization)
	}

	// Exact literal match after normalization; no fuzzy matching. Rows with
	// a NULL case id cannot join and are discarded.
	var suspects []table.Row
	for _, row := range drug.Rows {
		if row.Get(joinKey) == nil {
			continue
		}
		if c := row.Get("characterization"); c != nil && *c == domain.CharacterizationSuspected {
			suspects = append(suspects, row)
		}
	}

	demoByID := indexFirst(demo)
	reacByID := indexAll(reac)

	out := table.New(AdverseEventColumns...)
	for _, drugRow := range suspects {
		caseID := drugRow.Get(joinKey)
		demoRow := demoByID[*caseID]

		reactions := reacByID[*caseID]
		if len(reactions) == 0 {
			reactions = []table.Row{nil}
		}

		for _, reacRow := range reactions {
			out.Rows = append(out.Rows, table.Row{
				"case_id":           caseID,
				"patient_sex":       cell(demoRow, "sex"),
				"patient_age_group": cell(demoRow, "age"),
				"suspect_drug_name": drugRow.Get("drug_name"),
				"reaction_term":     cell(reacRow, "reaction"),
				"reporting_year":    cell(demoRow, "reporting_year"),
			})
		}
	}
	return out, nil
}

// indexFirst keys rows by case id, keeping the first demographic row per
// case.
func indexFirst(t table.Table) map[string]table.Row {
	out := make(map[string]table.Row, len(t.Rows))
	for _, row := range t.Rows {
		id := row.Get(joinKey)
		if id == nil {
			continue
		}
		if _, exists := out[*id]; !exists {
			out[*id] = row
		}
	}
	return out
}

// indexAll keys rows by case id, keeping every row so duplicates multiply.
func indexAll(t table.Table) map[string][]table.Row {
	out := map[string][]table.Row{}
	for _, row := range t.Rows {
		id := row.Get(joinKey)
		if id == nil {
			continue
		}
		out[*id] = append(out[*id], row)
	}
	return out
}

func cell(row table.Row, col string) *string {
	if row == nil {
		return nil
	}
	return row.Get(col)
}
