package refine

import (
	"fmt"
	"strconv"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/jpdate"
	"PmdaPipeline/internal/jptext"
	"PmdaPipeline/internal/schema"
	"PmdaPipeline/internal/table"
)

// JADER column mappings (whitespace-stripped Japanese headers). The case
// identifier is critical in all three tables; everything else is nulled when
// absent.
var (
	demoMapping = schema.Mapping{
		Renames: map[string]string{
			"識別番号": "id",
			"性別":   "sex",
			"年齢":   "age",
			"報告年度": "reporting_year",
		},
		Critical: []string{"id"},
	}
	drugMapping = schema.Mapping{
		// NFKC decoding folds the full-width parentheses in the source header
		// to ASCII, so both spellings are mapped.
		Renames: map[string]string{
			"識別番号":     "id",
			"医薬品（一般名）": "drug_name",
			"医薬品(一般名)": "drug_name",
			"被疑薬等区分":   "characterization",
		},
		Critical: []string{"id"},
	}
	reacMapping = schema.Mapping{
		Renames: map[string]string{
			"識別番号": "id",
			"有害事象": "reaction",
		},
		Critical: []string{"id"},
	}
)

// characterizationValues maps source causality flags onto the closed
// vocabulary. Unmapped values pass through untouched.
var characterizationValues = map[string]string{
	"被疑薬": domain.CharacterizationSuspected,
	"併用薬": domain.CharacterizationConcomitant,
}

// NormalizeDemo maps and canonicalizes the JADER case-demographics table.
// reporting_year additionally understands era years ("R1" -> 2019).
func NormalizeDemo(raw table.Table) (table.Table, error) {
	mapped, err := demoMapping.Apply(raw)
	if err != nil {
		return table.Table{}, fmt.Errorf("map demo columns: %w", err)
	}

	for _, row := range mapped.Rows {
		normalizeCells(row, "id", "sex", "age")
		row["reporting_year"] = yearString(row.Get("reporting_year"))
	}
	return mapped, nil
}

// NormalizeDrug maps and canonicalizes the JADER drug table, folding
// characterization values onto the closed vocabulary.
func NormalizeDrug(raw table.Table) (table.Table, error) {
	mapped, err := drugMapping.Apply(raw)
	if err != nil {
		return table.Table{}, fmt.Errorf("map drug columns: %w", err)
	}

	for _, row := range mapped.Rows {
		normalizeCells(row, "id", "drug_name", "characterization")
		if v := row.Get("characterization"); v != nil {
			if mappedVal, ok := characterizationValues[*v]; ok {
				row["characterization"] = table.String(mappedVal)
			}
		}
	}
	return mapped, nil
}

// NormalizeReac maps and canonicalizes the JADER reaction table.
func NormalizeReac(raw table.Table) (table.Table, error) {
	mapped, err := reacMapping.Apply(raw)
	if err != nil {
		return table.Table{}, fmt.Errorf("map reaction columns: %w", err)
	}

	for _, row := range mapped.Rows {
		normalizeCells(row, "id", "reaction")
	}
	return mapped, nil
}

func normalizeCells(row table.Row, cols ...string) {
	for _, col := range cols {
		row[col] = jptext.Normalize(row.Get(col))
	}
}

func yearString(raw *string) *string {
	if raw == nil {
		return nil
	}
	if y := jpdate.Year(*raw); y != nil {
		return table.String(strconv.Itoa(*y))
	}
	return nil
}
