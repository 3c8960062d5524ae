// Package curate builds the curated layer: strict projections and the
// denormalized adverse-event fact table, both regenerated wholesale on every
// run.
package curate

import (
	"PmdaPipeline/internal/refine"
	"PmdaPipeline/internal/table"
)

// Approvals projects the refined approvals table onto the curated column
// set. Every canonical column is guaranteed present, NULL when the refined
// layer lacked it.
func Approvals(refined table.Table) table.Table {
	out := table.New(refine.ApprovalColumns...)
	for _, row := range refined.Rows {
		projected := make(table.Row, len(out.Columns))
		for _, col := range out.Columns {
			projected[col] = row.Get(col)
		}
		out.Rows = append(out.Rows, projected)
	}
	return out
}
