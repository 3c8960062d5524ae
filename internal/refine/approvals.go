// Package refine normalizes raw source batches into the refined layer:
// canonical column names, NFKC-clean text, ISO dates, and derived ids.
package refine

import (
	"fmt"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/identity"
	"PmdaPipeline/internal/jpdate"
	"PmdaPipeline/internal/jptext"
	"PmdaPipeline/internal/schema"
	"PmdaPipeline/internal/table"
)

// approvalsMapping renames raw approvals columns (whitespace-stripped source
// headers) to canonical fields. source_id is synthesized at ingestion from
// the approval number, or a digest when the number is absent.
var approvalsMapping = schema.Mapping{
	Renames: map[string]string{
		"source_id":         "approval_id",
		"販売名":               "brand_name_jp",
		"一般的名称":             "generic_name_jp",
		"申請者名":              "applicant_name_jp",
		"承認年月日":             "approval_date",
		"効能・効果":             "indication",
		"review_report_url": "review_report_url",
		"application_type":  "application_type",
	},
	Critical: []string{"approval_id"},
}

// BuildApprovals maps and normalizes a raw approvals batch into typed
// refined records in one bulk pass. Text fields are canonicalized, the
// approval date is converted from its era form to ISO, and the content id is
// derived from (namespace, approval id, ISO date).
func BuildApprovals(raw table.Table) ([]domain.ApprovalRecord, error) {
	mapped, err := approvalsMapping.Apply(raw)
	if err != nil {
		return nil, fmt.Errorf("map approvals columns: %w", err)
	}

	records := make([]domain.ApprovalRecord, 0, len(mapped.Rows))
	for _, row := range mapped.Rows {
		rec := domain.ApprovalRecord{
			ApprovalID:      jptext.Normalize(row.Get("approval_id")),
			BrandNameJP:     jptext.Normalize(row.Get("brand_name_jp")),
			GenericNameJP:   jptext.Normalize(row.Get("generic_name_jp")),
			ApplicantNameJP: jptext.Normalize(row.Get("applicant_name_jp")),
			Indication:      jptext.Normalize(row.Get("indication")),
			ReviewReportURL: row.Get("review_report_url"),
			ApplicationType: jptext.Normalize(row.Get("application_type")),
		}

		if raw := row.Get("approval_date"); raw != nil {
			rec.ApprovalDate = jpdate.ToISO(*raw)
		}

		rec.ContentID = identity.Digest(identity.Namespace,
			deref(rec.ApprovalID), deref(rec.ApprovalDate))
		records = append(records, rec)
	}
	return records, nil
}

// ApprovalColumns is the refined (and curated) approvals column set.
var ApprovalColumns = []string{
	"content_id",
	"approval_id",
	"application_type",
	"brand_name_jp",
	"generic_name_jp",
	"generic_name_en",
	"applicant_name_jp",
	"approval_date",
	"indication",
	"review_report_url",
	"translation_status",
}

// ApprovalsTable encodes refined approval records for persistence.
func ApprovalsTable(records []domain.ApprovalRecord) table.Table {
	t := table.New(ApprovalColumns...)
	for _, rec := range records {
		status := string(rec.TranslationStatus)
		t.Rows = append(t.Rows, table.Row{
			"content_id":         table.String(rec.ContentID),
			"approval_id":        rec.ApprovalID,
			"application_type":   rec.ApplicationType,
			"brand_name_jp":      rec.BrandNameJP,
			"generic_name_jp":    rec.GenericNameJP,
			"generic_name_en":    rec.GenericNameEN,
			"applicant_name_jp":  rec.ApplicantNameJP,
			"approval_date":      rec.ApprovalDate,
			"indication":         rec.Indication,
			"review_report_url":  rec.ReviewReportURL,
			"translation_status": &status,
		})
	}
	return t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
