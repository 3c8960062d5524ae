package domain

// TranslationStatus enumerates the outcome of the JAN/INN reference bridge
// for a single approval record.
type TranslationStatus string

const (
	StatusLookupSuccess TranslationStatus = "lookup_success"
	StatusAITranslated  TranslationStatus = "ai_translated"
	StatusFailed        TranslationStatus = "failed"
	StatusSkippedNoKey  TranslationStatus = "skipped_no_key"
)

// Drug characterization vocabulary. Source values outside the closed set are
// carried through unmapped so no causality information is destroyed.
const (
	CharacterizationSuspected   = "Suspected"
	CharacterizationConcomitant = "Concomitant"
)

// ApprovalRecord is a refined drug-approval row: normalized but faithful to
// source, with the derived content id and translation status attached.
type ApprovalRecord struct {
	ApprovalID        *string
	ApprovalDate      *string // ISO YYYY-MM-DD, nil when unparseable
	BrandNameJP       *string
	GenericNameJP     *string
	GenericNameEN     *string
	ApplicantNameJP   *string
	Indication        *string
	ReviewReportURL   *string
	ApplicationType   *string
	ContentID         string
	TranslationStatus TranslationStatus
}

// ReferenceEntry is one JAN/INN reference row: a source-language generic name
// with its preferred English names.
type ReferenceEntry struct {
	NameJP    string
	Primary   *string // INN English name
	Secondary *string // JAN English name
}
