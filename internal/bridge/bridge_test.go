package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/table"
)

type fakeTranslator struct {
	mu      sync.Mutex
	calls   int
	results map[string]string
	err     error
}

func (f *fakeTranslator) Translate(_ context.Context, genericJP, _ string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.results[genericJP], nil
}

func rec(genericJP string) domain.ApprovalRecord {
	return domain.ApprovalRecord{GenericNameJP: table.String(genericJP)}
}

func TestResolveLookupPrefersPrimary(t *testing.T) {
	t.Parallel()

	b := New(nil, 1, time.Second, nil)
	ref := []domain.ReferenceEntry{
		{NameJP: "アスピリン", Primary: table.String("aspirin"), Secondary: table.String("acetylsalicylic acid")},
		{NameJP: "ワルファリン", Secondary: table.String("warfarin")},
	}

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("アスピリン"), rec("ワルファリン")}, ref)

	if got := records[0].GenericNameEN; got == nil || *got != "aspirin" {
		t.Fatalf("expected primary name aspirin, got %v", got)
	}
	if records[0].TranslationStatus != domain.StatusLookupSuccess {
		t.Fatalf("status = %s, want lookup_success", records[0].TranslationStatus)
	}
	if got := records[1].GenericNameEN; got == nil || *got != "warfarin" {
		t.Fatalf("expected secondary fallback warfarin, got %v", got)
	}
}

func TestResolveLookupNormalizesKey(t *testing.T) {
	t.Parallel()

	b := New(nil, 1, time.Second, nil)
	// Reference key is half-width; the record name is already canonical.
	ref := []domain.ReferenceEntry{{NameJP: "ｱｽﾋﾟﾘﾝ", Primary: table.String("aspirin")}}

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("アスピリン")}, ref)
	if got := records[0].GenericNameEN; got == nil || *got != "aspirin" {
		t.Fatalf("expected width-insensitive lookup hit, got %v", got)
	}
}

func TestResolveSkippedWithoutTranslator(t *testing.T) {
	t.Parallel()

	b := New(nil, 1, time.Second, nil)

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("未収載薬")}, nil)
	if records[0].GenericNameEN != nil {
		t.Fatalf("expected no translation, got %q", *records[0].GenericNameEN)
	}
	if records[0].TranslationStatus != domain.StatusSkippedNoKey {
		t.Fatalf("status = %s, want skipped_no_key", records[0].TranslationStatus)
	}
}

func TestResolveFallbackTranslates(t *testing.T) {
	t.Parallel()

	ft := &fakeTranslator{results: map[string]string{"未収載薬": "novel drug"}}
	b := New(ft, 2, time.Second, nil)
	ref := []domain.ReferenceEntry{{NameJP: "アスピリン", Primary: table.String("aspirin")}}

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("アスピリン"), rec("未収載薬")}, ref)

	if records[0].TranslationStatus != domain.StatusLookupSuccess {
		t.Fatalf("lookup row status = %s", records[0].TranslationStatus)
	}
	if got := records[1].GenericNameEN; got == nil || *got != "novel drug" {
		t.Fatalf("fallback result = %v, want novel drug", got)
	}
	if records[1].TranslationStatus != domain.StatusAITranslated {
		t.Fatalf("fallback status = %s, want ai_translated", records[1].TranslationStatus)
	}
	if ft.calls != 1 {
		t.Fatalf("expected 1 translator call, got %d", ft.calls)
	}
}

func TestResolveFallbackConcurrent(t *testing.T) {
	t.Parallel()

	results := map[string]string{}
	var records []domain.ApprovalRecord
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("薬%d", i)
		results[name] = fmt.Sprintf("drug-%d", i)
		records = append(records, rec(name))
	}

	ft := &fakeTranslator{results: results}
	b := New(ft, 4, time.Second, nil)

	records = b.Resolve(context.Background(), records, nil)
	for i, r := range records {
		want := fmt.Sprintf("drug-%d", i)
		if r.GenericNameEN == nil || *r.GenericNameEN != want {
			t.Fatalf("record %d = %v, want %s", i, r.GenericNameEN, want)
		}
		if r.TranslationStatus != domain.StatusAITranslated {
			t.Fatalf("record %d status = %s", i, r.TranslationStatus)
		}
	}
	if ft.calls != 20 {
		t.Fatalf("expected 20 translator calls, got %d", ft.calls)
	}
}

func TestResolveFallbackFailure(t *testing.T) {
	t.Parallel()

	ft := &fakeTranslator{err: fmt.Errorf("upstream down")}
	b := New(ft, 1, time.Second, nil)

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("薬")}, nil)
	if records[0].TranslationStatus != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", records[0].TranslationStatus)
	}
}

func TestResolveFallbackEmptyResult(t *testing.T) {
	t.Parallel()

	ft := &fakeTranslator{results: map[string]string{}}
	b := New(ft, 1, time.Second, nil)

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{rec("薬")}, nil)
	if records[0].TranslationStatus != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", records[0].TranslationStatus)
	}
	if records[0].GenericNameEN != nil {
		t.Fatalf("expected nil english name, got %q", *records[0].GenericNameEN)
	}
}

func TestResolveNilGenericName(t *testing.T) {
	t.Parallel()

	ft := &fakeTranslator{}
	b := New(ft, 1, time.Second, nil)

	records := b.Resolve(context.Background(), []domain.ApprovalRecord{{}}, nil)
	if records[0].TranslationStatus != domain.StatusFailed {
		t.Fatalf("status = %s, want failed", records[0].TranslationStatus)
	}
	if ft.calls != 0 {
		t.Fatalf("translator called for nil name")
	}
}

func TestReferenceEntries(t *testing.T) {
	t.Parallel()

	raw := table.New("jan_name_jp", "jan_name_en", "inn_name_en")
	raw.Rows = append(raw.Rows,
		table.Row{
			"jan_name_jp": table.String("アスピリン"),
			"jan_name_en": table.String("Aspirin"),
			"inn_name_en": table.String("aspirin"),
		},
		table.Row{
			"jan_name_jp": table.String(""),
			"jan_name_en": table.String("orphan"),
		},
	)

	entries := ReferenceEntries(raw)
	if len(entries) != 1 {
		t.Fatalf("expected nameless rows dropped, got %d entries", len(entries))
	}
	if entries[0].NameJP != "アスピリン" {
		t.Fatalf("name = %q", entries[0].NameJP)
	}
	if entries[0].Primary == nil || *entries[0].Primary != "aspirin" {
		t.Fatalf("primary = %v", entries[0].Primary)
	}
	if entries[0].Secondary == nil || *entries[0].Secondary != "Aspirin" {
		t.Fatalf("secondary = %v", entries[0].Secondary)
	}
}
