// Package bridge resolves Japanese generic drug names to English through a
// two-stage process: a deterministic JAN/INN reference lookup, then an
// optional best-effort translation fallback over a bounded worker pool.
package bridge

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"PmdaPipeline/internal/domain"
	"PmdaPipeline/internal/jptext"
	"PmdaPipeline/internal/ports"
	"PmdaPipeline/internal/table"
)

// Bridge holds the fallback translator and its pool limits. A nil translator
// means no credential is configured and stage 2 is disabled entirely.
type Bridge struct {
	translator ports.Translator
	workers    int
	timeout    time.Duration
	logger     *slog.Logger
}

// New wires a bridge. workers and timeout fall back to 4 and 30s.
func New(translator ports.Translator, workers int, timeout time.Duration, logger *slog.Logger) *Bridge {
	if workers <= 0 {
		workers = 4
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Bridge{translator: translator, workers: workers, timeout: timeout, logger: logger}
}

// Resolve fills GenericNameEN and TranslationStatus on every record.
//
// Stage 1 left-joins records to the reference entries on the normalized
// source generic name, preferring the primary (INN) name over the secondary
// (JAN English) name. Stage 2 dispatches still-unresolved rows to the
// translator concurrently; each call is independent, so one failure or
// timeout never affects another row's outcome.
func (b *Bridge) Resolve(ctx context.Context, records []domain.ApprovalRecord, ref []domain.ReferenceEntry) []domain.ApprovalRecord {
	byName := make(map[string]domain.ReferenceEntry, len(ref))
	for _, entry := range ref {
		key := jptext.NormalizeString(entry.NameJP)
		if key == "" {
			continue
		}
		if _, exists := byName[key]; !exists {
			byName[key] = entry
		}
	}

	var pending []int
	for i := range records {
		rec := &records[i]
		if rec.GenericNameJP != nil {
			if entry, ok := byName[*rec.GenericNameJP]; ok {
				rec.GenericNameEN = preferred(entry)
			}
		}
		if rec.GenericNameEN != nil {
			rec.TranslationStatus = domain.StatusLookupSuccess
		} else {
			pending = append(pending, i)
		}
	}

	if len(pending) == 0 {
		return records
	}

	if b.translator == nil {
		for _, i := range pending {
			records[i].TranslationStatus = domain.StatusSkippedNoKey
		}
		return records
	}

	b.translateConcurrently(ctx, records, pending)
	return records
}

// translateConcurrently fans pending rows out over the worker pool. Results
// land in distinct record slots keyed by index, so completion order does not
// matter and no shared state is mutated across calls.
func (b *Bridge) translateConcurrently(ctx context.Context, records []domain.ApprovalRecord, pending []int) {
	work := make(chan int, len(pending))
	for _, i := range pending {
		work <- i
	}
	close(work)

	workers := b.workers
	if workers > len(pending) {
		workers = len(pending)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				b.translateOne(ctx, &records[i])
			}
		}()
	}
	wg.Wait()
}

func (b *Bridge) translateOne(ctx context.Context, rec *domain.ApprovalRecord) {
	if rec.GenericNameJP == nil || *rec.GenericNameJP == "" {
		rec.TranslationStatus = domain.StatusFailed
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	brand := ""
	if rec.BrandNameJP != nil {
		brand = *rec.BrandNameJP
	}

	result, err := b.translator.Translate(callCtx, *rec.GenericNameJP, brand)
	result = strings.TrimSpace(result)
	if err != nil || result == "" {
		if err != nil && b.logger != nil {
			b.logger.Warn("translation call failed", "generic_name_jp", *rec.GenericNameJP, "error", err)
		}
		rec.TranslationStatus = domain.StatusFailed
		return
	}

	rec.GenericNameEN = &result
	rec.TranslationStatus = domain.StatusAITranslated
}

func preferred(entry domain.ReferenceEntry) *string {
	if entry.Primary != nil && *entry.Primary != "" {
		return entry.Primary
	}
	if entry.Secondary != nil && *entry.Secondary != "" {
		return entry.Secondary
	}
	return nil
}

// ReferenceEntries decodes the raw JAN/INN reference table into lookup
// entries, canonicalizing the Japanese name used as the join key.
func ReferenceEntries(t table.Table) []domain.ReferenceEntry {
	entries := make([]domain.ReferenceEntry, 0, len(t.Rows))
	for _, row := range t.Rows {
		nameJP := jptext.NormalizeString(row.GetString("jan_name_jp"))
		if nameJP == "" {
			continue
		}
		entries = append(entries, domain.ReferenceEntry{
			NameJP:    nameJP,
			Primary:   jptext.Normalize(row.Get("inn_name_en")),
			Secondary: jptext.Normalize(row.Get("jan_name_en")),
		})
	}
	return entries
}
