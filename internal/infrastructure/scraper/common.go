// Package scraper implements the raw-data sources: the PMDA approvals
// listing, the NIHS JAN/INN reference file, and the JADER case archive.
package scraper

import (
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"
	"time"

	"PmdaPipeline/internal/jptext"
	"PmdaPipeline/internal/table"
)

// ingestionTimeFormat stamps raw rows with their capture time.
const ingestionTimeFormat = time.RFC3339

// csvTable decodes a raw CSV payload (trying the transport-detected encoding
// first, then the regional fallbacks) and parses it into a table. The first
// record is the header row; ragged rows are tolerated.
func csvTable(data []byte, encodingHint string) (table.Table, error) {
	decoded := jptext.Decode(data, encodingHint)
	if decoded == nil {
		return table.Table{}, fmt.Errorf("undecodable csv payload (hint %q)", encodingHint)
	}

	reader := csv.NewReader(strings.NewReader(*decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return table.Table{}, nil
	}

	headers := records[0]
	t := table.New(headers...)
	for _, record := range records[1:] {
		row := make(table.Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = table.String(record[i])
			} else {
				row[h] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// resolveURL joins a possibly relative href against its page URL.
func resolveURL(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
