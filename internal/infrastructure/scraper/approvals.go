package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PmdaPipeline/internal/infrastructure/fetch"
	"PmdaPipeline/internal/identity"
	"PmdaPipeline/internal/schema"
	"PmdaPipeline/internal/source"
	"PmdaPipeline/internal/table"
)

// ApprovalsSource scrapes the PMDA drug-approvals listing page into the
// raw_approvals table. Each HTML table row becomes one raw record keyed by
// its approval number, with a content digest as fallback id.
type ApprovalsSource struct {
	client          *fetch.Client
	url             string
	applicationType string
	logger          *slog.Logger
}

var _ source.Source = (*ApprovalsSource)(nil)

// NewApprovalsSource wires the shared fetch client and the listing URL.
func NewApprovalsSource(client *fetch.Client, url, applicationType string, logger *slog.Logger) *ApprovalsSource {
	if applicationType == "" {
		applicationType = "New Drug"
	}
	return &ApprovalsSource{client: client, url: url, applicationType: applicationType, logger: logger}
}

// Name identifies the source inside the registry.
func (s *ApprovalsSource) Name() string {
	return "approvals"
}

// Fetch downloads the listing page and extracts every data table row.
func (s *ApprovalsSource) Fetch(ctx context.Context) ([]source.Batch, error) {
	result, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch approvals page: %w", err)
	}

	reader, err := result.UTF8Reader()
	if err != nil {
		return nil, fmt.Errorf("decode approvals page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse approvals page: %w", err)
	}

	ingestedAt := time.Now().UTC().Format(ingestionTimeFormat)
	t := table.Table{}
	seen := map[string]struct{}{}

	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		headers := tableHeaders(tbl)
		if !isApprovalsTable(headers) {
			return
		}

		reviewCol := reviewColumnIndex(headers)
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return
			}

			row := make(table.Row, len(headers)+4)
			var reviewURL *string
			cells.Each(func(i int, td *goquery.Selection) {
				if i >= len(headers) {
					return
				}
				row[headers[i]] = table.String(strings.TrimSpace(td.Text()))
				if i == reviewCol {
					if href, ok := td.Find("a[href]").First().Attr("href"); ok {
						reviewURL = table.String(resolveURL(s.url, href))
					}
				}
			})

			sourceID := s.sourceID(row, headers)
			if _, dup := seen[sourceID]; dup {
				return
			}
			seen[sourceID] = struct{}{}

			row["source_id"] = table.String(sourceID)
			row["review_report_url"] = reviewURL
			row["application_type"] = table.String(s.applicationType)
			row["_source_url"] = table.String(s.url)
			row["_ingestion_ts"] = table.String(ingestedAt)
			t.Append(row)
		})
	})

	s.debug("approvals scraped", "rows", len(t.Rows), "encoding", result.Encoding)
	return []source.Batch{{Table: "raw_approvals", Encoding: result.Encoding, Data: t}}, nil
}

// sourceID prefers the approval number column; rows without one get a
// digest of brand name and approval date so they remain addressable.
func (s *ApprovalsSource) sourceID(row table.Row, headers []string) string {
	if col := headerContaining(headers, "承認番号"); col != "" {
		if v := row.GetString(col); v != "" {
			return v
		}
	}
	brand := row.GetString(headerContaining(headers, "販売名"))
	date := row.GetString(headerContaining(headers, "承認年月日"))
	return identity.Digest(identity.Namespace, brand+"|"+date, "")
}

func (s *ApprovalsSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func tableHeaders(tbl *goquery.Selection) []string {
	var headers []string
	tbl.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, schema.StripWhitespace(th.Text()))
	})
	return headers
}

// isApprovalsTable keeps only tables that carry an approval-date column,
// skipping navigation and layout tables on the same page.
func isApprovalsTable(headers []string) bool {
	return headerContaining(headers, "承認年月日") != "" || headerContaining(headers, "販売名") != ""
}

func reviewColumnIndex(headers []string) int {
	for i, h := range headers {
		if strings.Contains(h, "報告書") || strings.Contains(h, "概要") {
			return i
		}
	}
	return -1
}

func headerContaining(headers []string, fragment string) string {
	for _, h := range headers {
		if strings.Contains(h, fragment) {
			return h
		}
	}
	return ""
}
