package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"PmdaPipeline/internal/infrastructure/fetch"
	"PmdaPipeline/internal/schema"
	"PmdaPipeline/internal/source"
	"PmdaPipeline/internal/table"
)

// janHeaderRenames maps the NIHS file headers (whitespace-stripped) onto the
// reference-table columns. Both full-width and ASCII parenthesis spellings
// appear in the wild.
var janHeaderRenames = map[string]string{
	"JAN（日本名）": "jan_name_jp",
	"JAN(日本名)": "jan_name_jp",
	"JAN（英名）":  "jan_name_en",
	"JAN(英名)":  "jan_name_en",
	"INN":      "inn_name_en",
}

// JANSource ingests the "Japanese Accepted Names" reference file into
// raw_ref_jan_inn. The configured URL may point at the file itself or at an
// HTML page carrying a link to it.
type JANSource struct {
	client *fetch.Client
	url    string
	logger *slog.Logger
}

var _ source.Source = (*JANSource)(nil)

// NewJANSource wires the shared fetch client and the reference URL.
func NewJANSource(client *fetch.Client, url string, logger *slog.Logger) *JANSource {
	return &JANSource{client: client, url: url, logger: logger}
}

// Name identifies the source inside the registry.
func (s *JANSource) Name() string {
	return "jan_inn"
}

// Fetch locates and parses the reference file.
func (s *JANSource) Fetch(ctx context.Context) ([]source.Batch, error) {
	result, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch jan/inn source: %w", err)
	}

	if strings.Contains(strings.ToLower(result.ContentType), "text/html") {
		fileURL, err := s.bestFileLink(result)
		if err != nil {
			return nil, err
		}
		s.debug("resolved jan/inn file link", "url", fileURL)
		result, err = s.client.Get(ctx, fileURL)
		if err != nil {
			return nil, fmt.Errorf("fetch jan/inn file: %w", err)
		}
	}

	t, err := csvTable(result.Body, result.Encoding)
	if err != nil {
		return nil, fmt.Errorf("parse jan/inn file: %w", err)
	}

	renamed := renameJANHeaders(t)
	if !renamed.HasColumn("jan_name_jp") {
		s.warn("jan_name_jp not found in jan/inn source", "columns", renamed.Columns)
	}

	s.debug("jan/inn reference loaded", "rows", len(renamed.Rows))
	return []source.Batch{{Table: "raw_ref_jan_inn", Encoding: result.Encoding, Data: renamed}}, nil
}

// bestFileLink scores candidate CSV links on the landing page by keyword and
// picks the highest.
func (s *JANSource) bestFileLink(page *fetch.Result) (string, error) {
	reader, err := page.UTF8Reader()
	if err != nil {
		return "", fmt.Errorf("decode jan/inn page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("parse jan/inn page: %w", err)
	}

	type candidate struct {
		score int
		url   string
	}
	var candidates []candidate

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".csv") {
			return
		}
		text := strings.ToLower(strings.TrimSpace(a.Text()))
		score := 0
		if strings.Contains(text, "jan") {
			score += 10
		}
		if strings.Contains(text, "name") {
			score += 5
		}
		if strings.Contains(text, "list") {
			score += 5
		}
		candidates = append(candidates, candidate{score: score, url: resolveURL(s.url, href)})
	})

	if len(candidates) == 0 {
		return "", fmt.Errorf("no csv link found on %s", s.url)
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })
	return candidates[0].url, nil
}

// renameJANHeaders retitles matched columns, keeping the first source column
// per target and dropping unmapped ones.
func renameJANHeaders(t table.Table) table.Table {
	bySource := map[string]string{}
	claimed := map[string]bool{}
	for _, col := range t.Columns {
		target, ok := janHeaderRenames[schema.StripWhitespace(col)]
		if !ok || claimed[target] {
			continue
		}
		bySource[col] = target
		claimed[target] = true
	}

	out := table.New("jan_name_jp", "jan_name_en", "inn_name_en")
	for _, row := range t.Rows {
		mapped := table.Row{"jan_name_jp": nil, "jan_name_en": nil, "inn_name_en": nil}
		for src, target := range bySource {
			mapped[target] = row.Get(src)
		}
		out.Rows = append(out.Rows, mapped)
	}
	return out
}

func (s *JANSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *JANSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
