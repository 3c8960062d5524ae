package scraper

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"PmdaPipeline/internal/infrastructure/fetch"
	"PmdaPipeline/internal/source"
	"PmdaPipeline/internal/table"
)

// jaderTableNames maps archive member names onto raw tables by fragment.
var jaderTableNames = map[string]string{
	"demo": "raw_jader_demo",
	"drug": "raw_jader_drug",
	"reac": "raw_jader_reac",
}

// JADERSource downloads the adverse-event case archive and splits it into
// the three raw case tables. The configured URL may point at the zip itself
// or at the snapshot listing page.
type JADERSource struct {
	client *fetch.Client
	url    string
	logger *slog.Logger
}

var _ source.Source = (*JADERSource)(nil)

// NewJADERSource wires the shared fetch client and the snapshot URL.
func NewJADERSource(client *fetch.Client, url string, logger *slog.Logger) *JADERSource {
	return &JADERSource{client: client, url: url, logger: logger}
}

// Name identifies the source inside the registry.
func (s *JADERSource) Name() string {
	return "jader"
}

// Fetch resolves the archive, extracts the demo/drug/reac CSVs, and emits
// one batch per table.
func (s *JADERSource) Fetch(ctx context.Context) ([]source.Batch, error) {
	result, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetch jader source: %w", err)
	}

	if strings.Contains(strings.ToLower(result.ContentType), "text/html") {
		zipURL, err := s.firstZipLink(result)
		if err != nil {
			return nil, err
		}
		s.debug("resolved jader archive link", "url", zipURL)
		result, err = s.client.Get(ctx, zipURL)
		if err != nil {
			return nil, fmt.Errorf("fetch jader archive: %w", err)
		}
	}

	archive, err := zip.NewReader(bytes.NewReader(result.Body), int64(len(result.Body)))
	if err != nil {
		return nil, fmt.Errorf("open jader archive: %w", err)
	}

	ingestedAt := time.Now().UTC().Format(ingestionTimeFormat)
	var batches []source.Batch
	for _, member := range archive.File {
		tableName := memberTable(member.Name)
		if tableName == "" {
			continue
		}

		data, err := readMember(member)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", member.Name, err)
		}

		// PMDA case CSVs are shipped in cp932.
		t, err := csvTable(data, "cp932")
		if err != nil {
			s.warn("skipping undecodable jader member", "member", member.Name, "error", err)
			continue
		}
		for _, row := range t.Rows {
			row["_source_file"] = table.String(member.Name)
			row["_ingestion_ts"] = table.String(ingestedAt)
		}
		if len(t.Rows) > 0 {
			t.Columns = append(t.Columns, "_source_file", "_ingestion_ts")
		}

		batches = append(batches, source.Batch{Table: tableName, Encoding: "cp932", Data: t})
	}

	if len(batches) == 0 {
		return nil, fmt.Errorf("no case tables found in jader archive from %s", s.url)
	}
	s.debug("jader archive processed", "tables", len(batches))
	return batches, nil
}

func (s *JADERSource) firstZipLink(page *fetch.Result) (string, error) {
	reader, err := page.UTF8Reader()
	if err != nil {
		return "", fmt.Errorf("decode jader page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return "", fmt.Errorf("parse jader page: %w", err)
	}

	var zipURL string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.HasSuffix(strings.ToLower(href), ".zip") {
			zipURL = resolveURL(s.url, href)
			return false
		}
		return true
	})

	if zipURL == "" {
		return "", fmt.Errorf("no zip link found on %s", s.url)
	}
	return zipURL, nil
}

func memberTable(name string) string {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".csv") {
		return ""
	}
	for fragment, tableName := range jaderTableNames {
		if strings.Contains(lower, fragment) {
			return tableName
		}
	}
	return ""
}

func readMember(member *zip.File) ([]byte, error) {
	f, err := member.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *JADERSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *JADERSource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
