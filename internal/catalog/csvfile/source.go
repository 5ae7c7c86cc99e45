package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tjharb909/FutureButNotNow/internal/catalog"
	"github.com/tjharb909/FutureButNotNow/internal/config"
	"github.com/tjharb909/FutureButNotNow/pkg/logger"
)

// asinRe matches a valid Amazon ASIN
var asinRe = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Source implements catalog.Source for the curated products.csv file.
// Expected headers: title,asin,category,keywords,image_path,benefits,price_anchor
// with keywords and benefits pipe-separated.
type Source struct {
	path      string
	imagesDir string
	log       *logger.Logger
}

// New creates a new CSV catalog source
func New(cfg config.CSVConfig, log *logger.Logger) *Source {
	return &Source{
		path:      cfg.Path,
		imagesDir: cfg.ImagesDir,
		log:       log.WithSource("csv", filepath.Base(cfg.Path)),
	}
}

// Name returns the source name
func (s *Source) Name() string {
	return "products-csv"
}

// Type returns "csv"
func (s *Source) Type() string {
	return "csv"
}

// Fetch reads and parses the product catalog
func (s *Source) Fetch(ctx context.Context) ([]catalog.Item, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open product catalog %s: %w", s.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read catalog header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("catalog %s has no title column", s.path)
	}

	var items []catalog.Item
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read catalog row: %w", err)
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		title := field("title")
		if title == "" {
			continue
		}

		// Rows with a malformed ASIN keep the product but drop the identifier
		asin := strings.ToUpper(field("asin"))
		if asin != "" && !asinRe.MatchString(asin) {
			s.log.Warn().Str("title", title).Str("asin", asin).Msg("Dropping malformed ASIN")
			asin = ""
		}

		img := field("image_path")
		if img != "" {
			img = filepath.Join(s.imagesDir, img)
		}

		items = append(items, catalog.Item{
			Title:       title,
			ExternalID:  asin,
			Category:    field("category"),
			Keywords:    splitList(field("keywords")),
			Benefits:    splitList(field("benefits")),
			PriceAnchor: field("price_anchor"),
			ImagePath:   img,
		})
	}

	s.log.Info().Int("count", len(items)).Msg("Loaded product catalog")
	return items, nil
}

// HealthCheck verifies the catalog file is readable
func (s *Source) HealthCheck(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	return f.Close()
}

// splitList splits a pipe-separated field into trimmed non-empty parts
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ensure Source implements catalog.Source
var _ catalog.Source = (*Source)(nil)
