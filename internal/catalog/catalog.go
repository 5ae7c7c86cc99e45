package catalog

import (
	"context"
	"strings"
	"unicode"
)

// Item is a single postable topic: a curated product or a harvested trend.
// Immutable once fetched from a source.
type Item struct {
	Title       string
	ExternalID  string // stable identifier (Amazon ASIN for products); empty when none
	Category    string
	Keywords    []string
	Benefits    []string
	PriceAnchor string
	ImagePath   string
	URL         string
	Score       float64 // trend score; zero for curated products
}

// HasStableID reports whether the item carries a resolvable external identifier
func (i Item) HasStableID() bool {
	return i.ExternalID != ""
}

// Source defines the interface for catalog item sources
type Source interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (csv, reddit, rss)
	Type() string

	// Fetch retrieves the currently available items
	Fetch(ctx context.Context) ([]Item, error)

	// HealthCheck verifies the source is accessible
	HealthCheck(ctx context.Context) error
}

// ScoringConfig controls trend ranking
type ScoringConfig struct {
	ViralKeywords []string
	MaxItems      int
	MinTitleLen   int
}

// ScoreTrends ranks trend items by crude virality heuristics and returns
// the top MaxItems, highest score first. Curated catalogs skip this.
func ScoreTrends(items []Item, cfg ScoringConfig) []Item {
	scored := make([]Item, 0, len(items))
	for _, it := range items {
		if cfg.MinTitleLen > 0 && len(it.Title) <= cfg.MinTitleLen {
			continue
		}
		it.Score = scoreTitle(it.Title, cfg.ViralKeywords)
		scored = append(scored, it)
	}

	// Insertion sort keeps ties in fetch order, which matters for reproducibility
	for i := 1; i < len(scored); i++ {
		for j := i; j > 0 && scored[j].Score > scored[j-1].Score; j-- {
			scored[j], scored[j-1] = scored[j-1], scored[j]
		}
	}

	if cfg.MaxItems > 0 && len(scored) > cfg.MaxItems {
		scored = scored[:cfg.MaxItems]
	}
	return scored
}

// scoreTitle applies the virality heuristics carried over from the trend bot:
// keyword hit +10, question +2, overlong title -5, +1 per TitleCase word.
func scoreTitle(title string, viralKeywords []string) float64 {
	score := 0.0
	lower := strings.ToLower(title)

	for _, k := range viralKeywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			score += 10
			break
		}
	}
	if strings.Contains(title, "?") {
		score += 2
	}
	if len(title) > 100 {
		score -= 5
	}
	for _, word := range strings.Fields(title) {
		r := []rune(word)
		if len(r) > 1 && unicode.IsUpper(r[0]) && unicode.IsLower(r[1]) {
			score++
		}
	}
	return score
}
