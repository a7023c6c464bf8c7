package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ErrNoFacts = errors.New("no facts gathered")

// Extractor condenses raw snippets into factual notes. generator.Agent
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, topic, snippets string) (string, error)
}

// PageDistiller turns a URL into its readable text.
type PageDistiller interface {
	Distill(ctx context.Context, rawURL string) (Page, error)
}

// Gatherer is the fact-gathering stage of the article pipeline. Each Gather
// call performs at most maxSearches searches, each optionally followed by one
// page fetch for its top unseen hit.
type Gatherer struct {
	searcher    Searcher
	distiller   PageDistiller
	extractor   Extractor
	maxSearches int
	logger      *zap.Logger
}

type GathererOption func(*Gatherer)

func WithSearcher(s Searcher) GathererOption {
	return func(g *Gatherer) { g.searcher = s }
}

func WithDistiller(d PageDistiller) GathererOption {
	return func(g *Gatherer) { g.distiller = d }
}

func WithExtractor(e Extractor) GathererOption {
	return func(g *Gatherer) { g.extractor = e }
}

func WithMaxSearches(n int) GathererOption {
	return func(g *Gatherer) { g.maxSearches = ClampSearches(n) }
}

func WithLogger(l *zap.Logger) GathererOption {
	return func(g *Gatherer) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGatherer(opts ...GathererOption) (*Gatherer, error) {
	g := &Gatherer{maxSearches: MaxSearches, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.searcher == nil && g.extractor == nil {
		return nil, errors.New("gatherer needs a searcher, an extractor, or both")
	}
	return g, nil
}

// Gather returns raw research text for topic.
func (g *Gatherer) Gather(ctx context.Context, topic string) (string, error) {
	var snippets string
	if g.searcher != nil {
		var err error
		snippets, err = g.collect(ctx, topic)
		if err != nil {
			return "", err
		}
	}
	if g.extractor == nil {
		if strings.TrimSpace(snippets) == "" {
			return "", ErrNoFacts
		}
		return snippets, nil
	}
	return g.extractor.Extract(ctx, topic, snippets)
}

func (g *Gatherer) collect(ctx context.Context, topic string) (string, error) {
	capped := NewCappedSearcher(g.searcher, g.maxSearches)
	seen := make(map[string]bool)
	var (
		sb   strings.Builder
		errs []error
	)
	for _, query := range Queries(topic, g.maxSearches) {
		results, err := capped.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			g.logger.Warn("search failed", zap.String("query", query), zap.Error(err))
			errs = append(errs, fmt.Errorf("search %q: %w", query, err))
			continue
		}
		if len(results) == 0 {
			continue
		}

		fmt.Fprintf(&sb, "### Search: %s\n", query)
		for _, r := range results {
			fmt.Fprintf(&sb, "- %s (%s): %s\n", r.Title, r.URL, r.Snippet)
		}
		if page, ok := g.distillTop(ctx, results, seen); ok {
			fmt.Fprintf(&sb, "\nSource excerpt from %s:\n%s\n", page.URL, page.Text)
		}
		sb.WriteString("\n")
	}
	g.logger.Debug("research collected",
		zap.String("topic", topic),
		zap.Int("searches", capped.Calls()),
		zap.Int("chars", sb.Len()))

	if sb.Len() == 0 && len(errs) > 0 {
		return "", fmt.Errorf("all searches failed: %w", errors.Join(errs...))
	}
	return sb.String(), nil
}

func (g *Gatherer) distillTop(ctx context.Context, results []Result, seen map[string]bool) (Page, bool) {
	if g.distiller == nil {
		return Page{}, false
	}
	for _, r := range results {
		if seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		page, err := g.distiller.Distill(ctx, r.URL)
		if err != nil {
			g.logger.Debug("distill failed", zap.String("url", r.URL), zap.Error(err))
			return Page{}, false
		}
		if page.Text == "" {
			return Page{}, false
		}
		return page, true
	}
	return Page{}, false
}

// Queries returns up to n search queries covering the article's themes.
func Queries(topic string, n int) []string {
	all := []string{
		topic,
		topic + " history origins",
		topic + " impact significance",
		topic + " current developments",
	}
	n = ClampSearches(n)
	return all[:n]
}
