// Package research gathers raw material about a topic from the web under a
// fixed retrieval budget.
package research

import (
	"context"
	"errors"
	"sync"
)

const (
	// MaxSearches is the default number of search calls per topic.
	MaxSearches = 3
	// MaxSearchesLimit is the hard ceiling a configuration may raise it to.
	MaxSearchesLimit = 4
)

var ErrSearchBudgetExhausted = errors.New("search budget exhausted")

// Result is one search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher runs a single web search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// CappedSearcher lets at most Max calls through to the wrapped Searcher.
// Create one per topic so the budget is not shared across runs.
type CappedSearcher struct {
	inner Searcher
	max   int

	mu    sync.Mutex
	calls int
}

// NewCappedSearcher clamps max into [1, MaxSearchesLimit].
func NewCappedSearcher(inner Searcher, max int) *CappedSearcher {
	return &CappedSearcher{inner: inner, max: ClampSearches(max)}
}

func (c *CappedSearcher) Search(ctx context.Context, query string) ([]Result, error) {
	c.mu.Lock()
	if c.calls >= c.max {
		c.mu.Unlock()
		return nil, ErrSearchBudgetExhausted
	}
	c.calls++
	c.mu.Unlock()
	return c.inner.Search(ctx, query)
}

// Calls reports how many searches went through.
func (c *CappedSearcher) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// ClampSearches maps non-positive values to MaxSearches and caps the rest at
// MaxSearchesLimit.
func ClampSearches(n int) int {
	switch {
	case n <= 0:
		return MaxSearches
	case n > MaxSearchesLimit:
		return MaxSearchesLimit
	default:
		return n
	}
}
