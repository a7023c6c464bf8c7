package research

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"
	DefaultUserAgent      = "Mozilla/5.0 (compatible; wikibuilder/1.0)"
	defaultResultsPerCall = 5
)

// DuckDuckGo scrapes the HTML results page of DuckDuckGo.
type DuckDuckGo struct {
	client     *http.Client
	endpoint   string
	userAgent  string
	maxResults int
	limiter    *rate.Limiter
}

type DuckDuckGoOption func(*DuckDuckGo)

func WithEndpoint(endpoint string) DuckDuckGoOption {
	return func(d *DuckDuckGo) { d.endpoint = endpoint }
}

func WithUserAgent(ua string) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithRateLimit throttles outgoing searches; rps <= 0 disables throttling.
func WithRateLimit(rps float64) DuckDuckGoOption {
	return func(d *DuckDuckGo) {
		if rps <= 0 {
			d.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewDuckDuckGo(client *http.Client, opts ...DuckDuckGoOption) *DuckDuckGo {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	d := &DuckDuckGo{
		client:     client,
		endpoint:   DefaultSearchEndpoint,
		userAgent:  DefaultUserAgent,
		maxResults: defaultResultsPerCall,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Result, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("q", query)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed, status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		r := Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveResultURL(href),
			Snippet: strings.TrimSpace(s.Find(".result__snippet").Text()),
		}
		if r.URL == "" || (r.Title == "" && r.Snippet == "") {
			return true
		}
		results = append(results, r)
		return len(results) < d.maxResults
	})
	return results, nil
}

// resolveResultURL unwraps DuckDuckGo's redirect links (/l/?uddg=<target>).
func resolveResultURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
