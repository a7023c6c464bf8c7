package research

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxPageBytes = 2 << 20

// Page is the readable part of a fetched web page.
type Page struct {
	URL     string
	Title   string
	Excerpt string
	Text    string
}

// Distiller fetches a page and keeps its main article text.
type Distiller struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

func NewDistiller(client *http.Client, userAgent string, maxChars int) *Distiller {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if maxChars <= 0 {
		maxChars = 2000
	}
	return &Distiller{client: client, userAgent: userAgent, maxChars: maxChars}
}

func (d *Distiller) Distill(ctx context.Context, rawURL string) (Page, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return Page{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("failed to fetch page, status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read page body: %w", err)
	}

	article, err := readability.NewParser().Parse(strings.NewReader(string(body)), pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("readability: %w", err)
	}

	// Flatten the distilled HTML to text.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return Page{}, err
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")

	return Page{
		URL:     rawURL,
		Title:   strings.TrimSpace(article.Title),
		Excerpt: strings.TrimSpace(article.Excerpt),
		Text:    truncate(text, d.maxChars),
	}, nil
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
