package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	noTitle       = "No title"
	noDescription = "No description"
	maxDescChars  = 500
)

// SiteData holds the on-page signals the auditor grades.
type SiteData struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	H1Count          int    `json:"h1_count"`
	ImagesWithoutAlt int    `json:"images_without_alt"`
}

// Scraper fetches a page and extracts SiteData.
type Scraper struct {
	client    *http.Client
	userAgent string
}

func NewScraper(client *http.Client, userAgent string) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	return &Scraper{client: client, userAgent: userAgent}
}

func (s *Scraper) Scrape(ctx context.Context, url string) (SiteData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return SiteData{}, err
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return SiteData{}, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return SiteData{}, fmt.Errorf("failed to fetch HTML, status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return SiteData{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return Extract(url, doc), nil
}

// Extract reads the audit signals out of a parsed document.
func Extract(url string, doc *goquery.Document) SiteData {
	data := SiteData{URL: url, Title: noTitle, Description: noDescription}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		data.Title = title
	}
	if desc, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && strings.TrimSpace(desc) != "" {
		data.Description = strings.TrimSpace(desc)
	}
	data.H1Count = doc.Find("h1").Length()
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt, ok := img.Attr("alt"); !ok || alt == "" {
			data.ImagesWithoutAlt++
		}
	})
	return data
}

// Prompt renders the site data as the analysis input block.
func (d SiteData) Prompt() string {
	desc := d.Description
	if r := []rune(desc); len(r) > maxDescChars {
		desc = string(r[:maxDescChars]) + "..."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "URL: %s\n", d.URL)
	fmt.Fprintf(&sb, "Title: %s\n", d.Title)
	fmt.Fprintf(&sb, "Description: %s\n", desc)
	fmt.Fprintf(&sb, "H1 tags: %d\n", d.H1Count)
	fmt.Fprintf(&sb, "Images missing alt: %d", d.ImagesWithoutAlt)
	return sb.String()
}
