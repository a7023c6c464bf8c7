// Package audit grades a website's SEO, accessibility and performance by
// scraping a few on-page signals and asking the model for a scored report.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrEmptyURL = errors.New("website url must not be empty")

// Analyzer produces the textual report. generator.Agent satisfies it.
type Analyzer interface {
	Audit(ctx context.Context, siteData string) (string, error)
}

// SiteScraper is the page fetching half of an audit.
type SiteScraper interface {
	Scrape(ctx context.Context, url string) (SiteData, error)
}

// Report is a finished audit.
type Report struct {
	Site     SiteData      `json:"site"`
	Analysis string        `json:"analysis"`
	HTML     string        `json:"html"`
	Elapsed  time.Duration `json:"elapsed"`
}

type Auditor struct {
	scraper  SiteScraper
	analyzer Analyzer
	logger   *zap.Logger
}

func New(scraper SiteScraper, analyzer Analyzer, logger *zap.Logger) (*Auditor, error) {
	if scraper == nil || analyzer == nil {
		return nil, errors.New("scraper and analyzer are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{scraper: scraper, analyzer: analyzer, logger: logger}, nil
}

// NormalizeURL trims the input and defaults the scheme to https.
func NormalizeURL(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrEmptyURL
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u, nil
}

func (a *Auditor) Run(ctx context.Context, rawURL string) (Report, error) {
	url, err := NormalizeURL(rawURL)
	if err != nil {
		return Report{}, err
	}
	start := time.Now()
	log := a.logger.With(zap.String("url", url))

	log.Info("scraping website")
	site, err := a.scraper.Scrape(ctx, url)
	if err != nil {
		log.Error("scrape failed", zap.Error(err))
		return Report{}, fmt.Errorf("failed to scrape website: %w", err)
	}

	log.Info("analyzing website")
	analysis, err := a.analyzer.Audit(ctx, site.Prompt())
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return Report{}, fmt.Errorf("error during AI analysis: %w", err)
	}

	return Report{
		Site:     site,
		Analysis: analysis,
		HTML:     FormatHTML(analysis),
		Elapsed:  time.Since(start),
	}, nil
}
