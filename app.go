package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"wikibuilder/audit"
	"wikibuilder/config"
	"wikibuilder/generator"
	"wikibuilder/logging"
	"wikibuilder/research"
	"wikibuilder/wiki"
)

// app holds the collaborators shared by every sub-command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	agent  *generator.Agent
	client *http.Client
}

func newApp(ctx context.Context, configPath, logLevel string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	llm, err := generator.NewClient(ctx, generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm, logger.Named("generator"))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:    cfg,
		logger: logger,
		agent:  agent,
		client: &http.Client{Timeout: cfg.Research.Timeout},
	}, nil
}

func (a *app) pipeline() (*wiki.Pipeline, error) {
	opts := []research.GathererOption{
		research.WithExtractor(a.agent),
		research.WithMaxSearches(a.cfg.Research.MaxSearches),
		research.WithLogger(a.logger.Named("research")),
	}
	if a.cfg.Research.Enabled {
		ddg := research.NewDuckDuckGo(a.client,
			research.WithEndpoint(a.cfg.Research.Endpoint),
			research.WithUserAgent(a.cfg.Research.UserAgent),
			research.WithRateLimit(a.cfg.Research.RequestsPerSecond))
		opts = append(opts,
			research.WithSearcher(ddg),
			research.WithDistiller(research.NewDistiller(a.client, a.cfg.Research.UserAgent, a.cfg.Research.ExcerptChars)))
	}
	gatherer, err := research.NewGatherer(opts...)
	if err != nil {
		return nil, err
	}
	return wiki.New(gatherer, a.agent, a.agent,
		wiki.WithLogger(a.logger.Named("pipeline")),
		wiki.WithStrictFormat(a.cfg.Wiki.StrictFormat))
}

func (a *app) auditor() (*audit.Auditor, error) {
	return audit.New(audit.NewScraper(a.client, a.cfg.Research.UserAgent), a.agent, a.logger.Named("audit"))
}

// thumbnails returns nil when lookups are disabled.
func (a *app) thumbnails() (*research.Thumbnails, error) {
	if !a.cfg.Research.Thumbnails {
		return nil, nil
	}
	return research.NewThumbnails(nil, "", 0)
}
