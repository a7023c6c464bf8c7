package generator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Agent runs one role-specific prompt per call against the LLM. It satisfies
// the extractor, organizer and formatter collaborators of the wiki pipeline.
type Agent struct {
	llm    LLMClient
	logger *zap.Logger
}

func NewAgent(llm LLMClient, logger *zap.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{llm: llm, logger: logger}, nil
}

// Extract condenses raw search snippets into factual notes.
func (a *Agent) Extract(ctx context.Context, topic, snippets string) (string, error) {
	return a.complete(ctx, RoleExtractor, BuildExtractionPrompt(topic, snippets))
}

// Organize groups extracted facts into canonical section themes.
func (a *Agent) Organize(ctx context.Context, topic, raw string) (string, error) {
	return a.complete(ctx, RoleSummarizer, BuildSummaryPrompt(topic, raw))
}

// Format produces the final article Markdown.
func (a *Agent) Format(ctx context.Context, topic, structured string) (string, error) {
	return a.complete(ctx, RoleFormatter, BuildFormattingPrompt(topic, structured))
}

// Audit grades the scraped site description.
func (a *Agent) Audit(ctx context.Context, siteData string) (string, error) {
	return a.complete(ctx, RoleAuditor, BuildAuditPrompt(siteData))
}

func (a *Agent) complete(ctx context.Context, role Role, prompt Prompt) (string, error) {
	start := time.Now()
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("llm call failed", zap.String("role", role.Name), zap.Error(err))
		return "", err
	}
	out, err := PostProcess(raw)
	if err != nil {
		a.logger.Warn("llm output rejected", zap.String("role", role.Name), zap.Error(err))
		return "", err
	}
	a.logger.Debug("llm call done",
		zap.String("role", role.Name),
		zap.Int("chars", len(out)),
		zap.Duration("took", time.Since(start)))
	return out, nil
}
