// Package wiki builds encyclopedia-style articles from a topic through a fixed
// extract, summarize and format pipeline, and splits the resulting Markdown
// into addressable sections.
package wiki

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StageName identifies one of the three pipeline stages.
type StageName string

const (
	StageExtract   StageName = "extract"
	StageSummarize StageName = "summarize"
	StageFormat    StageName = "format"
)

// FactGatherer returns raw, unranked research text for a topic. Implementations
// must cap their retrieval operations at a small fixed number (see
// research.MaxSearches); the pipeline trusts that contract and does not count.
type FactGatherer interface {
	Gather(ctx context.Context, topic string) (string, error)
}

// Organizer groups raw research into canonical section themes.
type Organizer interface {
	Organize(ctx context.Context, topic, raw string) (string, error)
}

// Formatter renders organized text as article Markdown using the heading
// grammar understood by Parse.
type Formatter interface {
	Format(ctx context.Context, topic, structured string) (string, error)
}

// StageResult is the output of a single stage within one run.
type StageResult struct {
	Stage    StageName
	Text     string
	Err      error
	Duration time.Duration
}

// Observer receives stage progress for a single run.
type Observer interface {
	StageStarted(stage StageName)
	StageFinished(res StageResult)
}

// Article is the successful outcome of a run.
type Article struct {
	Topic    string
	Markdown string
	Elapsed  time.Duration
}

type stage struct {
	name     StageName
	failKind Kind
	run      func(ctx context.Context, topic, input string) (string, error)
}

// Pipeline wires gatherer, organizer and formatter in strict sequence. It holds
// no per-run state, so Run may be called concurrently.
type Pipeline struct {
	gatherer     FactGatherer
	organizer    Organizer
	formatter    Formatter
	logger       *zap.Logger
	strictFormat bool
}

type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStrictFormat rejects formatter output that has no H1 title.
func WithStrictFormat(strict bool) Option {
	return func(p *Pipeline) { p.strictFormat = strict }
}

func New(g FactGatherer, o Organizer, f Formatter, opts ...Option) (*Pipeline, error) {
	if g == nil || o == nil || f == nil {
		return nil, errors.New("gatherer, organizer and formatter are required")
	}
	p := &Pipeline{
		gatherer:  g,
		organizer: o,
		formatter: f,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{name: StageExtract, failKind: KindExtractionFailed, run: func(ctx context.Context, topic, _ string) (string, error) {
			return p.gatherer.Gather(ctx, topic)
		}},
		{name: StageSummarize, failKind: KindSummarizationFailed, run: p.organizer.Organize},
		{name: StageFormat, failKind: KindFormattingFailed, run: p.format},
	}
}

func (p *Pipeline) format(ctx context.Context, topic, structured string) (string, error) {
	md, err := p.formatter.Format(ctx, topic, structured)
	if err != nil {
		return "", err
	}
	if p.strictFormat && !hasTitle(md) {
		return "", ErrMissingTitle
	}
	return md, nil
}

func hasTitle(md string) bool {
	for _, s := range Parse(md) {
		if s.Level == 1 {
			return true
		}
	}
	return false
}

// Run executes the three stages for topic. It returns either the trimmed
// article or a single *Error naming the failed stage.
func (p *Pipeline) Run(ctx context.Context, topic string) (Article, error) {
	return p.RunObserved(ctx, topic, nil)
}

// RunObserved is Run with stage progress reported to obs, which may be nil.
func (p *Pipeline) RunObserved(ctx context.Context, topic string, obs Observer) (Article, error) {
	article, err := p.run(ctx, topic, obs)
	recordOutcome(err)
	return article, err
}

func (p *Pipeline) run(ctx context.Context, topic string, obs Observer) (Article, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Article{}, &Error{Kind: KindInvalidInput, Err: ErrEmptyTopic}
	}

	log := p.logger.With(zap.String("topic", topic))
	start := time.Now()
	input := ""
	for _, s := range p.stages() {
		if err := ctx.Err(); err != nil {
			log.Info("pipeline cancelled", zap.String("stage", string(s.name)), zap.Error(err))
			return Article{}, &Error{Kind: KindCancelled, Stage: s.name, Err: err}
		}

		res := p.runStage(ctx, s, topic, input, obs)
		if res.Err != nil {
			kind := s.failKind
			if ctx.Err() != nil {
				kind = KindCancelled
			}
			log.Error("pipeline stage failed",
				zap.String("stage", string(s.name)),
				zap.String("kind", string(kind)),
				zap.Error(res.Err))
			return Article{}, &Error{Kind: kind, Stage: s.name, Err: res.Err}
		}
		if strings.TrimSpace(res.Text) == "" {
			log.Warn("pipeline stage produced empty output", zap.String("stage", string(s.name)))
		}
		input = res.Text
	}

	article := Article{
		Topic:    topic,
		Markdown: strings.TrimSpace(input),
		Elapsed:  time.Since(start),
	}
	log.Info("pipeline finished",
		zap.Int("chars", len(article.Markdown)),
		zap.Duration("elapsed", article.Elapsed))
	return article, nil
}

func (p *Pipeline) runStage(ctx context.Context, s stage, topic, input string, obs Observer) StageResult {
	if obs != nil {
		obs.StageStarted(s.name)
	}
	p.logger.Debug("stage started", zap.String("stage", string(s.name)), zap.Int("input_chars", len(input)))

	start := time.Now()
	text, err := s.run(ctx, topic, input)
	res := StageResult{Stage: s.name, Text: text, Err: err, Duration: time.Since(start)}

	status := "ok"
	if err != nil {
		status = "error"
	}
	stageDuration.WithLabelValues(string(s.name), status).Observe(res.Duration.Seconds())
	p.logger.Debug("stage finished",
		zap.String("stage", string(s.name)),
		zap.String("status", status),
		zap.Int("output_chars", len(text)),
		zap.Duration("took", res.Duration))

	if obs != nil {
		obs.StageFinished(res)
	}
	return res
}
