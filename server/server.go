// Package server exposes the article pipeline and the website auditor over
// HTTP. Article runs are long, so they execute as background jobs that
// clients poll.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"wikibuilder/audit"
	"wikibuilder/render"
	"wikibuilder/wiki"
)

// ArticleRunner is satisfied by *wiki.Pipeline.
type ArticleRunner interface {
	RunObserved(ctx context.Context, topic string, obs wiki.Observer) (wiki.Article, error)
}

// AuditRunner is satisfied by *audit.Auditor.
type AuditRunner interface {
	Run(ctx context.Context, url string) (audit.Report, error)
}

// ThumbnailSource is satisfied by *research.Thumbnails.
type ThumbnailSource interface {
	Lookup(ctx context.Context, topic string) (string, error)
}

type Config struct {
	MaxConcurrentJobs int
	JobTimeout        time.Duration
	AuditTimeout      time.Duration
	JobRetention      time.Duration
}

type Server struct {
	articles ArticleRunner
	auditor  AuditRunner
	thumbs   ThumbnailSource
	cfg      Config
	store    *jobStore
	sem      *semaphore.Weighted
	logger   *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New builds a Server. auditor and thumbs may be nil; the audit endpoint then
// answers 503 and articles carry no thumbnail.
func New(articles ArticleRunner, auditor AuditRunner, thumbs ThumbnailSource, cfg Config, logger *zap.Logger) (*Server, error) {
	if articles == nil {
		return nil, errors.New("article runner required")
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = 1
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		articles: articles,
		auditor:  auditor,
		thumbs:   thumbs,
		cfg:      cfg,
		store:    newStore(cfg.JobRetention),
		sem:      semaphore.NewWeighted(int64(cfg.MaxConcurrentJobs)),
		logger:   logger,
		baseCtx:  ctx,
		cancel:   cancel,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/articles", s.handleArticleCreate)
	mux.HandleFunc("GET /api/articles/{id}", s.handleArticleGet)
	mux.HandleFunc("GET /articles/{id}", s.handleArticlePage)
	mux.HandleFunc("POST /api/audits", s.handleAudit)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logMiddleware(mux)
}

// Close cancels running jobs and waits for them to return.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// Wait blocks until every started job has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) startJob(topic string) *job {
	s.store.prune(time.Now())
	j := newJob(uuid.NewString(), topic)
	s.store.set(j)
	s.wg.Add(1)
	go s.runJob(j)
	return j
}

func (s *Server) runJob(j *job) {
	defer s.wg.Done()
	log := s.logger.With(zap.String("job", j.id), zap.String("topic", j.topic))

	if err := s.sem.Acquire(s.baseCtx, 1); err != nil {
		j.finish(wiki.Article{}, "", &wiki.Error{Kind: wiki.KindCancelled, Err: err})
		return
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.JobTimeout)
	defer cancel()

	article, err := s.articles.RunObserved(ctx, j.topic, j)
	if err != nil {
		log.Warn("article job failed", zap.Error(err))
		j.finish(wiki.Article{}, "", err)
		return
	}

	thumb := ""
	if s.thumbs != nil {
		thumb, err = s.thumbs.Lookup(ctx, article.Topic)
		if err != nil {
			log.Debug("thumbnail lookup failed", zap.Error(err))
			thumb = ""
		}
	}
	j.finish(article, thumb, nil)
	log.Info("article job done", zap.Duration("elapsed", article.Elapsed))
}

// --- Handlers ---

type articleCreateReq struct {
	Topic string `json:"topic"`
}

type errorBody struct {
	Kind    wiki.Kind      `json:"kind"`
	Stage   wiki.StageName `json:"stage,omitempty"`
	Message string         `json:"message"`
	Detail  string         `json:"detail,omitempty"`
}

type articleResp struct {
	ID         string           `json:"id"`
	Topic      string           `json:"topic"`
	Status     jobStatus        `json:"status"`
	Stage      wiki.StageName   `json:"stage,omitempty"`
	Markdown   string           `json:"markdown,omitempty"`
	Sections   []render.Section `json:"sections,omitempty"`
	TOC        []wiki.TOCEntry  `json:"toc,omitempty"`
	Thumbnail  string           `json:"thumbnail,omitempty"`
	ElapsedSec float64          `json:"elapsed_seconds,omitempty"`
	Error      *errorBody       `json:"error,omitempty"`
}

type auditReq struct {
	URL string `json:"url"`
}

func (s *Server) handleArticleCreate(w http.ResponseWriter, r *http.Request) {
	var req articleCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Kind: wiki.KindInvalidInput, Message: err.Error()})
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeError(w, http.StatusBadRequest, errorBody{
			Kind:    wiki.KindInvalidInput,
			Message: "please enter a non-empty topic",
		})
		return
	}
	j := s.startJob(topic)
	snap := j.snapshot()
	writeJSON(w, http.StatusAccepted, articleResp{ID: snap.ID, Topic: snap.Topic, Status: snap.Status})
}

func (s *Server) handleArticleGet(w http.ResponseWriter, r *http.Request) {
	j, ok := s.store.get(r.PathValue("id"))
	if !ok {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	resp, err := buildArticleResp(j.snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	j, ok := s.store.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	snap := j.snapshot()
	switch snap.Status {
	case statusDone:
	case statusFailed:
		http.Error(w, failureBody(snap.Err).Message, http.StatusBadGateway)
		return
	default:
		w.Header().Set("Retry-After", "5")
		http.Error(w, "article is still being generated", http.StatusAccepted)
		return
	}

	sections := wiki.Parse(snap.Article.Markdown)
	rendered, err := render.Sections(sections)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	page, err := render.Article(render.Page{
		Topic:     snap.Topic,
		Thumbnail: snap.Thumbnail,
		TOC:       wiki.TableOfContents(sections),
		Sections:  rendered,
		Elapsed:   snap.Article.Elapsed.Round(10 * time.Millisecond).String(),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditor == nil {
		http.Error(w, "auditor not configured", http.StatusServiceUnavailable)
		return
	}
	var req auditReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.AuditTimeout)
	defer cancel()
	report, err := s.auditor.Run(ctx, req.URL)
	switch {
	case errors.Is(err, audit.ErrEmptyURL):
		http.Error(w, "please enter a website URL", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// --- Helpers ---

func buildArticleResp(snap jobSnapshot) (articleResp, error) {
	resp := articleResp{
		ID:     snap.ID,
		Topic:  snap.Topic,
		Status: snap.Status,
		Stage:  snap.Stage,
	}
	switch snap.Status {
	case statusFailed:
		body := failureBody(snap.Err)
		resp.Error = &body
	case statusDone:
		sections := wiki.Parse(snap.Article.Markdown)
		rendered, err := render.Sections(sections)
		if err != nil {
			return articleResp{}, err
		}
		resp.Markdown = snap.Article.Markdown
		resp.Sections = rendered
		resp.TOC = wiki.TableOfContents(sections)
		resp.Thumbnail = snap.Thumbnail
		resp.ElapsedSec = snap.Article.Elapsed.Seconds()
	}
	return resp, nil
}

func failureBody(err error) errorBody {
	var perr *wiki.Error
	if !errors.As(err, &perr) {
		return errorBody{Kind: wiki.KindUnknown, Message: "generation failed", Detail: fmt.Sprint(err)}
	}
	body := errorBody{Kind: perr.Kind, Stage: perr.Stage, Detail: fmt.Sprint(perr.Err)}
	switch perr.Kind {
	case wiki.KindInvalidInput:
		body.Message = "please enter a non-empty topic"
	case wiki.KindCancelled:
		body.Message = "generation was cancelled or timed out; please retry"
	default:
		body.Message = fmt.Sprintf("generation failed at stage %s; please retry with the same or a different topic", perr.Stage)
	}
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, map[string]errorBody{"error": body})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
