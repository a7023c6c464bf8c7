package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikibuilder/audit"
	"wikibuilder/wiki"
)

const sampleArticle = "# Rome\n\nRome is a city.\n\n## History\n\n---\nFounded 753 BC.\n\n### Kings\n\nSeven kings.\n"

type fakeRunner struct {
	markdown string
	err      error
	block    chan struct{}

	running atomic.Int32
	peak    atomic.Int32
}

func (f *fakeRunner) RunObserved(ctx context.Context, topic string, obs wiki.Observer) (wiki.Article, error) {
	n := f.running.Add(1)
	defer f.running.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if obs != nil {
		obs.StageStarted(wiki.StageExtract)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return wiki.Article{}, &wiki.Error{Kind: wiki.KindCancelled, Stage: wiki.StageExtract, Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return wiki.Article{}, f.err
	}
	return wiki.Article{Topic: topic, Markdown: f.markdown, Elapsed: 1500 * time.Millisecond}, nil
}

type fakeThumbs struct{}

func (fakeThumbs) Lookup(_ context.Context, topic string) (string, error) {
	return "https://upload.example/" + topic + ".jpg", nil
}

type fakeAuditor struct {
	err error
}

func (f fakeAuditor) Run(_ context.Context, url string) (audit.Report, error) {
	if strings.TrimSpace(url) == "" {
		return audit.Report{}, audit.ErrEmptyURL
	}
	if f.err != nil {
		return audit.Report{}, f.err
	}
	return audit.Report{Site: audit.SiteData{URL: url}, Analysis: "OVERALL SCORE: 90/100"}, nil
}

func newTestServer(t *testing.T, runner ArticleRunner, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	s, err := New(runner, fakeAuditor{}, fakeThumbs{}, cfg, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func getArticle(t *testing.T, ts *httptest.Server, id string) articleResp {
	t.Helper()
	resp, err := http.Get(ts.URL + "/api/articles/" + id)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[articleResp](t, resp)
}

func TestCreateArticleRejectsBlankTopic(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{markdown: sampleArticle}, Config{})

	resp := postJSON(t, ts.URL+"/api/articles", `{"topic":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]errorBody](t, resp)
	assert.Equal(t, wiki.KindInvalidInput, body["error"].Kind)
}

func TestArticleJobLifecycle(t *testing.T) {
	runner := &fakeRunner{markdown: sampleArticle, block: make(chan struct{})}
	s, ts := newTestServer(t, runner, Config{MaxConcurrentJobs: 2})

	resp := postJSON(t, ts.URL+"/api/articles", `{"topic":" Rome "}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	created := decode[articleResp](t, resp)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Rome", created.Topic)

	require.Eventually(t, func() bool {
		return getArticle(t, ts, created.ID).Status == statusRunning
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, wiki.StageExtract, getArticle(t, ts, created.ID).Stage)

	close(runner.block)
	s.Wait()

	got := getArticle(t, ts, created.ID)
	assert.Equal(t, statusDone, got.Status)
	assert.Equal(t, sampleArticle, got.Markdown)
	require.Len(t, got.Sections, 3)
	assert.Equal(t, "history", got.Sections[1].Anchor)
	assert.Contains(t, string(got.Sections[1].HTML), "Founded 753 BC.")
	assert.Equal(t, []wiki.TOCEntry{
		{Level: 1, Heading: "Rome", Anchor: "rome"},
		{Level: 2, Heading: "History", Anchor: "history"},
		{Level: 3, Heading: "Kings", Anchor: "kings"},
	}, got.TOC)
	assert.Equal(t, "https://upload.example/Rome.jpg", got.Thumbnail)
	assert.InDelta(t, 1.5, got.ElapsedSec, 0.001)

	page, err := http.Get(ts.URL + "/articles/" + created.ID)
	require.NoError(t, err)
	defer page.Body.Close()
	html, err := io.ReadAll(page.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Contains(t, string(html), `<h2 id="history">History</h2>`)
}

func TestArticleJobFailure(t *testing.T) {
	runner := &fakeRunner{err: &wiki.Error{Kind: wiki.KindSummarizationFailed, Stage: wiki.StageSummarize, Err: errors.New("rate limited")}}
	s, ts := newTestServer(t, runner, Config{})

	created := decode[articleResp](t, postJSON(t, ts.URL+"/api/articles", `{"topic":"Rome"}`))
	s.Wait()

	got := getArticle(t, ts, created.ID)
	assert.Equal(t, statusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, wiki.KindSummarizationFailed, got.Error.Kind)
	assert.Equal(t, wiki.StageSummarize, got.Error.Stage)
	assert.Contains(t, got.Error.Message, "summarize")
	assert.Equal(t, "rate limited", got.Error.Detail)

	page, err := http.Get(ts.URL + "/articles/" + created.ID)
	require.NoError(t, err)
	page.Body.Close()
	assert.Equal(t, http.StatusBadGateway, page.StatusCode)
}

func TestUnknownJob(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{}, Config{})
	resp, err := http.Get(ts.URL + "/api/articles/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestJobsAreBoundedBySemaphore(t *testing.T) {
	runner := &fakeRunner{markdown: sampleArticle, block: make(chan struct{})}
	s, ts := newTestServer(t, runner, Config{MaxConcurrentJobs: 1})

	var ids []string
	for _, topic := range []string{"Rome", "Jazz", "Volcanoes"} {
		created := decode[articleResp](t, postJSON(t, ts.URL+"/api/articles", `{"topic":"`+topic+`"}`))
		ids = append(ids, created.ID)
	}
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 10*time.Millisecond)

	queued := 0
	for _, id := range ids {
		if getArticle(t, ts, id).Status == statusQueued {
			queued++
		}
	}
	assert.Equal(t, 2, queued)

	close(runner.block)
	s.Wait()
	assert.Equal(t, int32(1), runner.peak.Load())
	for _, id := range ids {
		assert.Equal(t, statusDone, getArticle(t, ts, id).Status)
	}
}

func TestCloseCancelsRunningJobs(t *testing.T) {
	runner := &fakeRunner{block: make(chan struct{})}
	s, err := New(runner, nil, nil, Config{}, nil)
	require.NoError(t, err)

	j := s.startJob("Rome")
	require.Eventually(t, func() bool { return runner.running.Load() == 1 }, time.Second, 10*time.Millisecond)
	s.Close()

	snap := j.snapshot()
	assert.Equal(t, statusFailed, snap.Status)
	assert.Equal(t, wiki.KindCancelled, wiki.KindOf(snap.Err))
}

func TestAuditEndpoint(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{}, Config{})

	resp := postJSON(t, ts.URL+"/api/audits", `{"url":"example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[audit.Report](t, resp)
	assert.Equal(t, "OVERALL SCORE: 90/100", rep.Analysis)

	resp = postJSON(t, ts.URL+"/api/audits", `{"url":""}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditEndpointUnavailable(t *testing.T) {
	s, err := New(&fakeRunner{}, nil, nil, Config{}, nil)
	require.NoError(t, err)
	ts := httptest.NewServer(s.Routes())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/audits", `{"url":"example.com"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsAndHealth(t *testing.T) {
	_, ts := newTestServer(t, &fakeRunner{}, Config{})

	for _, path := range []string{"/metrics", "/healthz"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestStorePrune(t *testing.T) {
	store := newStore(time.Minute)
	old := newJob("old", "a")
	old.finish(wiki.Article{}, "", nil)
	old.finishedAt = time.Now().Add(-2 * time.Minute)
	running := newJob("running", "b")
	store.set(old)
	store.set(running)

	assert.Equal(t, 1, store.prune(time.Now()))
	_, ok := store.get("old")
	assert.False(t, ok)
	_, ok = store.get("running")
	assert.True(t, ok)
}
