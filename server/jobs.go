package server

import (
	"sync"
	"time"

	"wikibuilder/wiki"
)

type jobStatus string

const (
	statusQueued  jobStatus = "queued"
	statusRunning jobStatus = "running"
	statusDone    jobStatus = "done"
	statusFailed  jobStatus = "failed"
)

// job is one background article run. It records stage progress as the
// pipeline's Observer.
type job struct {
	mu         sync.Mutex
	id         string
	topic      string
	status     jobStatus
	stage      wiki.StageName
	article    wiki.Article
	thumbnail  string
	err        error
	createdAt  time.Time
	finishedAt time.Time
}

type jobSnapshot struct {
	ID         string
	Topic      string
	Status     jobStatus
	Stage      wiki.StageName
	Article    wiki.Article
	Thumbnail  string
	Err        error
	CreatedAt  time.Time
	FinishedAt time.Time
}

func newJob(id, topic string) *job {
	return &job{id: id, topic: topic, status: statusQueued, createdAt: time.Now()}
}

func (j *job) StageStarted(stage wiki.StageName) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = statusRunning
	j.stage = stage
}

func (j *job) StageFinished(wiki.StageResult) {}

func (j *job) finish(article wiki.Article, thumbnail string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finishedAt = time.Now()
	if err != nil {
		j.status = statusFailed
		j.err = err
		return
	}
	j.status = statusDone
	j.article = article
	j.thumbnail = thumbnail
}

func (j *job) snapshot() jobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return jobSnapshot{
		ID:         j.id,
		Topic:      j.topic,
		Status:     j.status,
		Stage:      j.stage,
		Article:    j.article,
		Thumbnail:  j.thumbnail,
		Err:        j.err,
		CreatedAt:  j.createdAt,
		FinishedAt: j.finishedAt,
	}
}

type jobStore struct {
	mu        sync.Mutex
	jobs      map[string]*job
	retention time.Duration
}

func newStore(retention time.Duration) *jobStore {
	return &jobStore{jobs: make(map[string]*job), retention: retention}
}

func (s *jobStore) set(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.id] = j
}

func (s *jobStore) get(id string) (*job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	return j, ok
}

// prune drops finished jobs older than the retention window.
func (s *jobStore) prune(now time.Time) int {
	if s.retention <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, j := range s.jobs {
		snap := j.snapshot()
		if snap.FinishedAt.IsZero() {
			continue
		}
		if now.Sub(snap.FinishedAt) > s.retention {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}
