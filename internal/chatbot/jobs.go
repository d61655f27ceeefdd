package chatbot

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"asset-inventory-backend/internal/model"
)

// JobStatus is the lifecycle state of an async chatbot job.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// Job is the stored outcome of an async chatbot query, looked up by ID
// until its TTL expires.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type jobRequest struct {
	id        string
	principal model.Principal
	query     string
}

// JobQueue runs chatbot queries in the background and parks results in an
// in-memory cache so clients can poll for them.
type JobQueue struct {
	size    int
	jobs    chan jobRequest
	results *cache.Cache
	svc     *Service
	ttl     time.Duration
}

// NewJobQueue creates a queue backed by size worker goroutines. Finished
// jobs are kept for ttl before being evicted.
func NewJobQueue(size int, svc *Service, ttl time.Duration) *JobQueue {
	return &JobQueue{
		size:    size,
		jobs:    make(chan jobRequest, size*4),
		results: cache.New(ttl, ttl*2),
		svc:     svc,
		ttl:     ttl,
	}
}

// Start launches the worker goroutines.
func (q *JobQueue) Start(ctx context.Context) {
	for i := 0; i < q.size; i++ {
		go q.worker(ctx, i)
	}
}

func (q *JobQueue) worker(ctx context.Context, id int) {
	log.Printf("Chatbot job worker %d started", id)
	for {
		select {
		case req := <-q.jobs:
			log.Printf("Chatbot job worker %d processing job %s", id, req.id)
			q.process(ctx, req)
		case <-ctx.Done():
			log.Printf("Chatbot job worker %d shutting down", id)
			return
		}
	}
}

// Enqueue registers a new job and hands it to the pool. It returns the job
// ID immediately; callers poll Lookup for the outcome.
func (q *JobQueue) Enqueue(p model.Principal, query string) *Job {
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobPending,
		CreatedAt: time.Now(),
	}
	q.results.Set(job.ID, job, q.ttl)
	q.jobs <- jobRequest{id: job.ID, principal: p, query: query}
	return job
}

// Lookup returns the job for the given ID, if it is still retained.
func (q *JobQueue) Lookup(id string) (*Job, bool) {
	v, found := q.results.Get(id)
	if !found {
		return nil, false
	}
	return v.(*Job), true
}

func (q *JobQueue) process(ctx context.Context, req jobRequest) {
	pending, found := q.Lookup(req.id)
	if !found {
		// Evicted before a worker got to it.
		return
	}

	// Lookup hands out the cached pointer, so the pending job must never be
	// mutated once it is visible to pollers. Replace it with a fresh value.
	done := Job{ID: pending.ID, CreatedAt: pending.CreatedAt}
	result, err := q.svc.Ask(ctx, req.principal, req.query)
	if err != nil {
		done.Status = JobFailed
		done.Error = err.Error()
	} else {
		done.Status = JobDone
		done.Result = result
	}
	q.results.Set(req.id, &done, q.ttl)
}
