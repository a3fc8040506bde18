// Package queue enforces the single-writer discipline mutations must run
// under: every AddPoint/RemovePoint/UpdatePoint/RebuildFromSnapshot call
// passes through one FIFO worker goroutine, so no two mutations ever touch
// the graph at once even when the façade serves many concurrent callers.
package queue

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle of one queued job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type jobRecord struct {
	mu     sync.RWMutex
	status Status
	err    error
}

func (r *jobRecord) setStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
}

func (r *jobRecord) setFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusFailed
	r.err = err
}

// Snapshot returns the job's current status and, if failed, its error.
func (r *jobRecord) Snapshot() (Status, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status, r.err
}

type queuedJob struct {
	id     string
	run    func() error
	record *jobRecord
	result chan error
}

// Serializer runs every submitted mutation through a single worker
// goroutine, in enqueue order.
type Serializer struct {
	jobs chan *queuedJob

	mu      sync.Mutex
	records map[string]*jobRecord

	onDepth func(int)
	done    chan struct{}
}

// NewSerializer starts the worker goroutine. capacity bounds how many jobs
// may wait in queue before Enqueue blocks on send. onDepth, when non-nil, is
// invoked after every enqueue and dequeue with the current queue depth.
func NewSerializer(capacity int, onDepth func(int)) *Serializer {
	if capacity <= 0 {
		capacity = 1
	}
	s := &Serializer{
		jobs:    make(chan *queuedJob, capacity),
		records: make(map[string]*jobRecord),
		onDepth: onDepth,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Serializer) run() {
	for qj := range s.jobs {
		qj.record.setStatus(StatusRunning)
		err := qj.run()
		if err != nil {
			qj.record.setFailed(err)
		} else {
			qj.record.setStatus(StatusCompleted)
		}
		qj.result <- err
		close(qj.result)
		s.reportDepth()
	}
	close(s.done)
}

func (s *Serializer) reportDepth() {
	if s.onDepth != nil {
		s.onDepth(len(s.jobs))
	}
}

// Enqueue submits fn to run under the single-writer discipline and blocks
// until it has run (or ctx is done), returning fn's error.
func (s *Serializer) Enqueue(ctx context.Context, fn func() error) error {
	qj := &queuedJob{
		id:     uuid.New().String(),
		run:    fn,
		record: &jobRecord{status: StatusQueued},
		result: make(chan error, 1),
	}

	s.mu.Lock()
	s.records[qj.id] = qj.record
	s.mu.Unlock()

	select {
	case s.jobs <- qj:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.reportDepth()

	select {
	case err := <-qj.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth returns the number of jobs currently waiting to run.
func (s *Serializer) Depth() int {
	return len(s.jobs)
}

// Close stops accepting new jobs and waits for the worker to drain and
// exit. Enqueue must not be called again after Close.
func (s *Serializer) Close() {
	close(s.jobs)
	<-s.done
}
