package downloader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"toonzip/models"
)

// Job statuses
const (
	StatusIdle       = "idle"
	StatusRunning    = "running"
	StatusCancelling = "cancelling"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusFailed     = "failed"
)

// ErrJobRunning is returned by Start while a run is in progress.
var ErrJobRunning = errors.New("a download is already running")

// RunFunc runs one comic download. Manager.Run satisfies it.
type RunFunc func(ctx context.Context, listingURL string) (models.RunSummary, error)

// Job is a snapshot of the current or last run.
type Job struct {
	URL     string
	Status  string
	Summary models.RunSummary
	Error   error
}

// JobRunner allows a single download at a time and lets the UI stop it.
type JobRunner struct {
	run RunFunc

	mu     sync.Mutex
	job    Job
	cancel context.CancelFunc
	done   chan struct{}

	onUpdated func(Job)
}

func NewJobRunner(run RunFunc) *JobRunner {
	return &JobRunner{
		run: run,
		job: Job{Status: StatusIdle},
	}
}

// SetCallback sets the function notified on every status change. It is
// called from the runner's goroutine.
func (r *JobRunner) SetCallback(onUpdated func(Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onUpdated = onUpdated
}

// Start launches a run in the background.
func (r *JobRunner) Start(listingURL string) error {
	r.mu.Lock()
	if r.job.Status == StatusRunning || r.job.Status == StatusCancelling {
		r.mu.Unlock()
		return ErrJobRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	r.job = Job{URL: listingURL, Status: StatusRunning}
	job, notify, done := r.job, r.onUpdated, r.done
	r.mu.Unlock()

	log.Printf("[Job] Started: %s", listingURL)
	if notify != nil {
		notify(job)
	}

	go r.execute(ctx, listingURL, done)
	return nil
}

func (r *JobRunner) execute(ctx context.Context, listingURL string, done chan struct{}) {
	defer close(done)

	summary, err := r.run(ctx, listingURL)

	r.mu.Lock()
	r.cancel()
	r.cancel = nil
	r.job.Summary = summary
	r.job.Error = err
	switch {
	case errors.Is(err, context.Canceled):
		r.job.Status = StatusCancelled
	case err != nil:
		r.job.Status = StatusFailed
	default:
		r.job.Status = StatusCompleted
	}
	job, notify := r.job, r.onUpdated
	r.mu.Unlock()

	log.Printf("[Job] %s: %s", job.Status, listingURL)
	if notify != nil {
		notify(job)
	}
}

// Stop cancels the running job. Workers finish their in-flight request and
// then stop; Wait blocks until that has happened.
func (r *JobRunner) Stop() error {
	r.mu.Lock()
	if r.job.Status != StatusRunning {
		status := r.job.Status
		r.mu.Unlock()
		return fmt.Errorf("no running download (status: %s)", status)
	}

	log.Printf("[Job] Cancelling: %s", r.job.URL)
	r.cancel()
	r.job.Status = StatusCancelling
	job, notify := r.job, r.onUpdated
	r.mu.Unlock()

	if notify != nil {
		notify(job)
	}
	return nil
}

// Wait blocks until the current run, if any, has finished.
func (r *JobRunner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

// Job returns a snapshot of the current or last run.
func (r *JobRunner) Job() Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job
}

// Running reports whether a run is in progress.
func (r *JobRunner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.job.Status == StatusRunning || r.job.Status == StatusCancelling
}
