package progress

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Terminator stops a running download. It receives the job's cancel function
// and is responsible for firing it as well as reaping any processes the
// download spawned.
type Terminator func(cancel context.CancelFunc) error

// Job is the handle of one in-flight download.
type Job struct {
	id     string
	cancel context.CancelFunc
}

// ID returns the job identifier used in logs.
func (j *Job) ID() string {
	if j == nil {
		return ""
	}
	return j.id
}

// Tracker holds the progress record and the active job handle.
type Tracker struct {
	snapshot  atomic.Pointer[Snapshot]
	mu        sync.Mutex
	active    *Job
	terminate Terminator
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithTerminator installs the function used by Cancel to stop a download.
func WithTerminator(fn Terminator) Option {
	return func(t *Tracker) {
		if fn != nil {
			t.terminate = fn
		}
	}
}

// NewTracker returns a tracker holding the default record.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{
		terminate: func(cancel context.CancelFunc) error {
			cancel()
			return nil
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	t.store(Default())
	return t
}

// Snapshot returns the current record.
func (t *Tracker) Snapshot() Snapshot {
	return *t.snapshot.Load()
}

// Reset overwrites the record with defaults. The active job, if any, keeps
// running.
func (t *Tracker) Reset() {
	t.store(Default())
}

// Begin resets the record and installs a new active job whose context is
// derived from parent. A previous job handle is replaced, not cancelled.
func (t *Tracker) Begin(parent context.Context) (context.Context, *Job) {
	ctx, cancel := context.WithCancel(parent)
	job := &Job{id: uuid.NewString(), cancel: cancel}

	t.mu.Lock()
	t.active = job
	t.store(Default())
	t.mu.Unlock()
	return ctx, job
}

// Update applies a progress sample reported by job. Samples from a job that
// is no longer active are dropped.
func (t *Tracker) Update(job *Job, sample Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job == nil || t.active != job {
		return
	}
	current := *t.snapshot.Load()
	if sample.Finished {
		current.Progress = 100
		current.Status = StatusFinished
		t.store(current)
		return
	}
	if pct := sample.Percent(); pct >= 0 {
		current.Progress = pct
	}
	current.Speed = FormatSpeed(sample.BytesPerSecond)
	current.ETA = FormatETA(sample.ETA)
	current.Status = StatusDownloading
	t.store(current)
}

// Finish clears the handle of job if it is still the active one and releases
// its context.
func (t *Tracker) Finish(job *Job) {
	if job == nil {
		return
	}
	t.mu.Lock()
	if t.active == job {
		t.active = nil
	}
	t.mu.Unlock()
	job.cancel()
}

// Active reports whether a download is in flight.
func (t *Tracker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// Cancel terminates the active download. It returns false when nothing was
// running. When termination fails the record and handle are left unchanged.
func (t *Tracker) Cancel() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return false, nil
	}
	if err := t.terminate(t.active.cancel); err != nil {
		return true, err
	}
	t.active = nil
	cancelled := Default()
	cancelled.Status = StatusCancelled
	t.store(cancelled)
	return true, nil
}

func (t *Tracker) store(s Snapshot) {
	t.snapshot.Store(&s)
}
