package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyJobs is returned when a tool job cannot get its slots before the
// wait timeout. Clients should retry after a short delay.
var ErrTooManyJobs = errors.New("too many concurrent jobs, please try again later")

const (
	// DefaultMaxConcurrentJobs is the slot capacity used when none is configured.
	DefaultMaxConcurrentJobs = 4

	// DefaultMaxWaitTime is how long a job waits for slots before it is rejected.
	DefaultMaxWaitTime = 10 * time.Second

	// jobWeightUnit is the input size that costs a job one extra slot.
	jobWeightUnit = 16 << 20
)

// JobLimiter bounds the PDF and workbook jobs running at once. Capacity is
// counted in slots and a job holds one slot per started jobWeightUnit of
// input, so a 40 MB PDF occupies three slots where a small one occupies
// one. Waiters are served in arrival order.
type JobLimiter struct {
	sem      *semaphore.Weighted
	capacity int64
	maxWait  time.Duration

	mu   sync.Mutex
	jobs int
	held int64
}

// NewJobLimiter creates a limiter with capacity slots. Jobs that cannot get
// their slots within maxWait fail with ErrTooManyJobs.
func NewJobLimiter(capacity int, maxWait time.Duration) *JobLimiter {
	if capacity <= 0 {
		capacity = DefaultMaxConcurrentJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	return &JobLimiter{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		maxWait:  maxWait,
	}
}

// Weight returns the slots a job over size bytes of input holds, never more
// than the capacity.
func (l *JobLimiter) Weight(size int) int64 {
	w := int64(1)
	if size > 0 {
		w += int64(size-1) / jobWeightUnit
	}
	return min(w, l.capacity)
}

// Acquire waits for the slots of a job over size bytes. The returned func
// gives them back and must be called once the job is done; extra calls are
// no-ops.
func (l *JobLimiter) Acquire(ctx context.Context, size int) (release func(), err error) {
	w := l.Weight(size)

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, w); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrTooManyJobs
	}
	return l.hold(w), nil
}

// TryAcquire takes the slots of a job over size bytes only if they are free
// right now.
func (l *JobLimiter) TryAcquire(size int) (release func(), ok bool) {
	w := l.Weight(size)
	if !l.sem.TryAcquire(w) {
		return nil, false
	}
	return l.hold(w), true
}

func (l *JobLimiter) hold(w int64) func() {
	l.mu.Lock()
	l.jobs++
	l.held += w
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.jobs--
			l.held -= w
			l.mu.Unlock()
			l.sem.Release(w)
		})
	}
}

// ActiveCount returns the number of running jobs.
func (l *JobLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jobs
}

// WaitForDrain blocks until every running job has finished or ctx is done.
// It queues for the full capacity, so jobs arriving after it wait as well.
func (l *JobLimiter) WaitForDrain(ctx context.Context) error {
	if err := l.sem.Acquire(ctx, l.capacity); err != nil {
		return err
	}
	l.sem.Release(l.capacity)
	return nil
}

// JobLimiterStatus is a snapshot of the limiter, served by the health check.
type JobLimiterStatus struct {
	Active    int   `json:"active"`
	Held      int64 `json:"held"`
	Available int64 `json:"available"`
	Capacity  int64 `json:"capacity"`
}

// Status returns the current limiter state.
func (l *JobLimiter) Status() JobLimiterStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return JobLimiterStatus{
		Active:    l.jobs,
		Held:      l.held,
		Available: l.capacity - l.held,
		Capacity:  l.capacity,
	}
}
