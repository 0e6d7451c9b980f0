// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds one run. Zero means Interval.
	Timeout time.Duration
	// RunAtStart runs the job once as soon as the runner starts.
	RunAtStart bool
	Run        func(ctx context.Context) error
}

// Runner runs each added Job on its own ticker until Stop.
type Runner struct {
	log    *zap.Logger
	jobs   []Job
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// NewRunner creates an idle runner.
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{log: logger, stopCh: make(chan struct{})}
}

// Add registers a job. Jobs with a non-positive interval are ignored.
// Add must be called before Start.
func (r *Runner) Add(j Job) {
	if j.Interval <= 0 || j.Run == nil {
		r.log.Info("background job disabled", zap.String("job", j.Name))
		return
	}
	r.jobs = append(r.jobs, j)
}

// Len reports how many jobs are registered.
func (r *Runner) Len() int { return len(r.jobs) }

// Start launches one goroutine per job.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
		r.log.Info("background job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals every job to stop and waits for running ones to return. It
// is safe to call more than once, and on a nil Runner.
func (r *Runner) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.stopCh)
		r.wg.Wait()
		if len(r.jobs) > 0 {
			r.log.Info("background jobs stopped")
		}
	})
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	if j.RunAtStart {
		r.runOnce(j)
	}

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(j)
		}
	}
}

func (r *Runner) runOnce(j Job) {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = j.Interval
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// stop promptly on shutdown
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := j.Run(ctx); err != nil {
		r.log.Error("background job failed", zap.String("job", j.Name), zap.Error(err))
	}
}
