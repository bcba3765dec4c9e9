package tick

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"rialto/internal/app/decision"
	"rialto/internal/app/ports"
)

// Report summarizes one scheduling pass.
type Report struct {
	Eligible  int `json:"eligible"`
	Scheduled int `json:"scheduled"`
	Busy      int `json:"busy"`
	TimedOut  int `json:"timed_out"`
	Failed    int `json:"failed"`
}

// Runner iterates the eligible population once per tick. Citizens are
// independent, so decisions run on a bounded worker pool; each decision
// gets its own deadline and a timeout only skips that citizen.
type Runner struct {
	Citizens     ports.CitizenRepository
	Orchestrator *decision.Orchestrator
	Parallelism  int
	Timeout      time.Duration
	Log          *slog.Logger
}

// Run aborts the whole pass only on a store-unavailable error; everything
// else costs at most one citizen's decision.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	citizens, err := r.Citizens.ListEligible(ctx)
	if err != nil {
		return Report{}, err
	}

	parallelism := r.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		report = Report{Eligible: len(citizens)}
		fatal  error
	)

	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for citizenID := range jobs {
				r.decideOne(passCtx, citizenID, timeout, &mu, &report, &fatal, cancel)
			}
		}()
	}

	for _, c := range citizens {
		select {
		case <-passCtx.Done():
		case jobs <- c.ID:
		}
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return report, fatal
	}
	return report, nil
}

func (r *Runner) decideOne(ctx context.Context, citizenID string, timeout time.Duration, mu *sync.Mutex, report *Report, fatal *error, cancel context.CancelFunc) {
	decideCtx, done := context.WithTimeout(ctx, timeout)
	defer done()

	d, err := r.Orchestrator.Decide(decideCtx, citizenID)

	mu.Lock()
	defer mu.Unlock()
	switch {
	case err == nil && d.Busy:
		report.Busy++
	case err == nil:
		report.Scheduled++
	case errors.Is(err, context.DeadlineExceeded):
		report.TimedOut++
		r.log().Warn("tick: decision timed out", "citizen_id", citizenID)
	case errors.Is(err, ports.ErrStoreUnavailable):
		report.Failed++
		if *fatal == nil {
			*fatal = err
		}
		cancel()
	default:
		report.Failed++
		r.log().Warn("tick: decision failed", "citizen_id", citizenID, "err", err)
	}
}

func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
