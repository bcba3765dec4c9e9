package inmemory

import "sync"

type Snapshot struct {
	DecisionTotal     uint64            `json:"decision_total"`
	FallbackTotal     uint64            `json:"fallback_total"`
	ConflictTotal     uint64            `json:"conflict_total"`
	HandlerFailures   uint64            `json:"handler_failures"`
	ByHandler         map[string]uint64 `json:"by_handler"`
	FailuresByHandler map[string]uint64 `json:"failures_by_handler"`
}

type Recorder struct {
	mu        sync.Mutex
	decisions uint64
	fallbacks uint64
	conflicts uint64
	failures  uint64
	byHandler map[string]uint64
	byFailure map[string]uint64
}

func NewRecorder() *Recorder {
	return &Recorder{
		byHandler: map[string]uint64{},
		byFailure: map[string]uint64{},
	}
}

func (r *Recorder) RecordDecision(handler string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions++
	r.byHandler[handler]++
}

func (r *Recorder) RecordFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks++
}

func (r *Recorder) RecordHandlerFailure(handler string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
	r.byFailure[handler]++
}

func (r *Recorder) RecordConflict() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conflicts++
}

func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		DecisionTotal:     r.decisions,
		FallbackTotal:     r.fallbacks,
		ConflictTotal:     r.conflicts,
		HandlerFailures:   r.failures,
		ByHandler:         make(map[string]uint64, len(r.byHandler)),
		FailuresByHandler: make(map[string]uint64, len(r.byFailure)),
	}
	for k, v := range r.byHandler {
		out.ByHandler[k] = v
	}
	for k, v := range r.byFailure {
		out.FailuresByHandler[k] = v
	}
	return out
}

func (r *Recorder) SnapshotAny() any {
	return r.Snapshot()
}
