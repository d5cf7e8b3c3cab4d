package batch

import (
	"sort"
	"sync"
	"time"
)

// TaskResult records one task's outcome. Exactly one of Success, Cancelled,
// or a non-empty Error holds.
type TaskResult struct {
	StudentID   string
	Operation   string
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	Cancelled   bool
	Error       string
}

// Report aggregates a batch run. Counts are accumulated under a lock as tasks
// record themselves, so no result is counted twice or dropped regardless of
// worker interleaving.
type Report struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration

	Submitted int
	Completed int // Succeeded + Failed
	Succeeded int
	Failed    int
	Cancelled int
	TimedOut  bool

	Tasks []TaskResult

	// Per-task duration aggregates over completed tasks.
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	MedianDuration time.Duration

	mu sync.Mutex
}

func newReport(submitted int) *Report {
	return &Report{
		StartedAt: time.Now(),
		Submitted: submitted,
		Tasks:     make([]TaskResult, 0, submitted),
	}
}

// record appends one task result. Safe for concurrent workers.
func (r *Report) record(res TaskResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Tasks = append(r.Tasks, res)
	switch {
	case res.Cancelled:
		r.Cancelled++
	case res.Success:
		r.Succeeded++
	default:
		r.Failed++
	}
}

// finalize closes the report and computes the duration aggregates.
func (r *Report) finalize(timedOut bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CompletedAt = time.Now()
	r.Duration = r.CompletedAt.Sub(r.StartedAt)
	r.Completed = r.Succeeded + r.Failed
	r.TimedOut = timedOut

	durations := make([]time.Duration, 0, len(r.Tasks))
	var total time.Duration
	for _, t := range r.Tasks {
		if t.Cancelled {
			continue
		}
		durations = append(durations, t.Duration)
		total += t.Duration
	}
	if len(durations) == 0 {
		return
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	r.MinDuration = durations[0]
	r.MaxDuration = durations[len(durations)-1]
	r.AvgDuration = total / time.Duration(len(durations))
	mid := len(durations) / 2
	if len(durations)%2 == 1 {
		r.MedianDuration = durations[mid]
	} else {
		r.MedianDuration = (durations[mid-1] + durations[mid]) / 2
	}
}

// SuccessRate returns the fraction of completed tasks that succeeded.
func (r *Report) SuccessRate() float64 {
	if r.Completed == 0 {
		return 0.0
	}
	return float64(r.Succeeded) / float64(r.Completed)
}
