// Package ledger implements the canonical grade store and its derived
// groupings: per-student, per-subject, date-ordered, and the
// reverse-chronological history. A grade ingestion commits all four indices
// under one lock, invalidates the affected cache entries, and pushes the
// recomputed average into the student directory, in that order; the write is
// not complete until invalidation has happened.
package ledger

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gradehub/gradehub-core/internal/domain/grade"
	"github.com/gradehub/gradehub-core/internal/domain/shared"
	"github.com/gradehub/gradehub-core/pkg/idgen"
)

// Statistic kinds served through the cache.
const (
	KindStudentAverage  = "student-average"
	KindCoreAverage     = "core-average"
	KindElectiveAverage = "elective-average"
	KindSubjectAverage  = "subject-average"
	KindClassAverage    = "class-average"
)

// AggregateKey is the cache key for all-students statistics.
const AggregateKey = "all-students"

// DirectoryHook is the slice of the student directory the ledger needs:
// an existence check on ingest and the derived-field recompute push.
type DirectoryHook interface {
	Exists(id string) bool
	UpdateGPAAndAverage(id string, average, gpa float64) error
}

// StatCache fronts the derived statistics. Satisfied by *cache.Cache[float64].
type StatCache interface {
	Get(kind, key string) (float64, bool)
	Put(kind, key string, value float64)
	Invalidate(key string)
	InvalidateAll()
}

// Config holds ledger construction options.
type Config struct {
	// Scale selects the GPA conversion variant; defaults to ScaleStandard.
	Scale grade.Scale

	// Logger for mutation diagnostics.
	Logger *slog.Logger

	// Publisher receives domain events; nil disables publishing.
	Publisher shared.EventPublisher
}

// Ledger is the canonical grade store.
type Ledger struct {
	cfg   Config
	dir   DirectoryHook
	stats StatCache
	ids   idgen.Generator

	mu        sync.RWMutex
	byID      map[string]*grade.Grade
	byStudent map[string][]*grade.Grade
	bySubject map[string][]*grade.Grade
	byDate    []*grade.Grade // most-recent-date-first
	history   []*grade.Grade // append order; read newest-first
}

// New creates a ledger bound to a directory and a statistic cache.
func New(dir DirectoryHook, stats StatCache, ids idgen.Generator, cfg Config) *Ledger {
	if !cfg.Scale.IsValid() {
		cfg.Scale = grade.ScaleStandard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}

	return &Ledger{
		cfg:       cfg,
		dir:       dir,
		stats:     stats,
		ids:       ids,
		byID:      make(map[string]*grade.Grade),
		byStudent: make(map[string][]*grade.Grade),
		bySubject: make(map[string][]*grade.Grade),
	}
}

// Scale returns the GPA scale the ledger converts with.
func (l *Ledger) Scale() grade.Scale {
	return l.cfg.Scale
}

// RecordGrade commits a grade to all four indices, invalidates the student's
// cache entries along with the subject and aggregate statistics, and pushes
// the recomputed average and its GPA conversion into the directory. Fails
// with ErrUnknownStudent or ErrInvalidScore; a rejected grade leaves every
// index untouched.
func (l *Ledger) RecordGrade(g *grade.Grade) (string, error) {
	if !l.dir.Exists(g.StudentID) {
		return "", shared.NewDomainError("ledger", "RecordGrade", shared.ErrUnknownStudent, g.StudentID)
	}
	// Construction already validates; re-check so a hand-built Grade cannot
	// corrupt the averages.
	if g.Score < 0.0 || g.Score > 100.0 {
		return "", shared.NewDomainError("ledger", "RecordGrade", shared.ErrInvalidScore, g.Subject)
	}

	l.mu.Lock()
	rec := g.Clone()
	rec.ID = l.ids.Next()
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	l.byID[rec.ID] = rec
	l.byStudent[rec.StudentID] = append(l.byStudent[rec.StudentID], rec)
	l.bySubject[rec.Subject] = append(l.bySubject[rec.Subject], rec)
	l.insertByDate(rec)
	l.history = append(l.history, rec)

	average := mean(l.byStudent[rec.StudentID], nil)
	l.mu.Unlock()

	// Invalidate before the write is considered complete: a stale negative
	// (miss after invalidation) is safe, serving just-invalidated data is not.
	l.stats.Invalidate(rec.StudentID)
	l.stats.Invalidate(rec.Subject)
	l.stats.Invalidate(AggregateKey)

	gpa := l.cfg.Scale.GPA(average)
	if err := l.dir.UpdateGPAAndAverage(rec.StudentID, average, gpa); err != nil {
		return "", err
	}

	l.cfg.Logger.Debug("grade recorded",
		"grade_id", rec.ID,
		"student_id", rec.StudentID,
		"subject", rec.Subject,
		"score", rec.Score,
	)
	l.cfg.Publisher.Publish(shared.NewEvent(shared.EventGradeRecorded, rec.StudentID, map[string]any{
		"grade_id": rec.ID,
		"subject":  rec.Subject,
		"score":    rec.Score,
	}))

	return rec.ID, nil
}

// OverallAverage returns the mean over all of a student's grades, 0.0 when
// there are none. Served through the cache: a repeat call with no intervening
// writes hits.
func (l *Ledger) OverallAverage(id string) float64 {
	return l.cachedAverage(KindStudentAverage, id, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return mean(l.byStudent[id], nil)
	})
}

// CoreAverage returns the mean over the student's core-subject grades.
func (l *Ledger) CoreAverage(id string) float64 {
	return l.cachedAverage(KindCoreAverage, id, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return mean(l.byStudent[id], func(g *grade.Grade) bool {
			return g.Category == grade.SubjectCore
		})
	})
}

// ElectiveAverage returns the mean over the student's elective grades.
func (l *Ledger) ElectiveAverage(id string) float64 {
	return l.cachedAverage(KindElectiveAverage, id, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return mean(l.byStudent[id], func(g *grade.Grade) bool {
			return g.Category == grade.SubjectElective
		})
	})
}

// SubjectAverage returns the mean over every student's grades in one subject.
func (l *Ledger) SubjectAverage(subject string) float64 {
	return l.cachedAverage(KindSubjectAverage, subject, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return mean(l.bySubject[subject], nil)
	})
}

// ClassAverage returns the mean over every grade in the ledger. Cached under
// the aggregate key, which every RecordGrade clears.
func (l *Ledger) ClassAverage() float64 {
	return l.cachedAverage(KindClassAverage, AggregateKey, func() float64 {
		l.mu.RLock()
		defer l.mu.RUnlock()
		return mean(l.byDate, nil)
	})
}

// GradesForStudent returns copies of the student's grades in ingestion order.
func (l *Ledger) GradesForStudent(id string) []*grade.Grade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.byStudent[id])
}

// GradesForSubject returns copies of the subject's grades in ingestion order.
func (l *Ledger) GradesForSubject(subject string) []*grade.Grade {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneAll(l.bySubject[subject])
}

// GradesInDateRange returns copies of the grades with calendar dates in
// [start, end], most recent first.
func (l *Ledger) GradesInDateRange(start, end time.Time) []*grade.Grade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*grade.Grade
	for _, g := range l.byDate {
		if g.Date.After(end) {
			continue
		}
		if g.Date.Before(start) {
			break
		}
		out = append(out, g.Clone())
	}
	return out
}

// History returns copies of the most recently recorded grades, newest first.
// A non-positive limit returns the full history.
func (l *Ledger) History(limit int) []*grade.Grade {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*grade.Grade, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.history[i].Clone())
	}
	return out
}

// Len returns the number of recorded grades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// cachedAverage reads through the statistic cache, computing and repopulating
// on miss. Misses are never errors.
func (l *Ledger) cachedAverage(kind, key string, compute func() float64) float64 {
	if v, ok := l.stats.Get(kind, key); ok {
		return v
	}
	v := compute()
	l.stats.Put(kind, key, v)
	return v
}

// insertByDate places the grade into the most-recent-date-first slice,
// keeping ingestion order among equal dates. Caller holds the write lock.
func (l *Ledger) insertByDate(g *grade.Grade) {
	idx := sort.Search(len(l.byDate), func(i int) bool {
		return l.byDate[i].Date.Before(g.Date)
	})
	l.byDate = append(l.byDate, nil)
	copy(l.byDate[idx+1:], l.byDate[idx:])
	l.byDate[idx] = g
}

// mean computes the arithmetic mean over the grades accepted by the filter,
// 0.0 when none match. Never divides by zero.
func mean(grades []*grade.Grade, accept func(*grade.Grade) bool) float64 {
	sum := 0.0
	count := 0
	for _, g := range grades {
		if accept != nil && !accept(g) {
			continue
		}
		sum += g.Score
		count++
	}
	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}

// cloneAll copies a grade slice element by element.
func cloneAll(grades []*grade.Grade) []*grade.Grade {
	out := make([]*grade.Grade, len(grades))
	for i, g := range grades {
		out[i] = g.Clone()
	}
	return out
}
