// Package directory implements the canonical student store and its derived
// indices: identifier map, email uniqueness set, category grouping, and the
// descending GPA ranking. All indices are updated as one logical transaction
// per mutating call, so concurrent readers see either the state before or
// after a write, never a partially applied one.
package directory

import (
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/gradehub/gradehub-core/internal/domain/shared"
	"github.com/gradehub/gradehub-core/internal/domain/student"
	"github.com/gradehub/gradehub-core/pkg/idgen"
)

// Config holds directory construction options.
type Config struct {
	// Capacity bounds the number of students; 0 means unbounded. Preserves
	// the legacy fixed-capacity behavior as an optional bound.
	Capacity int

	// Logger for mutation diagnostics.
	Logger *slog.Logger

	// Publisher receives domain events; nil disables publishing.
	Publisher shared.EventPublisher
}

// Directory is the canonical student store. The whole index set is protected
// as one unit per mutating call.
type Directory struct {
	cfg Config
	ids idgen.Generator

	mu         sync.RWMutex
	byID       map[string]*student.Student
	byEmail    map[string]string // lowercased email -> student ID
	byCategory map[student.Category][]string

	// GPA ranking: bucket per GPA value (values collide across many
	// students), insertion-ordered within a bucket; bucket keys kept
	// sorted descending.
	gpaBuckets map[float64][]string
	gpaKeys    []float64
}

// New creates a directory with an injected identifier generator.
func New(ids idgen.Generator, cfg Config) *Directory {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = shared.NopPublisher{}
	}

	return &Directory{
		cfg:        cfg,
		ids:        ids,
		byID:       make(map[string]*student.Student),
		byEmail:    make(map[string]string),
		byCategory: make(map[student.Category][]string),
		gpaBuckets: make(map[float64][]string),
	}
}

// AddStudent assigns an identifier and inserts the student into all four
// indices, starting in the GPA 0.0 bucket. Fails with ErrDuplicateEmail or,
// when a capacity is configured, ErrCapacityExceeded.
func (d *Directory) AddStudent(s *student.Student) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// The email index is keyed lowercased; normalize here too so hand-built
	// records cannot bypass the construction-time normalization.
	email := strings.ToLower(s.Email)
	if _, exists := d.byEmail[email]; exists {
		return "", shared.NewDomainError("directory", "AddStudent", shared.ErrDuplicateEmail, email)
	}
	if d.cfg.Capacity > 0 && len(d.byID) >= d.cfg.Capacity {
		return "", shared.NewDomainError("directory", "AddStudent", shared.ErrCapacityExceeded, "")
	}

	rec := s.Clone()
	rec.ID = d.ids.Next()
	rec.Email = email
	// Derived fields are owned by the recompute path; a fresh record always
	// enters the ranking at zero.
	rec.GPA = 0.0
	rec.Average = 0.0
	rec.HonorsEligible = false

	d.byID[rec.ID] = rec
	d.byEmail[rec.Email] = rec.ID
	d.byCategory[rec.Category] = append(d.byCategory[rec.Category], rec.ID)
	d.insertIntoBucket(rec.GPA, rec.ID)

	d.cfg.Logger.Debug("student added",
		"student_id", rec.ID,
		"category", rec.Category.String(),
	)
	d.cfg.Publisher.Publish(shared.NewEvent(shared.EventStudentRegistered, rec.ID, map[string]any{
		"email":    rec.Email,
		"category": rec.Category.String(),
	}))

	return rec.ID, nil
}

// FindByID returns a copy of the student, or ErrNotFound.
func (d *Directory) FindByID(id string) (*student.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byID[id]
	if !ok {
		return nil, shared.NewDomainError("directory", "FindByID", shared.ErrNotFound, id)
	}
	return s.Clone(), nil
}

// FindByEmail returns a copy of the student, or ErrNotFound.
func (d *Directory) FindByEmail(email string) (*student.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, shared.NewDomainError("directory", "FindByEmail", shared.ErrNotFound, email)
	}
	return d.byID[id].Clone(), nil
}

// Exists reports whether a student is registered.
func (d *Directory) Exists(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byID[id]
	return ok
}

// Len returns the number of registered students.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

// UpdateGPAAndAverage is the only path that mutates the derived fields. It
// moves the student between GPA buckets and recomputes honors eligibility in
// the same critical section, so eligibility and GPA are never observably out
// of sync.
func (d *Directory) UpdateGPAAndAverage(id string, average, gpa float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byID[id]
	if !ok {
		return shared.NewDomainError("directory", "UpdateGPAAndAverage", shared.ErrUnknownStudent, id)
	}

	d.removeFromBucket(s.GPA, id)
	s.ApplyDerived(average, gpa)
	d.insertIntoBucket(s.GPA, id)

	d.cfg.Publisher.Publish(shared.NewEvent(shared.EventGPAUpdated, id, map[string]any{
		"average": average,
		"gpa":     gpa,
	}))

	return nil
}

// TopPerformers walks the GPA ranking in descending order, flattening the
// per-bucket lists, and stops once n students are collected. Ties within a
// bucket keep insertion order.
func (d *Directory) TopPerformers(n int) []*student.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	out := make([]*student.Student, 0, n)
	for _, gpa := range d.gpaKeys {
		for _, id := range d.gpaBuckets[gpa] {
			out = append(out, d.byID[id].Clone())
			if len(out) == n {
				return out
			}
		}
	}
	return out
}

// StudentsByCategory returns copies of the students in a category, in
// insertion order.
func (d *Directory) StudentsByCategory(tag student.Category) []*student.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := d.byCategory[tag]
	out := make([]*student.Student, 0, len(ids))
	for _, id := range ids {
		out = append(out, d.byID[id].Clone())
	}
	return out
}

// AllStudents returns copies of every student, ordered by identifier.
func (d *Directory) AllStudents() []*student.Student {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*student.Student, 0, len(d.byID))
	for _, s := range d.byID {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// insertIntoBucket appends the id to its GPA bucket, registering the bucket
// key in the descending key slice when the bucket is new. Caller holds the
// write lock.
func (d *Directory) insertIntoBucket(gpa float64, id string) {
	if _, ok := d.gpaBuckets[gpa]; !ok {
		idx := sort.Search(len(d.gpaKeys), func(i int) bool {
			return d.gpaKeys[i] < gpa
		})
		d.gpaKeys = append(d.gpaKeys, 0)
		copy(d.gpaKeys[idx+1:], d.gpaKeys[idx:])
		d.gpaKeys[idx] = gpa
	}
	d.gpaBuckets[gpa] = append(d.gpaBuckets[gpa], id)
}

// removeFromBucket removes the id from its GPA bucket, dropping the bucket
// and its key when it empties. Caller holds the write lock.
func (d *Directory) removeFromBucket(gpa float64, id string) {
	bucket := d.gpaBuckets[gpa]
	for i, bid := range bucket {
		if bid == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}

	if len(bucket) == 0 {
		delete(d.gpaBuckets, gpa)
		for i, k := range d.gpaKeys {
			if k == gpa {
				d.gpaKeys = append(d.gpaKeys[:i], d.gpaKeys[i+1:]...)
				break
			}
		}
		return
	}
	d.gpaBuckets[gpa] = bucket
}
