// Package student contains the canonical student record and its category
// variants. This is core business logic with no external dependencies.
package student

import (
	"fmt"
	"strings"
	"time"

	"github.com/gradehub/gradehub-core/internal/domain/shared"
)

// Category tags a student with its program variant. Category-specific behavior
// (passing threshold, honors support) is dispatched through a table rather
// than subclassing, so new categories only need a new profile entry.
type Category string

const (
	// CategoryRegular is the default program.
	CategoryRegular Category = "regular"
	// CategoryHonors is the honors program, with a higher passing bar and an
	// honors-eligibility flag derived from the computed average.
	CategoryHonors Category = "honors"
)

// categoryProfile holds the per-category behavior table.
type categoryProfile struct {
	passingGrade  float64
	supportsHonor bool
}

var categoryProfiles = map[Category]categoryProfile{
	CategoryRegular: {passingGrade: 60.0, supportsHonor: false},
	CategoryHonors:  {passingGrade: 70.0, supportsHonor: true},
}

// IsValid reports whether the category is known.
func (c Category) IsValid() bool {
	_, ok := categoryProfiles[c]
	return ok
}

// PassingGrade returns the minimum passing score for the category.
func (c Category) PassingGrade() float64 {
	return categoryProfiles[c].passingGrade
}

// SupportsHonors reports whether honors eligibility is meaningful for the
// category.
func (c Category) SupportsHonors() bool {
	return categoryProfiles[c].supportsHonor
}

// String returns the category tag.
func (c Category) String() string {
	return string(c)
}

// HonorsAverageThreshold is the computed average at or above which an
// honors-category student is eligible for honors.
const HonorsAverageThreshold = 85.0

// Student is the canonical student record. GPA, Average and HonorsEligible are
// derived fields: they are never set by external callers, only through the
// directory's recompute path.
type Student struct {
	// ID is the process-unique identifier assigned by the directory.
	ID string

	// Name is the student's display name.
	Name string

	// Age in whole years.
	Age int

	// Email is globally unique across the directory.
	Email string

	// Phone is an optional contact number.
	Phone string

	// EnrolledAt is the enrollment date.
	EnrolledAt time.Time

	// Category selects the program variant.
	Category Category

	// GPA on the 0.0-4.0 scale, derived from Average.
	GPA float64

	// Average is the computed overall grade average, 0-100.
	Average float64

	// HonorsEligible is meaningful only when Category.SupportsHonors().
	// It is recomputed together with GPA so the two are never observably
	// out of sync.
	HonorsEligible bool

	// CreatedAt is the record creation time.
	CreatedAt time.Time

	// UpdatedAt is the last mutation time.
	UpdatedAt time.Time
}

// NewStudentParams contains the caller-supplied fields for a new student.
// The identifier is assigned by the directory, not the caller.
type NewStudentParams struct {
	Name       string
	Age        int
	Email      string
	Phone      string
	EnrolledAt time.Time
	Category   Category
}

// NewStudent validates the parameters and builds a record with derived fields
// zeroed. Validation failures are returned as shared construction errors.
func NewStudent(params NewStudentParams) (*Student, error) {
	name := strings.TrimSpace(params.Name)
	if len(name) == 0 || len(name) > 100 {
		return nil, shared.ErrInvalidName
	}

	if params.Age < 5 || params.Age > 120 {
		return nil, shared.ErrInvalidAge
	}

	email := strings.ToLower(strings.TrimSpace(params.Email))
	if !isPlausibleEmail(email) {
		return nil, shared.ErrInvalidEmail
	}

	if !params.Category.IsValid() {
		return nil, shared.ErrInvalidCategory
	}

	now := time.Now().UTC()
	enrolled := params.EnrolledAt
	if enrolled.IsZero() {
		enrolled = now
	}

	return &Student{
		Name:           name,
		Age:            params.Age,
		Email:          email,
		Phone:          strings.TrimSpace(params.Phone),
		EnrolledAt:     enrolled,
		Category:       params.Category,
		GPA:            0.0,
		Average:        0.0,
		HonorsEligible: false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// isPlausibleEmail applies the same minimal shape check the import surface
// uses: one '@' with a dotted domain. Full RFC validation is out of scope.
func isPlausibleEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '@') >= 0 {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// IsPassing reports whether the computed average clears the category's
// passing bar.
func (s *Student) IsPassing() bool {
	return s.Average >= s.Category.PassingGrade()
}

// ApplyDerived sets the derived fields as one unit. Only the directory's
// recompute path may call this.
func (s *Student) ApplyDerived(average, gpa float64) {
	s.Average = average
	s.GPA = gpa
	s.HonorsEligible = s.Category.SupportsHonors() && average >= HonorsAverageThreshold
	s.UpdatedAt = time.Now().UTC()
}

// String returns a compact representation for logging.
func (s *Student) String() string {
	return fmt.Sprintf("Student{ID: %s, Name: %s, Category: %s, GPA: %.2f}",
		s.ID, s.Name, s.Category, s.GPA)
}

// Clone creates a copy of the student. Accessors return clones so callers
// cannot mutate index contents through a returned reference.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
