// Package grade contains the canonical grade record and the GPA conversion
// scale. Score validation happens at construction; an invalid score is
// rejected, never stored.
package grade

import (
	"fmt"
	"strings"
	"time"

	"github.com/gradehub/gradehub-core/internal/domain/shared"
)

// SubjectCategory splits subjects into core curriculum and electives.
type SubjectCategory string

const (
	// SubjectCore marks a core-curriculum subject.
	SubjectCore SubjectCategory = "core"
	// SubjectElective marks an elective subject.
	SubjectElective SubjectCategory = "elective"
)

// IsValid reports whether the subject category is known.
func (c SubjectCategory) IsValid() bool {
	return c == SubjectCore || c == SubjectElective
}

// String returns the category tag.
func (c SubjectCategory) String() string {
	return string(c)
}

// Grade is the canonical grade record.
type Grade struct {
	// ID is the process-unique identifier assigned by the ledger.
	ID string

	// StudentID references an existing student.
	StudentID string

	// Subject is the subject name.
	Subject string

	// Category splits core and elective subjects.
	Category SubjectCategory

	// Score in [0,100].
	Score float64

	// Date is the calendar date of the grade. It may be coarser than
	// RecordedAt and drives the date-range queries.
	Date time.Time

	// RecordedAt is the creation timestamp, used for recency ordering.
	RecordedAt time.Time
}

// NewGradeParams contains the caller-supplied fields for a new grade.
type NewGradeParams struct {
	StudentID string
	Subject   string
	Category  SubjectCategory
	Score     float64
	Date      time.Time
}

// NewGrade validates the parameters and builds a record. A score outside
// [0,100] is rejected with shared.ErrInvalidScore.
func NewGrade(params NewGradeParams) (*Grade, error) {
	if params.StudentID == "" {
		return nil, shared.ErrUnknownStudent
	}

	subject := strings.TrimSpace(params.Subject)
	if subject == "" {
		return nil, shared.ErrInvalidSubject
	}

	category := params.Category
	if category == "" {
		category = SubjectCore
	}
	if !category.IsValid() {
		return nil, shared.ErrInvalidSubject
	}

	if params.Score < 0.0 || params.Score > 100.0 {
		return nil, shared.ErrInvalidScore
	}

	now := time.Now().UTC()
	date := params.Date
	if date.IsZero() {
		date = now
	}

	return &Grade{
		StudentID:  params.StudentID,
		Subject:    subject,
		Category:   category,
		Score:      params.Score,
		Date:       date,
		RecordedAt: now,
	}, nil
}

// String returns a compact representation for logging.
func (g *Grade) String() string {
	return fmt.Sprintf("Grade{ID: %s, Student: %s, Subject: %s, Score: %.1f}",
		g.ID, g.StudentID, g.Subject, g.Score)
}

// Clone creates a copy of the grade.
func (g *Grade) Clone() *Grade {
	if g == nil {
		return nil
	}
	clone := *g
	return &clone
}
