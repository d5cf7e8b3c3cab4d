package grade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradehub-core/internal/domain/shared"
)

func TestNewGrade_Valid(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	g, err := NewGrade(NewGradeParams{
		StudentID: "STU001",
		Subject:   " Mathematics ",
		Category:  SubjectCore,
		Score:     92.5,
		Date:      date,
	})
	require.NoError(t, err)

	assert.Equal(t, "STU001", g.StudentID)
	assert.Equal(t, "Mathematics", g.Subject)
	assert.Equal(t, SubjectCore, g.Category)
	assert.Equal(t, 92.5, g.Score)
	assert.Equal(t, date, g.Date)
	assert.False(t, g.RecordedAt.IsZero())
}

func TestNewGrade_Defaults(t *testing.T) {
	g, err := NewGrade(NewGradeParams{
		StudentID: "STU001",
		Subject:   "History",
		Score:     70,
	})
	require.NoError(t, err)

	// Category defaults to core, date to the recording time.
	assert.Equal(t, SubjectCore, g.Category)
	assert.False(t, g.Date.IsZero())
}

func TestNewGrade_InvalidScoreRejected(t *testing.T) {
	for _, score := range []float64{-0.1, 100.1, 250} {
		_, err := NewGrade(NewGradeParams{
			StudentID: "STU001",
			Subject:   "Physics",
			Score:     score,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidScore, "score %v", score)
	}

	// Boundary scores are valid.
	for _, score := range []float64{0, 100} {
		_, err := NewGrade(NewGradeParams{
			StudentID: "STU001",
			Subject:   "Physics",
			Score:     score,
		})
		assert.NoError(t, err, "score %v", score)
	}
}

func TestNewGrade_Validation(t *testing.T) {
	_, err := NewGrade(NewGradeParams{Subject: "Physics", Score: 50})
	assert.ErrorIs(t, err, shared.ErrUnknownStudent)

	_, err = NewGrade(NewGradeParams{StudentID: "STU001", Subject: "  ", Score: 50})
	assert.ErrorIs(t, err, shared.ErrInvalidSubject)

	_, err = NewGrade(NewGradeParams{
		StudentID: "STU001", Subject: "Physics", Category: SubjectCategory("club"), Score: 50,
	})
	assert.ErrorIs(t, err, shared.ErrInvalidSubject)
}

func TestGradeClone(t *testing.T) {
	g, err := NewGrade(NewGradeParams{StudentID: "STU001", Subject: "Art", Score: 88})
	require.NoError(t, err)

	clone := g.Clone()
	clone.Score = 10
	assert.Equal(t, 88.0, g.Score)
}
