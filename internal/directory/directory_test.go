package directory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradehub/gradehub-core/internal/domain/shared"
	"github.com/gradehub/gradehub-core/internal/domain/student"
	"github.com/gradehub/gradehub-core/pkg/idgen"
)

func newTestDirectory(t *testing.T, cfg Config) *Directory {
	t.Helper()
	return New(idgen.NewSequence("STU", 3), cfg)
}

func mustStudent(t *testing.T, name, email string, category student.Category) *student.Student {
	t.Helper()
	s, err := student.NewStudent(student.NewStudentParams{
		Name:     name,
		Age:      17,
		Email:    email,
		Category: category,
	})
	require.NoError(t, err)
	return s
}

func TestAddStudent_FindByIDRoundTrip(t *testing.T) {
	dir := newTestDirectory(t, Config{})
	s := mustStudent(t, "Aruzhan Bekova", "aruzhan@gradehub.dev", student.CategoryHonors)

	id, err := dir.AddStudent(s)
	require.NoError(t, err)
	assert.Equal(t, "STU001", id)

	got, err := dir.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Aruzhan Bekova", got.Name)
	assert.Equal(t, "aruzhan@gradehub.dev", got.Email)
	assert.Equal(t, student.CategoryHonors, got.Category)
	assert.Zero(t, got.GPA)
	assert.Zero(t, got.Average)

	byEmail, err := dir.FindByEmail("aruzhan@gradehub.dev")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
}

func TestAddStudent_DuplicateEmailLeavesSizeUnchanged(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	_, err := dir.AddStudent(mustStudent(t, "A", "same@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)
	sizeBefore := dir.Len()

	_, err = dir.AddStudent(mustStudent(t, "B", "same@gradehub.dev", student.CategoryRegular))
	assert.ErrorIs(t, err, shared.ErrDuplicateEmail)
	assert.Equal(t, sizeBefore, dir.Len())
}

func TestAddStudent_CapacityExceeded(t *testing.T) {
	dir := newTestDirectory(t, Config{Capacity: 2})

	_, err := dir.AddStudent(mustStudent(t, "A", "a@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)
	_, err = dir.AddStudent(mustStudent(t, "B", "b@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)

	_, err = dir.AddStudent(mustStudent(t, "C", "c@gradehub.dev", student.CategoryRegular))
	assert.ErrorIs(t, err, shared.ErrCapacityExceeded)
	assert.Equal(t, 2, dir.Len())
}

func TestFindByEmail_CaseInsensitive(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	// NewStudent lowercases the address; lookups with the original casing
	// must still resolve.
	_, err := dir.AddStudent(mustStudent(t, "A", "Aruzhan@Gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)

	got, err := dir.FindByEmail("Aruzhan@Gradehub.dev")
	require.NoError(t, err)
	assert.Equal(t, "aruzhan@gradehub.dev", got.Email)

	_, err = dir.FindByEmail("ARUZHAN@GRADEHUB.DEV")
	assert.NoError(t, err)

	// A hand-built record with mixed casing still collides with the
	// registered address.
	_, err = dir.AddStudent(&student.Student{
		Name: "B", Age: 17, Email: "ARUZHAN@gradehub.dev", Category: student.CategoryRegular,
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateEmail)
	assert.Equal(t, 1, dir.Len())
}

func TestFind_NotFound(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	_, err := dir.FindByID("STU999")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = dir.FindByEmail("ghost@gradehub.dev")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateGPAAndAverage_MovesRankingBucket(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	lowID, err := dir.AddStudent(mustStudent(t, "Low", "low@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)
	highID, err := dir.AddStudent(mustStudent(t, "High", "high@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)

	require.NoError(t, dir.UpdateGPAAndAverage(lowID, 72.0, 2.0))
	require.NoError(t, dir.UpdateGPAAndAverage(highID, 91.0, 4.0))

	top := dir.TopPerformers(2)
	require.Len(t, top, 2)
	assert.Equal(t, highID, top[0].ID)
	assert.Equal(t, lowID, top[1].ID)

	// Moving the low student above the high one re-sorts the ranking.
	require.NoError(t, dir.UpdateGPAAndAverage(lowID, 95.0, 4.0))
	require.NoError(t, dir.UpdateGPAAndAverage(highID, 80.0, 3.0))

	top = dir.TopPerformers(2)
	assert.Equal(t, lowID, top[0].ID)
	assert.Equal(t, highID, top[1].ID)

	assert.ErrorIs(t, dir.UpdateGPAAndAverage("STU999", 50, 0), shared.ErrUnknownStudent)
}

func TestUpdateGPAAndAverage_HonorsEligibilityAtomic(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	id, err := dir.AddStudent(mustStudent(t, "H", "h@gradehub.dev", student.CategoryHonors))
	require.NoError(t, err)

	require.NoError(t, dir.UpdateGPAAndAverage(id, 88.0, 3.0))
	got, err := dir.FindByID(id)
	require.NoError(t, err)
	assert.True(t, got.HonorsEligible)
	assert.Equal(t, 88.0, got.Average)

	require.NoError(t, dir.UpdateGPAAndAverage(id, 84.9, 3.0))
	got, err = dir.FindByID(id)
	require.NoError(t, err)
	assert.False(t, got.HonorsEligible)
}

func TestTopPerformers_OrderAndTieBreak(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := dir.AddStudent(mustStudent(t, fmt.Sprintf("S%d", i),
			fmt.Sprintf("s%d@gradehub.dev", i), student.CategoryRegular))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// Two students collide at GPA 3.0; insertion order breaks the tie.
	require.NoError(t, dir.UpdateGPAAndAverage(ids[0], 85, 3.0))
	require.NoError(t, dir.UpdateGPAAndAverage(ids[1], 95, 4.0))
	require.NoError(t, dir.UpdateGPAAndAverage(ids[2], 82, 3.0))
	require.NoError(t, dir.UpdateGPAAndAverage(ids[3], 65, 1.0))

	top := dir.TopPerformers(10)
	require.Len(t, top, 5)

	gpas := make([]float64, len(top))
	for i, s := range top {
		gpas[i] = s.GPA
	}
	assert.IsNonIncreasing(t, gpas)

	assert.Equal(t, ids[1], top[0].ID)
	assert.Equal(t, ids[0], top[1].ID, "tie at 3.0 keeps insertion order")
	assert.Equal(t, ids[2], top[2].ID)

	// n caps the walk.
	assert.Len(t, dir.TopPerformers(2), 2)
	assert.Empty(t, dir.TopPerformers(0))
}

func TestStudentsByCategory(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	_, err := dir.AddStudent(mustStudent(t, "R1", "r1@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)
	_, err = dir.AddStudent(mustStudent(t, "H1", "h1@gradehub.dev", student.CategoryHonors))
	require.NoError(t, err)
	_, err = dir.AddStudent(mustStudent(t, "R2", "r2@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)

	regulars := dir.StudentsByCategory(student.CategoryRegular)
	require.Len(t, regulars, 2)
	assert.Equal(t, "R1", regulars[0].Name)
	assert.Equal(t, "R2", regulars[1].Name)

	assert.Len(t, dir.StudentsByCategory(student.CategoryHonors), 1)
	assert.Len(t, dir.AllStudents(), 3)
}

func TestAccessorsReturnDefensiveCopies(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	id, err := dir.AddStudent(mustStudent(t, "Original", "o@gradehub.dev", student.CategoryRegular))
	require.NoError(t, err)

	got, err := dir.FindByID(id)
	require.NoError(t, err)
	got.Name = "mutated"
	got.GPA = 4.0

	again, err := dir.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
	assert.Zero(t, again.GPA)

	all := dir.AllStudents()
	all[0].Name = "mutated again"
	again, err = dir.FindByID(id)
	require.NoError(t, err)
	assert.Equal(t, "Original", again.Name)
}

func TestConcurrentWritesAndReads(t *testing.T) {
	dir := newTestDirectory(t, Config{})

	const writers = 8
	const perWriter = 20

	ids := make([][]string, writers)
	for w := range ids {
		ids[w] = make([]string, perWriter)
		for i := range ids[w] {
			id, err := dir.AddStudent(mustStudent(t, fmt.Sprintf("S%d-%d", w, i),
				fmt.Sprintf("s%d-%d@gradehub.dev", w, i), student.CategoryRegular))
			require.NoError(t, err)
			ids[w][i] = id
		}
	}

	stop := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < writers; r++ {
		readers.Add(1)
		go func(r int) {
			defer readers.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if _, err := dir.FindByID(ids[r][0]); err != nil {
					t.Errorf("FindByID: %v", err)
					return
				}
				top := dir.TopPerformers(5)
				for i := 1; i < len(top); i++ {
					if top[i].GPA > top[i-1].GPA {
						t.Errorf("ranking out of order: %v > %v", top[i].GPA, top[i-1].GPA)
						return
					}
				}
				dir.StudentsByCategory(student.CategoryRegular)
				dir.Len()
			}
		}(r)
	}

	var writerWG sync.WaitGroup
	for w := 0; w < writers; w++ {
		writerWG.Add(1)
		go func(w int) {
			defer writerWG.Done()
			for i := 0; i < perWriter; i++ {
				avg := float64(60 + (w*perWriter+i)%40)
				if err := dir.UpdateGPAAndAverage(ids[w][i], avg, float64(i%5)); err != nil {
					t.Errorf("UpdateGPAAndAverage: %v", err)
					return
				}
			}
		}(w)
	}
	writerWG.Wait()
	close(stop)
	readers.Wait()

	// Every index settled: all students present, ranking covers them all.
	assert.Equal(t, writers*perWriter, dir.Len())
	assert.Len(t, dir.TopPerformers(writers*perWriter), writers*perWriter)
	for w := range ids {
		for _, id := range ids[w] {
			got, err := dir.FindByID(id)
			require.NoError(t, err)
			assert.Positive(t, got.Average)
		}
	}
}
