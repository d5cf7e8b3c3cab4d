package idgen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceFormat(t *testing.T) {
	gen := NewSequence("STU", 3)

	assert.Equal(t, "STU001", gen.Next())
	assert.Equal(t, "STU002", gen.Next())

	grades := NewSequence("GRD", 3)
	assert.Equal(t, "GRD001", grades.Next())
}

func TestSequenceGrowsPastWidth(t *testing.T) {
	gen := NewSequence("X", 2)
	for i := 0; i < 99; i++ {
		gen.Next()
	}
	assert.Equal(t, "X100", gen.Next())
}

func TestSequenceInstancesAreIndependent(t *testing.T) {
	a := NewSequence("STU", 3)
	b := NewSequence("STU", 3)

	a.Next()
	a.Next()
	assert.Equal(t, "STU001", b.Next())
}

func TestSequenceConcurrentUniqueness(t *testing.T) {
	gen := NewSequence("STU", 3)

	const workers = 8
	const perWorker = 100

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := gen.Next()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestUUIDGenerator(t *testing.T) {
	gen := NewUUID()

	first := gen.Next()
	second := gen.Next()
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)
}
