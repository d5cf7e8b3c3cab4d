// Package idgen provides injectable identifier generators. Each store owns
// its own generator instance; there are no process-global counters, so
// independent store instances can coexist in tests.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces process-unique identifiers.
type Generator interface {
	// Next returns a new identifier. Safe for concurrent use.
	Next() string
}

// Sequence generates monotonically increasing identifiers with a fixed prefix
// and zero-padded counter, e.g. STU001, STU002.
type Sequence struct {
	prefix  string
	width   int
	counter atomic.Uint64
}

// NewSequence creates a sequence generator. Width is the minimum digit count;
// the counter keeps growing past it without truncation.
func NewSequence(prefix string, width int) *Sequence {
	if width <= 0 {
		width = 3
	}
	return &Sequence{prefix: prefix, width: width}
}

// Next returns the next identifier in the sequence.
func (s *Sequence) Next() string {
	n := s.counter.Add(1)
	return fmt.Sprintf("%s%0*d", s.prefix, s.width, n)
}

// UUID generates random UUIDv4 identifiers, for callers that need uniqueness
// beyond a single process.
type UUID struct{}

// NewUUID creates a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Next returns a new UUID string.
func (u *UUID) Next() string {
	return uuid.New().String()
}
