package jobs

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// IDSource issues lexically sortable job ids.
type IDSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewIDSource creates a monotonic ULID source.
func NewIDSource() *IDSource {
	return &IDSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a new id. Ids issued within the same millisecond still sort
// in issue order.
func (s *IDSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Now(), s.entropy).String()
}

// Valid reports whether id has the shape of an issued id.
func Valid(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
