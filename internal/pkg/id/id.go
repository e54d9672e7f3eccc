package id

import (
	"strconv"

	"github.com/google/uuid"
)

// Generator produces unique identifiers for new entities. Injected into
// whichever component creates passes and transactions, so tests can pin
// IDs and no process-wide counter is ever shared.
type Generator interface {
	NewID() string
}

type uuidGenerator struct{}

// NewUUIDGenerator returns a collision-resistant generator backed by
// random UUIDs.
func NewUUIDGenerator() Generator {
	return uuidGenerator{}
}

func (uuidGenerator) NewID() string {
	return uuid.NewString()
}

// Sequence is a deterministic generator for tests: prefix-1, prefix-2, ...
// Not safe for concurrent use.
type Sequence struct {
	Prefix string
	n      int
}

func (s *Sequence) NewID() string {
	s.n++
	return s.Prefix + "-" + strconv.Itoa(s.n)
}
