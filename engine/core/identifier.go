package core

import (
	crand "crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/exp/rand"
)

// InvalidID marks an asset id that has not been assigned yet.
const InvalidID uint64 = 0

// IDGenerator hands out uniformly random 64-bit asset ids. It is safe for
// concurrent use by build tasks.
type IDGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIDGenerator returns a generator seeded from the operating system entropy source.
func NewIDGenerator() (*IDGenerator, error) {
	var seed [8]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, err
	}
	return NewSeededIDGenerator(binary.LittleEndian.Uint64(seed[:])), nil
}

// NewSeededIDGenerator returns a deterministic generator, mostly useful in tests.
func NewSeededIDGenerator(seed uint64) *IDGenerator {
	return &IDGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Next returns a fresh id. InvalidID is never returned.
func (g *IDGenerator) Next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	for {
		if id := g.rng.Uint64(); id != InvalidID {
			return id
		}
	}
}
