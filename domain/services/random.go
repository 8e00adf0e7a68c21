package services

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Randomizer is the single source of randomness for match setup
type Randomizer interface {
	// IntN returns a uniform integer in [0, n). Panics if n <= 0.
	IntN(n int) int
	// Shuffle permutes n elements uniformly
	Shuffle(n int, swap func(i, j int))
}

// LockedRandom is a Randomizer safe for concurrent use
type LockedRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomizer creates a time-seeded Randomizer
func NewRandomizer() *LockedRandom {
	return NewSeededRandomizer(uint64(time.Now().UnixNano()))
}

// NewSeededRandomizer creates a deterministic Randomizer
func NewSeededRandomizer(seed uint64) *LockedRandom {
	return &LockedRandom{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *LockedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(n)
}

func (r *LockedRandom) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}

// pickOne returns a uniformly chosen element of values
func pickOne[T any](rng Randomizer, values []T) T {
	return values[rng.IntN(len(values))]
}
