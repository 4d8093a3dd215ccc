package simulator

import (
	"math/rand/v2"
	"sync"
)

// RandFunc returns a uniform sample in [0, 1). Implementations must be safe for
// concurrent use.
type RandFunc func() float64

// DefaultRand draws from the runtime's shared generator.
func DefaultRand() RandFunc {
	return rand.Float64
}

// NewSeededRand returns a reproducible generator guarded by a mutex.
func NewSeededRand(seed uint64) RandFunc {
	var mu sync.Mutex
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return func() float64 {
		mu.Lock()
		defer mu.Unlock()
		return r.Float64()
	}
}

// uniform maps a [0,1) sample onto [lo, hi).
func uniform(rng RandFunc, lo, hi float64) float64 {
	return lo + (hi-lo)*rng()
}
