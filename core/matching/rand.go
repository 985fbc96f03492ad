package matching

import (
	"math/rand/v2"
	"time"
)

// RandSource is the only source of nondeterminism of a run. *rand.Rand
// satisfies it.
type RandSource interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRandSource returns a PCG source for seed. A zero seed uses the clock.
func NewRandSource(seed uint64) RandSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
