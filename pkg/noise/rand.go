package noise

import "math/rand"

// NewRand returns a PRNG owned by a single generation run.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// RandomSeed draws a fresh non-deterministic seed from the process-wide
// source, which the runtime seeds at startup.
func RandomSeed() int64 {
	return rand.Int63()
}
