package randutil

import (
	crand "crypto/rand"
	rand "math/rand/v2"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
// Tests and the simulator use it so that shuffles and bot choices replay.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewSecure returns a *rand.Rand backed by ChaCha8 keyed from crypto/rand.
// Live tables shuffle with it.
func NewSecure() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("randutil: read crypto seed: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// Factory builds a fresh generator per transition.
type Factory func() *rand.Rand

// Seeded returns a Factory whose generators are derived from seed and a
// counter, so a sequence of transitions is reproducible.
func Seeded(seed int64) Factory {
	var n int64
	return func() *rand.Rand {
		n++
		return New(seed + n*int64(goldenRatio64>>1))
	}
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
