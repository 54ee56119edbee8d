// Package randutil centralises how seeded random sources are constructed so
// that every call site gets reproducible sequences from a single int64 seed.
package randutil

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed, deriving the
// two 64-bit PCG seeds via a splitmix-style finalizer.
func New(seed int64) *mrand.Rand {
	u := uint64(seed)
	return mrand.New(mrand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// NewEntropy returns a *rand.Rand seeded from the operating system's
// entropy source. Used when no explicit seed is configured.
func NewEntropy() *mrand.Rand {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to the
		// package-level source rather than panic.
		return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
	}
	return New(int64(binary.LittleEndian.Uint64(buf[:])))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
