package economy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand/v2"
)

// Rand is the uniform random source behind job selection, currency selection
// and card draws. It must not be seedable or replayable by clients; tests
// inject deterministic implementations.
type Rand interface {
	// IntN returns a uniform integer in [0, n). Panics if n <= 0.
	IntN(n int) int
}

type sourceRand struct {
	rng *mathrand.Rand
}

// NewRand returns the default source, a ChaCha8 generator keyed from
// crypto/rand at construction time.
func NewRand() Rand {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// Fall back to the process-global generator, which is itself
		// unpredictably seeded on modern Go runtimes.
		return globalRand{}
	}
	return &sourceRand{rng: mathrand.New(mathrand.NewChaCha8(seed))}
}

func (r *sourceRand) IntN(n int) int {
	return r.rng.IntN(n)
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return mathrand.IntN(n)
}

// IntBetween returns a uniform integer in [low, high] inclusive.
func IntBetween(r Rand, low, high int64) int64 {
	if high <= low {
		return low
	}
	return low + int64(r.IntN(int(high-low+1)))
}

// Pick returns a uniform choice from items. Callers guarantee len(items) > 0.
func Pick[T any](r Rand, items []T) T {
	return items[r.IntN(len(items))]
}

// cryptoUint64 is kept for code generation, which never goes through Rand.
func cryptoUint64() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return mathrand.Uint64()
	}
	return binary.BigEndian.Uint64(b[:])
}
