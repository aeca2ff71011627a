// Package dice provides the randomness abstraction shared by the decision and
// combat engines: a swappable Source, percentile checks, and a small
// dice-expression language for damage variance.
package dice

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"
)

// Source is the randomness provider for all engine draws.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// cryptoSource implements Source using crypto/rand.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand. Draws are uniformly
// distributed and safe for concurrent use.
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// pcgSource implements Source with a seeded PCG generator. It is fast and
// reproducible for a fixed seed, which the batch harness relies on. Unlike the
// crypto source it is NOT safe for concurrent use; resolution is
// single-threaded by contract, so no draw ever races another.
type pcgSource struct {
	rng *mathrand.Rand
}

// NewPCGSource returns a seeded pseudo-random Source.
func NewPCGSource(seed uint64) Source {
	return &pcgSource{rng: mathrand.New(mathrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
func (p *pcgSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return p.rng.IntN(n)
}
