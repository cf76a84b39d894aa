// Package rng provides the deterministic pseudo-random generator behind every
// resampling loop. The mix is pure 32-bit integer arithmetic (mulberry
// recurrence) so a seed yields a bit-identical draw sequence on any machine
// and in any language implementing the same algorithm; platform randomness is
// deliberately never consulted.
package rng

import (
	"fmt"

	"gopersist/domain/core"
	"gopersist/ports"
)

// streamOffset spaces sub-analysis seeds. Heuristic separation: offset
// streams are not provably independent, but indices keep them reproducible.
const streamOffset int64 = 1000

// Generator is a seeded mulberry-mix stream. It is exclusively owned by the
// caller that seeded it and must not be shared across goroutines.
type Generator struct {
	state uint32
	seed  int64
}

// New creates a generator from a seed. The low 32 bits of the seed become
// the initial state, matching the reference recurrence.
func New(seed int64) *Generator {
	return &Generator{state: uint32(seed), seed: seed}
}

// Seed returns the seed this stream was created with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// Next returns the next uniform draw in [0,1).
func (g *Generator) Next() float64 {
	g.state += 0x6D2B79F5
	z := g.state
	z = (z ^ (z >> 15)) * (z | 1)
	z ^= z + (z^(z>>7))*(z|61)
	z ^= z >> 14
	return float64(z) / 4294967296.0
}

// Intn returns a uniform integer in [0,n).
func (g *Generator) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn called with non-positive n")
	}
	return int(g.Next() * float64(n))
}

// Shuffle applies an in-place Fisher-Yates shuffle driven by this stream.
func (g *Generator) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := g.Intn(i + 1)
		swap(i, j)
	}
}

// Source derives deterministic sub-streams from a base seed by fixed offsets
// (seed, seed+1000, seed+2000, ...). Implements ports.RNGSource.
type Source struct {
	base int64
}

// NewSource creates a stream source for a base seed.
func NewSource(base int64) *Source {
	return &Source{base: base}
}

// Stream returns the stream for a stable sub-analysis index.
func (s *Source) Stream(index int) ports.RNG {
	return New(s.base + streamOffset*int64(index))
}

// ValidateSeed checks that the base stream reproduces an expected prefix of
// draws bit-for-bit.
func (s *Source) ValidateSeed(expected []float64) error {
	g := New(s.base)
	for i, want := range expected {
		got := g.Next()
		if got != want {
			return fmt.Errorf("%w: draw %d got %v want %v", core.ErrSeedMismatch, i, got, want)
		}
	}
	return nil
}
