package ports

// RNG is a deterministic uniform generator. The same seed must produce a
// bit-identical draw sequence across machines and across languages that
// implement the same integer mix, which is why implementations must not
// delegate to platform randomness.
type RNG interface {
	// Next returns the next uniform draw in [0,1)
	Next() float64

	// Intn returns a uniform integer in [0,n); n must be positive
	Intn(n int) int

	// Shuffle applies an in-place Fisher-Yates shuffle driven by this stream
	Shuffle(n int, swap func(i, j int))

	// Seed returns the seed this stream was created with
	Seed() int64
}

// RNGSource derives independent deterministic streams for concurrent
// sub-analyses. Stream separation is heuristic (fixed seed offsets), not a
// cryptographic guarantee; callers that need reproducibility must address
// streams by stable indices, never by scheduling order.
type RNGSource interface {
	// Stream returns the deterministic stream for a stable sub-analysis index
	Stream(index int) RNG

	// ValidateSeed checks the base seed reproduces an expected draw prefix
	ValidateSeed(expected []float64) error
}
