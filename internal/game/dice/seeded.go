package dice

import "math/rand"

// seededSource is a deterministic Source for replays and simulations.
type seededSource struct {
	rng *rand.Rand
}

// NewSeededSource returns a deterministic Source. A zero seed is replaced by 1
// so that an unset configuration value still yields a usable generator.
//
// Postcondition: Two sources built from the same seed produce identical sequences.
func NewSeededSource(seed int64) Source {
	if seed == 0 {
		seed = 1
	}
	return &seededSource{rng: rand.New(rand.NewSource(seed))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.Intn(n)
}

// Float64 returns a pseudo-random float in [0, 1).
func (s *seededSource) Float64() float64 {
	return s.rng.Float64()
}

// Shuffle permutes n elements in place using src, calling swap for each exchange.
// It is the Fisher-Yates shuffle driven by an arbitrary Source.
//
// Precondition: n >= 0; swap must not be nil.
func Shuffle(src Source, n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		swap(i, j)
	}
}
