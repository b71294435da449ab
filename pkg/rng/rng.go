package rng

import "math/rand/v2"

// Source is the random source threaded through the evolution core
type Source interface {
	// Float64 draws uniformly from [0, 1)
	Float64() float64
	// IntN draws uniformly from [0, n)
	IntN(n int) int
	// Bernoulli returns true with probability p
	Bernoulli(p float64) bool
	// Normal draws from Normal(mean, stddev)
	Normal(mean, stddev float64) float64
	// Seed draws a seed for an independent child stream
	Seed() uint64
}

// Stream is a seeded, reproducible Source. It is not safe for concurrent
// use; give every goroutine its own Stream via Child.
type Stream struct {
	rand *rand.Rand
}

// New creates a stream whose draws are fully determined by seed
func New(seed uint64) *Stream {
	return &Stream{
		rand: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Float64 draws uniformly from [0, 1)
func (s *Stream) Float64() float64 {
	return s.rand.Float64()
}

// IntN draws uniformly from [0, n). It panics if n <= 0.
func (s *Stream) IntN(n int) int {
	return s.rand.IntN(n)
}

// Bernoulli returns true with probability p
func (s *Stream) Bernoulli(p float64) bool {
	return s.rand.Float64() < p
}

// Normal draws from Normal(mean, stddev); stddev 0 always returns mean
func (s *Stream) Normal(mean, stddev float64) float64 {
	return s.rand.NormFloat64()*stddev + mean
}

// Seed draws a seed for an independent child stream
func (s *Stream) Seed() uint64 {
	return s.rand.Uint64()
}

// Child derives an independent stream from the next seed of s
func (s *Stream) Child() *Stream {
	return New(s.Seed())
}
