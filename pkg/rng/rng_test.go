package rng

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestStreamIsReproducible(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
		assert.Equal(t, a.IntN(13), b.IntN(13))
		assert.Equal(t, a.Normal(0, 1), b.Normal(0, 1))
		assert.Equal(t, a.Bernoulli(0.3), b.Bernoulli(0.3))
		assert.Equal(t, a.Seed(), b.Seed())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a, b := New(1), New(2)
	same := 0
	for i := 0; i < 32; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 32)
}

func TestFloat64Range(t *testing.T) {
	s := New(3)
	for i := 0; i < 10000; i++ {
		v := s.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestIntNRange(t *testing.T) {
	s := New(4)
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := s.IntN(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
		seen[v] = true
	}
	assert.Len(t, seen, 5)
}

func TestBernoulliExtremes(t *testing.T) {
	s := New(5)
	for i := 0; i < 1000; i++ {
		assert.False(t, s.Bernoulli(0))
		assert.True(t, s.Bernoulli(1))
	}
}

func TestBernoulliRate(t *testing.T) {
	s := New(6)
	hits := 0
	n := 20000
	for i := 0; i < n; i++ {
		if s.Bernoulli(0.25) {
			hits++
		}
	}
	assert.InDelta(t, 0.25, float64(hits)/float64(n), 0.02)
}

func TestNormalZeroStddev(t *testing.T) {
	s := New(8)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0.4, s.Normal(0.4, 0))
	}
}

func TestNormalMoments(t *testing.T) {
	s := New(9)
	n := 20000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		v := s.Normal(2, 0.5)
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	assert.InDelta(t, 2.0, mean, 0.02)
	assert.InDelta(t, 0.25, variance, 0.02)
}

func TestChildStreamsAreReproducible(t *testing.T) {
	a, b := New(10).Child(), New(10).Child()
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestDrawsFollowGonumDistributions(t *testing.T) {
	s := New(11)
	src := rand.NewPCG(11, 11^0x9e3779b97f4a7c15)
	for i := 0; i < 200; i++ {
		assert.Equal(t, distuv.Uniform{Min: 0, Max: 1, Src: src}.Rand(), s.Float64())
		assert.Equal(t, distuv.Bernoulli{P: 0.4, Src: src}.Rand() == 1, s.Bernoulli(0.4))
		assert.Equal(t, distuv.Normal{Mu: 1, Sigma: 0.3, Src: src}.Rand(), s.Normal(1, 0.3))
	}
}

func TestDrawsDoNotAllocate(t *testing.T) {
	s := New(12)
	allocs := testing.AllocsPerRun(1000, func() {
		s.Bernoulli(0.1)
		s.Normal(0, 0.01)
	})
	assert.Zero(t, allocs)
}
