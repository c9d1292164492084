package distribution

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthhealth/datasynth/synth/models"
)

func TestNormalDeterminism(t *testing.T) {
	n, err := NewNormal(100, 15)
	require.NoError(t, err)

	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 100; i++ {
		assert.Equal(t, n.Sample(a), n.Sample(b))
	}
}

func TestNormalValidation(t *testing.T) {
	_, err := NewNormal(0, 0)
	assert.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))

	_, err = NewNormal(0, -3)
	assert.Error(t, err)
}

func TestClampedNormalStaysInBounds(t *testing.T) {
	n, err := NewClampedNormal(50, 30, 0, 100)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		v := n.Sample(rng)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestClampedNormalPathologicalBounds(t *testing.T) {
	// Bounds far outside the distribution's mass exercise the retry
	// exhaustion path; the result must still land inside the bounds.
	n, err := NewClampedNormal(0, 1, 500, 600)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	v := n.Sample(rng)
	assert.GreaterOrEqual(t, v, 500.0)
	assert.LessOrEqual(t, v, 600.0)

	_, err = NewClampedNormal(0, 1, 10, 5)
	assert.Error(t, err)
}

func TestLogNormalIsPositive(t *testing.T) {
	ln, err := NewLogNormal(0, 0.5)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		assert.Greater(t, ln.Sample(rng), 0.0)
	}

	_, err = NewLogNormal(0, 0)
	assert.Error(t, err)
}

func TestUniform(t *testing.T) {
	u, err := NewUniform(10, 20)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 500; i++ {
		v := u.Sample(rng)
		assert.GreaterOrEqual(t, v, 10.0)
		assert.Less(t, v, 20.0)
	}

	_, err = NewUniform(20, 10)
	assert.Error(t, err)
}

func TestConstant(t *testing.T) {
	c := NewConstant(3.14)
	assert.Equal(t, 3.14, c.Sample(nil))
	assert.Equal(t, "constant(3.14)", c.Describe())
}

func TestWeightedChoiceValidation(t *testing.T) {
	_, err := NewWeightedChoice(nil)
	assert.Error(t, err)

	_, err = NewWeightedChoice(map[string]float64{"a": -1})
	assert.Error(t, err)

	_, err = NewWeightedChoice(map[string]float64{"a": 0, "b": 0})
	assert.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
}

func TestWeightedChoiceDistribution(t *testing.T) {
	wc, err := NewWeightedChoice(map[string]float64{"common": 9, "rare": 1})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(11))
	counts := map[string]int{}
	const trials = 10000
	for i := 0; i < trials; i++ {
		counts[wc.Choose(rng)]++
	}

	// Expected 9000 with stddev 30; a 5-sigma band is ample.
	assert.InDelta(t, 9000, counts["common"], 150)
	assert.Equal(t, trials, counts["common"]+counts["rare"])
}

func TestWeightedChoiceSkipsZeroWeights(t *testing.T) {
	wc, err := NewWeightedChoice(map[string]float64{"never": 0, "always": 1})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		assert.Equal(t, "always", wc.Choose(rng))
	}
}

func TestCategorical(t *testing.T) {
	_, err := NewCategorical(nil)
	assert.Error(t, err)

	c, err := NewCategorical([]string{"AMB", "EMER", "IMP"})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[c.Choose(rng)] = true
	}
	assert.Len(t, seen, 3)
}

func TestBernoulli(t *testing.T) {
	rng := rand.New(rand.NewSource(13))

	assert.False(t, Bernoulli(rng, 0))
	assert.True(t, Bernoulli(rng, 1))

	hits := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if Bernoulli(rng, 0.6) {
			hits++
		}
	}
	// Binomial(10000, 0.6): stddev ~49, allow 5 sigma.
	assert.InDelta(t, 6000, hits, 250)
}

func TestDescribe(t *testing.T) {
	n, _ := NewClampedNormal(70, 10, 45, 95)
	assert.Contains(t, n.Describe(), "normal(mean=70, stddev=10)")
	assert.Contains(t, n.Describe(), "clamped to [45, 95]")

	ln, _ := NewLogNormal(1, 0.25)
	assert.Contains(t, ln.Describe(), "log-normal")

	wc, _ := NewWeightedChoice(map[string]float64{"a": 1, "b": 2})
	assert.Equal(t, "weighted-choice(a:1, b:2)", wc.Describe())
}

func TestLogNormalClamped(t *testing.T) {
	ln, err := NewClampedLogNormal(0, 2, 0.5, 2)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(21))
	for i := 0; i < 500; i++ {
		v := ln.Sample(rng)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.5)
		assert.LessOrEqual(t, v, 2.0)
	}
}
