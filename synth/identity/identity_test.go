package identity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synthhealth/datasynth/synth/models"
)

var asOf = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateDeterminism(t *testing.T) {
	c := Constraints{AgeRange: models.AgeRange{Min: 45, Max: 75}, SexRatio: 0.5, AsOf: asOf}

	a, err := NewGenerator().Generate(c, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	b, err := NewGenerator().Generate(c, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerateRespectsAgeRange(t *testing.T) {
	g := NewGenerator()
	c := Constraints{AgeRange: models.AgeRange{Min: 45, Max: 75}, SexRatio: 0.5, AsOf: asOf}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p, err := g.Generate(c, rng)
		require.NoError(t, err)
		age := p.Age(asOf)
		assert.GreaterOrEqual(t, age, 45)
		assert.LessOrEqual(t, age, 75)
	}
}

func TestGenerateMinOnlyAgeRange(t *testing.T) {
	g := NewGenerator()
	c := Constraints{AgeRange: models.AgeRange{Min: 65}, SexRatio: 0.5, AsOf: asOf}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p, err := g.Generate(c, rng)
		require.NoError(t, err)
		age := p.Age(asOf)
		assert.GreaterOrEqual(t, age, 65)
		assert.LessOrEqual(t, age, 90)
	}
}

func TestGenerateMinAboveDefaultMax(t *testing.T) {
	g := NewGenerator()
	c := Constraints{AgeRange: models.AgeRange{Min: 95}, SexRatio: 0.5, AsOf: asOf}
	rng := rand.New(rand.NewSource(9))

	p, err := g.Generate(c, rng)
	require.NoError(t, err)
	assert.Equal(t, 95, p.Age(asOf))
}

func TestGenerateSexRatioExtremes(t *testing.T) {
	g := NewGenerator()
	rng := rand.New(rand.NewSource(3))

	allFemale := Constraints{SexRatio: 1, AsOf: asOf}
	for i := 0; i < 50; i++ {
		p, err := g.Generate(allFemale, rng)
		require.NoError(t, err)
		assert.Equal(t, models.SexFemale, p.Sex)
	}

	allMale := Constraints{SexRatio: 0, AsOf: asOf}
	for i := 0; i < 50; i++ {
		p, err := g.Generate(allMale, rng)
		require.NoError(t, err)
		assert.Equal(t, models.SexMale, p.Sex)
	}
}

func TestGenerateKeyFormatAndSessionUniqueness(t *testing.T) {
	g := NewGenerator()
	rng := rand.New(rand.NewSource(11))
	seen := map[string]bool{}

	for i := 0; i < 1000; i++ {
		p, err := g.Generate(Constraints{SexRatio: 0.5, AsOf: asOf}, rng)
		require.NoError(t, err)
		assert.Regexp(t, `^\d{3}-\d{2}-\d{4}$`, p.Key)
		assert.False(t, seen[p.Key], "duplicate key %s in session", p.Key)
		seen[p.Key] = true
	}
}

func TestGenerateContradictoryConstraints(t *testing.T) {
	g := NewGenerator()
	rng := rand.New(rand.NewSource(1))

	_, err := g.Generate(Constraints{AgeRange: models.AgeRange{Min: 70, Max: 40}, AsOf: asOf}, rng)
	assert.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))

	_, err = g.Generate(Constraints{SexRatio: 2, AsOf: asOf}, rng)
	assert.Error(t, err)
}

func TestGenerateStateConstraint(t *testing.T) {
	g := NewGenerator()
	rng := rand.New(rand.NewSource(5))

	p, err := g.Generate(Constraints{State: "MD", SexRatio: 0.5, AsOf: asOf}, rng)
	require.NoError(t, err)
	assert.Equal(t, "MD", p.Address.State)
	assert.NotEmpty(t, p.GivenName)
	assert.NotEmpty(t, p.FamilyName)
	assert.NotEmpty(t, p.Language)
}
