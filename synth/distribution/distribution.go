// Package distribution holds the parameterized, seed-reproducible samplers
// the entity generators draw from. Every sampler consumes only the *rand.Rand
// handed to it; there is no package-level random state.
package distribution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
)

// Sampler produces numeric values. Implementations are immutable once
// constructed and safe for concurrent use with caller-owned rng state.
type Sampler interface {
	Sample(rng *rand.Rand) float64
	Describe() string
}

// Chooser produces categorical values.
type Chooser interface {
	Choose(rng *rand.Rand) string
	Describe() string
}

// Bernoulli flips a biased coin. Probabilities outside [0,1] saturate.
func Bernoulli(rng *rand.Rand, p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return rng.Float64() < p
}

type clamp struct {
	min, max float64
	retries  int
}

// sample draws from draw, resampling up to the bounded retry count when the
// value falls outside [min,max], then falls back to a hard clamp. The fall
// back keeps pathological parameters from looping forever.
func (c *clamp) sample(rng *rand.Rand, draw func(*rand.Rand) float64) float64 {
	v := draw(rng)
	if c == nil {
		return v
	}
	for i := 0; i < c.retries && (v < c.min || v > c.max); i++ {
		v = draw(rng)
	}
	return math.Min(math.Max(v, c.min), c.max)
}

func newClamp(min, max float64) (*clamp, error) {
	if min > max {
		return nil, models.NewConfigurationError("clamp min %f exceeds max %f", min, max)
	}
	return &clamp{min: min, max: max, retries: constants.DefaultResampleRetries}, nil
}

// Normal samples from N(mean, stddev).
type Normal struct {
	Mean   float64
	StdDev float64
	clamp  *clamp
}

func NewNormal(mean, stddev float64) (*Normal, error) {
	if stddev <= 0 {
		return nil, models.NewConfigurationError("normal stddev must be positive, got %f", stddev)
	}
	return &Normal{Mean: mean, StdDev: stddev}, nil
}

// NewClampedNormal bounds samples to [min,max] with bounded resampling.
func NewClampedNormal(mean, stddev, min, max float64) (*Normal, error) {
	n, err := NewNormal(mean, stddev)
	if err != nil {
		return nil, err
	}
	if n.clamp, err = newClamp(min, max); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Normal) Sample(rng *rand.Rand) float64 {
	return n.clamp.sample(rng, func(r *rand.Rand) float64 {
		return r.NormFloat64()*n.StdDev + n.Mean
	})
}

func (n *Normal) Describe() string {
	s := fmt.Sprintf("normal(mean=%g, stddev=%g)", n.Mean, n.StdDev)
	if n.clamp != nil {
		s += fmt.Sprintf(" clamped to [%g, %g]", n.clamp.min, n.clamp.max)
	}
	return s
}

// LogNormal samples a value whose logarithm is N(mu, sigma).
type LogNormal struct {
	Mu    float64
	Sigma float64
	clamp *clamp
}

func NewLogNormal(mu, sigma float64) (*LogNormal, error) {
	if sigma <= 0 {
		return nil, models.NewConfigurationError("log-normal sigma must be positive, got %f", sigma)
	}
	return &LogNormal{Mu: mu, Sigma: sigma}, nil
}

func NewClampedLogNormal(mu, sigma, min, max float64) (*LogNormal, error) {
	ln, err := NewLogNormal(mu, sigma)
	if err != nil {
		return nil, err
	}
	if ln.clamp, err = newClamp(min, max); err != nil {
		return nil, err
	}
	return ln, nil
}

func (ln *LogNormal) Sample(rng *rand.Rand) float64 {
	return ln.clamp.sample(rng, func(r *rand.Rand) float64 {
		return math.Exp(r.NormFloat64()*ln.Sigma + ln.Mu)
	})
}

func (ln *LogNormal) Describe() string {
	s := fmt.Sprintf("log-normal(mu=%g, sigma=%g)", ln.Mu, ln.Sigma)
	if ln.clamp != nil {
		s += fmt.Sprintf(" clamped to [%g, %g]", ln.clamp.min, ln.clamp.max)
	}
	return s
}

// Uniform samples from [Min, Max).
type Uniform struct {
	Min float64
	Max float64
}

func NewUniform(min, max float64) (*Uniform, error) {
	if min > max {
		return nil, models.NewConfigurationError("uniform min %f exceeds max %f", min, max)
	}
	return &Uniform{Min: min, Max: max}, nil
}

func (u *Uniform) Sample(rng *rand.Rand) float64 {
	return u.Min + rng.Float64()*(u.Max-u.Min)
}

func (u *Uniform) Describe() string {
	return fmt.Sprintf("uniform[%g, %g)", u.Min, u.Max)
}

// Constant always yields the same value. Useful for fixing a parameter in a
// profile without special-casing the sampling path.
type Constant struct {
	Value float64
}

func NewConstant(v float64) *Constant { return &Constant{Value: v} }

func (c *Constant) Sample(_ *rand.Rand) float64 { return c.Value }

func (c *Constant) Describe() string { return fmt.Sprintf("constant(%g)", c.Value) }

// WeightedChoice selects among labeled options with relative weights.
type WeightedChoice struct {
	labels  []string
	weights []float64
	total   float64
}

func NewWeightedChoice(options map[string]float64) (*WeightedChoice, error) {
	if len(options) == 0 {
		return nil, models.NewConfigurationError("weighted choice requires at least one option")
	}

	wc := &WeightedChoice{}
	// Deterministic ordering regardless of map iteration.
	for _, label := range sortedKeys(options) {
		w := options[label]
		if w < 0 {
			return nil, models.NewConfigurationError("weight for %q is negative (%f)", label, w)
		}
		wc.labels = append(wc.labels, label)
		wc.weights = append(wc.weights, w)
		wc.total += w
	}
	if wc.total <= 0 {
		return nil, models.NewConfigurationError("weighted choice weights must sum > 0")
	}
	return wc, nil
}

func (wc *WeightedChoice) Choose(rng *rand.Rand) string {
	target := rng.Float64() * wc.total
	for i, w := range wc.weights {
		target -= w
		if target < 0 {
			return wc.labels[i]
		}
	}
	// Floating point slack lands on the last positive weight.
	for i := len(wc.weights) - 1; i >= 0; i-- {
		if wc.weights[i] > 0 {
			return wc.labels[i]
		}
	}
	return wc.labels[len(wc.labels)-1]
}

func (wc *WeightedChoice) Describe() string {
	parts := make([]string, len(wc.labels))
	for i, l := range wc.labels {
		parts[i] = fmt.Sprintf("%s:%g", l, wc.weights[i])
	}
	return "weighted-choice(" + strings.Join(parts, ", ") + ")"
}

// Categorical selects uniformly among labels.
type Categorical struct {
	labels []string
}

func NewCategorical(labels []string) (*Categorical, error) {
	if len(labels) == 0 {
		return nil, models.NewConfigurationError("categorical requires at least one label")
	}
	out := make([]string, len(labels))
	copy(out, labels)
	return &Categorical{labels: out}, nil
}

func (c *Categorical) Choose(rng *rand.Rand) string {
	return c.labels[rng.Intn(len(c.labels))]
}

func (c *Categorical) Describe() string {
	return "categorical(" + strings.Join(c.labels, ", ") + ")"
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
