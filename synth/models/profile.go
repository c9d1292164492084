package models

import (
	"time"

	"github.com/synthhealth/datasynth/synth/constants"
)

type AgeRange struct {
	Min int
	Max int
}

// Profile is a declarative batch request. It is read-only once submitted to
// the executor; validation failures are ConfigurationErrors.
type Profile struct {
	Count int
	Seed  int64

	// AsOf anchors age-to-birthdate conversion and all generated windows.
	AsOf time.Time

	AgeRange AgeRange
	// SexRatio is the fraction of the population generated female, in [0,1].
	SexRatio float64
	State    string // two-letter state; empty means any

	// ConditionPrevalence maps a condition key from the vocabulary's
	// prevalence tables to the probability of assignment, in [0,1].
	ConditionPrevalence map[string]float64

	// Comorbidities enables comorbidity assignment from the vocabulary's
	// comorbidity table.
	Comorbidities bool

	// Domains selects which entity types to produce. Empty means clinical.
	Domains []Domain

	// MaxCount overrides the batch ceiling; zero means the default.
	MaxCount int
}

// EffectiveAsOf returns the anchor date, defaulting to the current day for
// callers that leave it unset.
func (p Profile) EffectiveAsOf() time.Time {
	if p.AsOf.IsZero() {
		return time.Now().UTC().Truncate(24 * time.Hour)
	}
	return p.AsOf
}

// Ceiling returns the batch size ceiling in effect for this profile.
func (p Profile) Ceiling() int {
	if p.MaxCount > 0 {
		return p.MaxCount
	}
	return constants.DefaultMaxBatchSize
}

// EffectiveDomains returns the requested domains, defaulting to clinical.
func (p Profile) EffectiveDomains() []Domain {
	if len(p.Domains) == 0 {
		return []Domain{DomainClinical}
	}
	return p.Domains
}

// Validate checks internal consistency. Contradictory bounds fail fast and
// are never silently swapped.
func (p Profile) Validate() error {
	if p.Count <= 0 {
		return NewConfigurationError("count must be positive, got %d", p.Count)
	}
	if p.Count > p.Ceiling() {
		return NewConfigurationError("count %d exceeds batch ceiling %d", p.Count, p.Ceiling())
	}
	if p.AgeRange.Min < 0 || p.AgeRange.Max < 0 {
		return NewConfigurationError("age range bounds must be non-negative")
	}
	if p.AgeRange.Max > 0 && p.AgeRange.Min > p.AgeRange.Max {
		return NewConfigurationError("age range min %d exceeds max %d", p.AgeRange.Min, p.AgeRange.Max)
	}
	if p.SexRatio < 0 || p.SexRatio > 1 {
		return NewConfigurationError("sex ratio %f outside [0,1]", p.SexRatio)
	}
	for cond, prob := range p.ConditionPrevalence {
		if prob < 0 || prob > 1 {
			return NewConfigurationError("prevalence for %s is %f, outside [0,1]", cond, prob)
		}
	}
	for _, d := range p.Domains {
		switch d {
		case DomainClinical, DomainPayer, DomainPharmacy, DomainTrial:
		default:
			return NewConfigurationError("unknown domain %q", d)
		}
	}
	return nil
}
