// Package vocab holds the closed code-system vocabularies and the clinical
// knowledge tables (prevalence, comorbidity, treatment, interaction) the
// generators draw codes from. Tables arrive either from the embedded
// defaults or from an external knowledge layer as plain data; they are
// validated into typed form here and never parsed from prose.
package vocab

import (
	"github.com/synthhealth/datasynth/synth/models"
)

// CodeSystem is a closed code→display vocabulary. Generators may only emit
// codes present here.
type CodeSystem struct {
	Name  string            `toml:"name" mapstructure:"name"`
	URI   string            `toml:"uri" mapstructure:"uri"`
	Codes map[string]string `toml:"codes" mapstructure:"codes"`
}

func (cs CodeSystem) Has(code string) bool {
	_, ok := cs.Codes[code]
	return ok
}

func (cs CodeSystem) Display(code string) string {
	return cs.Codes[code]
}

// Condition ties a condition key (the unit of prevalence configuration) to
// its diagnosis code and the procedures and labs it drives.
type Condition struct {
	ICD10         string   `toml:"icd10" mapstructure:"icd10"`
	Display       string   `toml:"display" mapstructure:"display"`
	Procedures    []string `toml:"procedures" mapstructure:"procedures"` // CPT
	Labs          []string `toml:"labs" mapstructure:"labs"`             // LOINC
	TrialEligible bool     `toml:"trial_eligible" mapstructure:"trial_eligible"`
}

// Treatment is one candidate medication for a condition. Weight reflects
// relative prescribing frequency; selection is weighted-choice, not uniform.
type Treatment struct {
	RxNorm      string  `toml:"rxnorm" mapstructure:"rxnorm"`
	NDC         string  `toml:"ndc" mapstructure:"ndc"`
	Display     string  `toml:"display" mapstructure:"display"`
	Weight      float64 `toml:"weight" mapstructure:"weight"`
	DailyDoseMG float64 `toml:"daily_dose_mg" mapstructure:"daily_dose_mg"`
	Class       string  `toml:"class" mapstructure:"class"`
	DaysSupply  int     `toml:"days_supply" mapstructure:"days_supply"`
}

// Interaction is a known drug-drug interaction between two RxNorm
// ingredients.
type Interaction struct {
	RxNormA  string `toml:"a" mapstructure:"a"`
	RxNormB  string `toml:"b" mapstructure:"b"`
	Severity string `toml:"severity" mapstructure:"severity"` // minor, moderate, major
	Effect   string `toml:"effect" mapstructure:"effect"`
}

// Lab describes a lab observation a condition drives, with the sampling
// parameters for its value.
type Lab struct {
	Loinc  string  `toml:"loinc" mapstructure:"loinc"`
	Unit   string  `toml:"unit" mapstructure:"unit"`
	Mean   float64 `toml:"mean" mapstructure:"mean"`
	StdDev float64 `toml:"stddev" mapstructure:"stddev"`
	Min    float64 `toml:"min" mapstructure:"min"`
	Max    float64 `toml:"max" mapstructure:"max"`
}

// Vocabulary bundles every table the generation core needs. Read-only after
// load.
type Vocabulary struct {
	ICD10  CodeSystem `toml:"icd10" mapstructure:"icd10"`
	CPT    CodeSystem `toml:"cpt" mapstructure:"cpt"`
	NDC    CodeSystem `toml:"ndc" mapstructure:"ndc"`
	RxNorm CodeSystem `toml:"rxnorm" mapstructure:"rxnorm"`
	Loinc  CodeSystem `toml:"loinc" mapstructure:"loinc"`

	Conditions map[string]Condition `toml:"conditions" mapstructure:"conditions"`

	// Comorbidities maps a primary condition key to comorbid condition keys
	// and their conditional probabilities. Each comorbidity is sampled
	// independently given the primary; this is a documented simplification,
	// not a joint model.
	Comorbidities map[string]map[string]float64 `toml:"comorbidities" mapstructure:"comorbidities"`

	Treatments map[string][]Treatment `toml:"treatments" mapstructure:"treatments"`

	Labs map[string][]Lab `toml:"labs" mapstructure:"labs"`

	Interactions []Interaction `toml:"interactions" mapstructure:"interactions"`
}

// ConditionFor resolves a condition key.
func (v *Vocabulary) ConditionFor(key string) (Condition, bool) {
	c, ok := v.Conditions[key]
	return c, ok
}

// InteractionBetween looks up a known interaction between two RxNorm codes,
// in either order.
func (v *Vocabulary) InteractionBetween(a, b string) (Interaction, bool) {
	for _, ix := range v.Interactions {
		if (ix.RxNormA == a && ix.RxNormB == b) || (ix.RxNormA == b && ix.RxNormB == a) {
			return ix, true
		}
	}
	return Interaction{}, false
}

// ClassOf reports the therapeutic class of an RxNorm ingredient, scanning
// the treatment tables.
func (v *Vocabulary) ClassOf(rxnorm string) string {
	for _, opts := range v.Treatments {
		for _, t := range opts {
			if t.RxNorm == rxnorm {
				return t.Class
			}
		}
	}
	return ""
}

// ReferenceDose reports the usual daily dose in milligrams for an RxNorm
// ingredient, scanning the treatment tables.
func (v *Vocabulary) ReferenceDose(rxnorm string) (float64, bool) {
	for _, opts := range v.Treatments {
		for _, t := range opts {
			if t.RxNorm == rxnorm {
				return t.DailyDoseMG, true
			}
		}
	}
	return 0, false
}

// Validate enforces referential closure: every table entry must resolve to
// the closed code systems and the condition registry.
func (v *Vocabulary) Validate() error {
	if len(v.Conditions) == 0 {
		return models.NewConfigurationError("vocabulary has no conditions")
	}

	for key, c := range v.Conditions {
		if !v.ICD10.Has(c.ICD10) {
			return models.NewConfigurationError("condition %s references unknown ICD-10 code %s", key, c.ICD10)
		}
		for _, cpt := range c.Procedures {
			if !v.CPT.Has(cpt) {
				return models.NewConfigurationError("condition %s references unknown CPT code %s", key, cpt)
			}
		}
		for _, lab := range c.Labs {
			if !v.Loinc.Has(lab) {
				return models.NewConfigurationError("condition %s references unknown LOINC code %s", key, lab)
			}
		}
	}

	for primary, comorbid := range v.Comorbidities {
		if _, ok := v.Conditions[primary]; !ok {
			return models.NewConfigurationError("comorbidity table references unknown condition %s", primary)
		}
		for target, prob := range comorbid {
			if _, ok := v.Conditions[target]; !ok {
				return models.NewConfigurationError("comorbidity of %s references unknown condition %s", primary, target)
			}
			if prob < 0 || prob > 1 {
				return models.NewConfigurationError("comorbidity probability %s->%s is %f, outside [0,1]", primary, target, prob)
			}
		}
	}

	for cond, opts := range v.Treatments {
		if _, ok := v.Conditions[cond]; !ok {
			return models.NewConfigurationError("treatment table references unknown condition %s", cond)
		}
		var total float64
		for _, t := range opts {
			if !v.RxNorm.Has(t.RxNorm) {
				return models.NewConfigurationError("treatment for %s references unknown RxNorm code %s", cond, t.RxNorm)
			}
			if !v.NDC.Has(t.NDC) {
				return models.NewConfigurationError("treatment for %s references unknown NDC %s", cond, t.NDC)
			}
			if t.Weight < 0 {
				return models.NewConfigurationError("treatment %s for %s has negative weight", t.RxNorm, cond)
			}
			total += t.Weight
		}
		if len(opts) > 0 && total <= 0 {
			return models.NewConfigurationError("treatment weights for %s sum to zero", cond)
		}
	}

	for cond, labs := range v.Labs {
		if _, ok := v.Conditions[cond]; !ok {
			return models.NewConfigurationError("lab table references unknown condition %s", cond)
		}
		for _, l := range labs {
			if !v.Loinc.Has(l.Loinc) {
				return models.NewConfigurationError("lab for %s references unknown LOINC code %s", cond, l.Loinc)
			}
		}
	}

	for _, ix := range v.Interactions {
		if !v.RxNorm.Has(ix.RxNormA) || !v.RxNorm.Has(ix.RxNormB) {
			return models.NewConfigurationError("interaction %s/%s references unknown RxNorm code", ix.RxNormA, ix.RxNormB)
		}
		switch ix.Severity {
		case "minor", "moderate", "major":
		default:
			return models.NewConfigurationError("interaction %s/%s has unknown severity %q", ix.RxNormA, ix.RxNormB, ix.Severity)
		}
	}

	return nil
}
