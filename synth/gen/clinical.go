package gen

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// encounterClasses reflects rough ambulatory/emergency/inpatient mix.
var encounterClasses = map[string]float64{
	"AMB":  0.80,
	"EMER": 0.15,
	"IMP":  0.05,
}

// Clinical generates the clinical-domain view: a patient with encounters,
// diagnoses, medications, and lab observations, every code drawn from the
// closed vocabulary.
type Clinical struct {
	vocab *vocab.Vocabulary
}

func NewClinical(v *vocab.Vocabulary) *Clinical {
	return &Clinical{vocab: v}
}

// GenerateOne produces a patient for the identity. Child record dates stay
// inside the enrollment window and never precede the condition's onset.
func (c *Clinical) GenerateOne(person *models.Person, conditions []string,
	p models.Profile, providerNPI string, rng *rand.Rand) (*models.Patient, error) {

	asOf := p.EffectiveAsOf()
	patient := &models.Patient{
		ID:              newID(rng),
		PersonKey:       person.Key,
		MRN:             fmt.Sprintf("MRN%08d", rng.Intn(100000000)),
		EnrollmentStart: asOf.AddDate(-1, 0, 0),
		EnrollmentEnd:   asOf,
	}

	classChooser, err := distribution.NewWeightedChoice(encounterClasses)
	if err != nil {
		return nil, err
	}

	for idx, cond := range conditions {
		def, ok := c.vocab.ConditionFor(cond)
		if !ok {
			return nil, models.NewConfigurationError("unknown condition %s", cond)
		}

		// Onset in the first half of the window leaves room for followups.
		onset := dateIn(rng, patient.EnrollmentStart, patient.EnrollmentStart.AddDate(0, 6, 0))
		patient.Diagnoses = append(patient.Diagnoses, models.Diagnosis{
			ID:        newID(rng),
			PatientID: patient.ID,
			Code:      def.ICD10,
			Display:   def.Display,
			OnsetDate: onset,
			Primary:   idx == 0,
		})

		// One to three encounters per condition, dated after onset and
		// sorted so the visit history reads monotonically.
		nEnc := 1 + rng.Intn(3)
		for i := 0; i < nEnc; i++ {
			enc := models.Encounter{
				ID:             newID(rng),
				PatientID:      patient.ID,
				Date:           dateIn(rng, onset, patient.EnrollmentEnd),
				Class:          classChooser.Choose(rng),
				ProviderNPI:    providerNPI,
				DiagnosisCodes: []string{def.ICD10},
			}
			if len(def.Procedures) > 0 {
				enc.ProcedureCodes = append(enc.ProcedureCodes,
					def.Procedures[rng.Intn(len(def.Procedures))])
			}
			patient.Encounters = append(patient.Encounters, enc)
		}

		med, err := c.selectTreatment(cond, patient.ID, onset, rng)
		if err != nil {
			return nil, err
		}
		if med != nil {
			patient.Medications = append(patient.Medications, *med)
		}

		for _, lab := range c.vocab.Labs[cond] {
			obs, err := c.sampleLab(lab, patient.ID, onset, patient.EnrollmentEnd, rng)
			if err != nil {
				return nil, err
			}
			patient.Observations = append(patient.Observations, obs)
		}
	}

	sort.Slice(patient.Encounters, func(i, j int) bool {
		return patient.Encounters[i].Date.Before(patient.Encounters[j].Date)
	})

	return patient, nil
}

// selectTreatment picks a medication for the condition by prescribing
// frequency, not uniformly. Conditions without treatment entries yield nil.
func (c *Clinical) selectTreatment(cond, patientID string, onset time.Time, rng *rand.Rand) (*models.Medication, error) {
	opts := c.vocab.Treatments[cond]
	if len(opts) == 0 {
		return nil, nil
	}

	weights := make(map[string]float64, len(opts))
	byCode := make(map[string]vocab.Treatment, len(opts))
	for _, t := range opts {
		weights[t.RxNorm] = t.Weight
		byCode[t.RxNorm] = t
	}
	chooser, err := distribution.NewWeightedChoice(weights)
	if err != nil {
		return nil, err
	}

	t := byCode[chooser.Choose(rng)]
	return &models.Medication{
		ID:          newID(rng),
		PatientID:   patientID,
		RxNormCode:  t.RxNorm,
		NDC:         t.NDC,
		Display:     t.Display,
		DailyDoseMG: t.DailyDoseMG,
		StartDate:   onset,
		DaysSupply:  t.DaysSupply,
	}, nil
}

func (c *Clinical) sampleLab(lab vocab.Lab, patientID string, onset, end time.Time, rng *rand.Rand) (models.Observation, error) {
	sampler, err := distribution.NewClampedNormal(lab.Mean, lab.StdDev, lab.Min, lab.Max)
	if err != nil {
		return models.Observation{}, err
	}
	return models.Observation{
		ID:        newID(rng),
		PatientID: patientID,
		LoincCode: lab.Loinc,
		Display:   c.vocab.Loinc.Display(lab.Loinc),
		Value:     sampler.Sample(rng),
		Unit:      lab.Unit,
		Date:      dateIn(rng, onset, end),
	}, nil
}
