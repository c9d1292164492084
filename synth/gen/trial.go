package gen

import (
	"fmt"
	"math/rand"

	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

const defaultStudyID = "SYNTH-001"

var trialArms = map[string]float64{
	"TREATMENT": 0.5,
	"PLACEBO":   0.5,
}

var aeSeverities = map[string]float64{
	"MILD":     0.70,
	"MODERATE": 0.25,
	"SEVERE":   0.05,
}

var aeCausalities = map[string]float64{
	"NOT RELATED":      0.5,
	"POSSIBLY RELATED": 0.35,
	"RELATED":          0.15,
}

// aeTerms is a small MedDRA-flavored term list; adverse events are reported
// terms, not diagnosis codes, so they sit outside the ICD vocabulary.
var aeTerms = []string{
	"HEADACHE", "NAUSEA", "DIZZINESS", "FATIGUE", "RASH", "DIARRHEA", "INSOMNIA",
}

// visitSchedule is the per-protocol visit template, in days from enrollment.
var visitSchedule = []struct {
	name string
	day  int
}{
	{"SCREENING", 0},
	{"BASELINE", 14},
	{"WEEK 4", 42},
	{"WEEK 12", 98},
	{"END OF STUDY", 182},
}

// Trial generates the research view: a subject randomized to an arm with a
// protocol visit schedule and sampled adverse events.
type Trial struct {
	vocab *vocab.Vocabulary
}

func NewTrial(v *vocab.Vocabulary) *Trial {
	return &Trial{vocab: v}
}

// GenerateOne produces a subject when at least one of the identity's
// conditions qualifies for the protocol. Ineligible identities yield nil
// with no error.
func (tr *Trial) GenerateOne(person *models.Person, conditions []string,
	p models.Profile, rng *rand.Rand) (*models.Subject, error) {

	eligible := false
	for _, cond := range conditions {
		if def, ok := tr.vocab.ConditionFor(cond); ok && def.TrialEligible {
			eligible = true
			break
		}
	}
	if !eligible {
		return nil, nil
	}

	armChooser, err := distribution.NewWeightedChoice(trialArms)
	if err != nil {
		return nil, err
	}
	sevChooser, err := distribution.NewWeightedChoice(aeSeverities)
	if err != nil {
		return nil, err
	}
	causChooser, err := distribution.NewWeightedChoice(aeCausalities)
	if err != nil {
		return nil, err
	}

	asOf := p.EffectiveAsOf()
	enrolled := asOf.AddDate(0, -7, 0)

	subject := &models.Subject{
		ID:         newID(rng),
		PersonKey:  person.Key,
		StudyID:    defaultStudyID,
		USubjID:    fmt.Sprintf("%s-%04d", defaultStudyID, 1000+rng.Intn(9000)),
		Arm:        armChooser.Choose(rng),
		EnrolledAt: enrolled,
	}

	for i, v := range visitSchedule {
		subject.Visits = append(subject.Visits, models.Visit{
			ID:        newID(rng),
			SubjectID: subject.ID,
			Number:    i + 1,
			Name:      v.name,
			Date:      enrolled.AddDate(0, 0, v.day),
		})
	}

	// Zero to two adverse events, onset strictly after enrollment.
	nAE := rng.Intn(3)
	for i := 0; i < nAE; i++ {
		start := enrolled.AddDate(0, 0, 1+rng.Intn(180))
		subject.AdverseEvents = append(subject.AdverseEvents, models.AdverseEvent{
			ID:        newID(rng),
			SubjectID: subject.ID,
			Term:      aeTerms[rng.Intn(len(aeTerms))],
			Severity:  sevChooser.Choose(rng),
			Causality: causChooser.Choose(rng),
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 1+rng.Intn(14)),
		})
	}

	return subject, nil
}
