package gen

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

func testProfile() models.Profile {
	return models.Profile{
		Count:    50,
		Seed:     42,
		AsOf:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		AgeRange: models.AgeRange{Min: 45, Max: 75},
		SexRatio: 0.5,
		ConditionPrevalence: map[string]float64{
			"type2_diabetes": 1.0,
			"hypertension":   0.6,
		},
	}
}

func TestRunDeterministic(t *testing.T) {
	p := testProfile()
	v := vocab.MustDefault()

	first, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)
	second, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)

	assert.Equal(t, first, second)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	p := testProfile()
	v := vocab.MustDefault()

	serial := NewRunner(p, v)
	serial.Workers = 1
	parallel := NewRunner(p, v)
	parallel.Workers = 8

	sg, failures := serial.Run()
	require.Empty(t, failures)
	pg, failures := parallel.Run()
	require.Empty(t, failures)

	assert.Equal(t, sg, pg)
}

func TestRunSeedChangesOutput(t *testing.T) {
	v := vocab.MustDefault()
	p := testProfile()

	first, _ := NewRunner(p, v).Run()
	p.Seed = 43
	second, _ := NewRunner(p, v).Run()

	assert.NotEqual(t, first.Keys(), second.Keys())
}

func TestRunPrevalenceAndAges(t *testing.T) {
	p := testProfile()
	v := vocab.MustDefault()

	graph, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)
	require.Len(t, graph.Patients, 50)
	require.Len(t, graph.Persons, 50)

	hypertensive := 0
	for _, patient := range graph.Patients {
		person, ok := graph.PersonFor(patient.PersonKey)
		require.True(t, ok)
		age := person.Age(p.AsOf)
		assert.GreaterOrEqual(t, age, 45)
		assert.LessOrEqual(t, age, 75)

		var hasDiabetes, hasHTN bool
		for _, dx := range patient.Diagnoses {
			switch dx.Code {
			case "E11.9":
				hasDiabetes = true
			case "I10":
				hasHTN = true
			}
			assert.False(t, dx.OnsetDate.After(p.AsOf))
		}
		assert.True(t, hasDiabetes, "prevalence 1.0 must assign every patient")
		if hasHTN {
			hypertensive++
		}
	}

	// Binomial(50, 0.6): mean 30, sd ~3.46. Four sigma keeps the test quiet.
	mean, sd := 50*0.6, math.Sqrt(50*0.6*0.4)
	assert.InDelta(t, mean, float64(hypertensive), 4*sd)
}

func TestRunCodesResolveInVocabulary(t *testing.T) {
	v := vocab.MustDefault()
	graph, failures := NewRunner(testProfile(), v).Run()
	require.Empty(t, failures)

	for _, patient := range graph.Patients {
		for _, dx := range patient.Diagnoses {
			assert.Contains(t, v.ICD10.Codes, dx.Code)
		}
		for _, med := range patient.Medications {
			assert.Contains(t, v.RxNorm.Codes, med.RxNormCode)
			assert.Contains(t, v.NDC.Codes, med.NDC)
		}
		for _, enc := range patient.Encounters {
			for _, proc := range enc.ProcedureCodes {
				assert.Contains(t, v.CPT.Codes, proc)
			}
		}
	}
}

func TestRunCrossDomainConsistency(t *testing.T) {
	p := testProfile()
	p.Count = 20
	p.Domains = []models.Domain{models.DomainClinical, models.DomainPharmacy}
	v := vocab.MustDefault()

	graph, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)
	require.Len(t, graph.Patients, 20)
	require.Len(t, graph.RxMembers, 20)

	for _, rxm := range graph.RxMembers {
		patient, ok := graph.PatientFor(rxm.PersonKey)
		require.True(t, ok, "both domains must share the person")
		if len(patient.Encounters) == 0 || len(rxm.Prescriptions) == 0 {
			continue
		}
		// Same person, same primary care provider across domains.
		assert.Equal(t, patient.Encounters[0].ProviderNPI, rxm.Prescriptions[0].PrescriberNPI)
	}
}

func TestRunTrialRequiresEligibleCondition(t *testing.T) {
	v := vocab.MustDefault()

	p := testProfile()
	p.Count = 20
	p.Domains = []models.Domain{models.DomainTrial}
	p.ConditionPrevalence = map[string]float64{"depression": 1.0}
	p.Comorbidities = false

	graph, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)
	assert.Empty(t, graph.Subjects, "depression does not qualify for the protocol")

	p.ConditionPrevalence = map[string]float64{"type2_diabetes": 1.0}
	graph, failures = NewRunner(p, v).Run()
	require.Empty(t, failures)
	assert.Len(t, graph.Subjects, 20)
}

func TestGenerateBatchIsolatesMalformedSpec(t *testing.T) {
	v := vocab.MustDefault()
	good := testProfile()
	bad := testProfile()
	bad.ConditionPrevalence = map[string]float64{"not_a_condition": 1.0}

	specs := []models.Profile{good, good, bad, good}
	graph, failures := NewRunner(good, v).GenerateBatch(specs)

	require.Len(t, failures, 1)
	assert.Equal(t, 2, failures[0].Index)
	assert.Error(t, failures[0].Err)
	assert.Len(t, graph.Patients, 3)
}

func TestGenerateRangeChunksCompose(t *testing.T) {
	p := testProfile()
	p.Count = 30
	v := vocab.MustDefault()

	whole, failures := NewRunner(p, v).Run()
	require.Empty(t, failures)

	r := NewRunner(p, v)
	left, failures := r.GenerateRange(0, 0, 15)
	require.Empty(t, failures)
	right, failures := r.GenerateRange(1, 15, 15)
	require.Empty(t, failures)
	left.Absorb(right)

	// Entity content is index-seeded, so splitting the range must not
	// change what any index produces.
	require.Len(t, left.Patients, 30)
	assert.Equal(t, whole, left)
}

func TestSubseedSpreadsIndices(t *testing.T) {
	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		s := subseed(42, i)
		_, dup := seen[s]
		assert.False(t, dup, "subseed collision at index %d", i)
		seen[s] = struct{}{}
	}
	assert.NotEqual(t, subseed(42, 0), subseed(43, 0))
}

func TestAssignConditionsComorbidity(t *testing.T) {
	v := vocab.MustDefault()
	p := models.Profile{
		ConditionPrevalence: map[string]float64{"type2_diabetes": 1.0},
		Comorbidities:       true,
	}

	rng := rand.New(rand.NewSource(7))
	withCKD := 0
	for i := 0; i < 500; i++ {
		conditions, err := assignConditions(p, v, rng)
		require.NoError(t, err)
		require.Contains(t, conditions, "type2_diabetes")
		for _, c := range conditions {
			if c == "ckd" {
				withCKD++
			}
		}
	}
	// Diabetes pulls in chronic kidney disease for a fraction of the
	// population once comorbidity tables are on.
	assert.Greater(t, withCKD, 0)
	assert.Less(t, withCKD, 500)
}

func TestAssignConditionsUnknownKey(t *testing.T) {
	v := vocab.MustDefault()
	p := models.Profile{ConditionPrevalence: map[string]float64{"bogus": 0.5}}

	_, err := assignConditions(p, v, rand.New(rand.NewSource(1)))
	require.Error(t, err)
	assert.True(t, models.IsConfigurationError(err))
}

func TestNewIDShape(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	id := newID(rng)
	assert.Regexp(t, `^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`, id)
	assert.NotEqual(t, id, newID(rng))
}
