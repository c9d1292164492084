package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileValidate(t *testing.T) {
	valid := Profile{
		Count:    10,
		Seed:     1,
		AgeRange: AgeRange{Min: 40, Max: 70},
		SexRatio: 0.5,
	}

	tests := []struct {
		name   string
		mutate func(*Profile)
		ok     bool
	}{
		{"valid", func(p *Profile) {}, true},
		{"zero count", func(p *Profile) { p.Count = 0 }, false},
		{"negative count", func(p *Profile) { p.Count = -5 }, false},
		{"count over ceiling", func(p *Profile) { p.Count = 20; p.MaxCount = 10 }, false},
		{"inverted age range", func(p *Profile) { p.AgeRange = AgeRange{Min: 70, Max: 40} }, false},
		{"negative age", func(p *Profile) { p.AgeRange.Min = -1 }, false},
		{"sex ratio above one", func(p *Profile) { p.SexRatio = 1.5 }, false},
		{"prevalence above one", func(p *Profile) {
			p.ConditionPrevalence = map[string]float64{"type2_diabetes": 1.2}
		}, false},
		{"unknown domain", func(p *Profile) { p.Domains = []Domain{"dental"} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			err := p.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.True(t, IsConfigurationError(err))
			}
		})
	}
}

func TestPersonAge(t *testing.T) {
	p := Person{BirthDate: time.Date(1960, time.June, 15, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, 59, p.Age(time.Date(2020, time.June, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 60, p.Age(time.Date(2020, time.June, 15, 0, 0, 0, 0, time.UTC)))
}

func TestMedicationActiveOn(t *testing.T) {
	m := Medication{
		StartDate:  time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		DaysSupply: 30,
	}

	assert.False(t, m.ActiveOn(time.Date(2024, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.ActiveOn(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.ActiveOn(time.Date(2024, time.March, 30, 0, 0, 0, 0, time.UTC)))
	assert.False(t, m.ActiveOn(time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)))
}

func TestEntityGraphVerify(t *testing.T) {
	g := NewEntityGraph()
	person := &Person{Key: "123-45-6789"}
	g.AddPerson(person)

	enc := Encounter{
		ID:          "enc-1",
		PatientID:   "pat-1",
		Date:        time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC),
		ProviderNPI: "1234567893",
	}
	g.Patients = append(g.Patients, &Patient{ID: "pat-1", PersonKey: person.Key, Encounters: []Encounter{enc}})

	claim := Claim{
		ID:                "clm-1",
		PersonKey:         person.Key,
		ServiceDate:       enc.Date,
		ProviderNPI:       enc.ProviderNPI,
		SourceEncounterID: enc.ID,
	}
	g.Members = append(g.Members, &Member{ID: "mem-1", PersonKey: person.Key, Claims: []Claim{claim}})

	assert.NoError(t, g.Verify())

	// A claim that disagrees with its source encounter on provider must fail.
	g.Members[0].Claims[0].ProviderNPI = "9999999999"
	assert.Error(t, g.Verify())
}

func TestEntityGraphVerifyUnknownPerson(t *testing.T) {
	g := NewEntityGraph()
	g.Patients = append(g.Patients, &Patient{ID: "pat-1", PersonKey: "000-00-0000"})
	assert.Error(t, g.Verify())
}

func TestMedicationsForMergesDomains(t *testing.T) {
	g := NewEntityGraph()
	g.AddPerson(&Person{Key: "111-22-3333"})
	g.Patients = append(g.Patients, &Patient{
		PersonKey:   "111-22-3333",
		Medications: []Medication{{RxNormCode: "11289", Display: "warfarin"}},
	})
	g.RxMembers = append(g.RxMembers, &RxMember{
		PersonKey:     "111-22-3333",
		Prescriptions: []Prescription{{RxNormCode: "6809", Display: "metformin"}},
	})

	meds := g.MedicationsFor("111-22-3333")
	assert.Len(t, meds, 2)
}
