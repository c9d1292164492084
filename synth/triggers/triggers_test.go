package triggers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

const (
	rxWarfarin  = "11289"
	rxAspirin   = "1191"
	rxMetformin = "6809"
)

type TriggersTestSuite struct {
	suite.Suite
	vocab    *vocab.Vocabulary
	registry *Registry
	graph    *models.EntityGraph
	day      time.Time
}

func (s *TriggersTestSuite) SetupTest() {
	s.vocab = vocab.MustDefault()
	s.registry = NewRegistry(s.vocab, DefaultDURConfig())
	s.day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	s.graph = models.NewEntityGraph()
	s.graph.AddPerson(&models.Person{Key: "123-45-6789"})
	s.graph.Members = append(s.graph.Members, &models.Member{
		ID: "mem-1", PersonKey: "123-45-6789", MemberID: "M000000001",
	})
	s.graph.RxMembers = append(s.graph.RxMembers, &models.RxMember{
		ID: "rxm-1", PersonKey: "123-45-6789", CardholderID: "RX000000001",
	})
	s.graph.Patients = append(s.graph.Patients, &models.Patient{
		ID: "pat-1", PersonKey: "123-45-6789",
	})
}

func (s *TriggersTestSuite) prescription(id, rxnorm, display string, written time.Time) models.Prescription {
	return models.Prescription{
		ID:            id,
		RxMemberID:    "rxm-1",
		PersonKey:     "123-45-6789",
		NDC:           "00000-0000-00",
		RxNormCode:    rxnorm,
		Display:       display,
		Quantity:      30,
		DaysSupply:    30,
		DailyDoseMG:   5,
		WrittenDate:   written,
		PrescriberNPI: "1234567893",
	}
}

func (s *TriggersTestSuite) TestEncounterDerivesClaim() {
	enc := models.Encounter{
		ID:             "enc-1",
		PatientID:      "pat-1",
		Date:           s.day,
		Class:          "AMB",
		ProviderNPI:    "1234567893",
		DiagnosisCodes: []string{"E11.9", "I10"},
		ProcedureCodes: []string{"99213", "83036"},
	}
	s.graph.Patients[0].Encounters = append(s.graph.Patients[0].Encounters, enc)
	records, warns := s.registry.Derive(Event{
		Kind: models.EventEncounter, PersonKey: "123-45-6789", Encounter: &enc,
	}, s.graph)
	s.Empty(warns)
	s.Require().Len(records, 1)

	claim, ok := records[0].(models.Claim)
	s.Require().True(ok)
	s.Equal(enc.Date, claim.ServiceDate)
	s.Equal(enc.ProviderNPI, claim.ProviderNPI)
	s.Equal(enc.DiagnosisCodes, claim.DiagnosisCodes)
	s.Equal("enc-1", claim.SourceEncounterID)
	s.False(claim.Institutional)
	s.Require().Len(claim.Lines, 2)
	s.Equal("99213", claim.Lines[0].ProcedureCode)
	s.Equal([]int{1, 2}, claim.Lines[0].DiagnosisPointers)
	s.InDelta(claim.Lines[0].Charge+claim.Lines[1].Charge, claim.TotalCharge, 0.001)

	s.Require().NoError(Apply(s.graph, records))
	s.Require().NoError(s.graph.Verify())
}

func (s *TriggersTestSuite) TestInpatientEncounterIsInstitutional() {
	enc := models.Encounter{
		ID: "enc-2", Date: s.day, Class: "IMP", ProviderNPI: "1234567893",
		DiagnosisCodes: []string{"J44.9"}, ProcedureCodes: []string{"99223"},
	}
	records, _ := s.registry.Derive(Event{
		Kind: models.EventEncounter, PersonKey: "123-45-6789", Encounter: &enc,
	}, s.graph)
	s.Require().Len(records, 1)
	s.True(records[0].(models.Claim).Institutional)
}

func (s *TriggersTestSuite) TestNonBillableEncounterDerivesNothing() {
	enc := models.Encounter{ID: "enc-3", Date: s.day, DiagnosisCodes: []string{"I10"}}
	records, warns := s.registry.Derive(Event{
		Kind: models.EventEncounter, PersonKey: "123-45-6789", Encounter: &enc,
	}, s.graph)
	s.Empty(records)
	s.Empty(warns)
}

func (s *TriggersTestSuite) TestMalformedEncounterWarnsAndContinues() {
	enc := models.Encounter{ID: "enc-4", Date: s.day, ProcedureCodes: []string{"99213"}}
	records, warns := s.registry.Derive(Event{
		Kind: models.EventEncounter, PersonKey: "123-45-6789", Encounter: &enc,
	}, s.graph)
	s.Empty(records)
	s.Require().Len(warns, 1)
	s.Equal("enc-4", warns[0].EventID)
}

func (s *TriggersTestSuite) TestPrescriptionDerivesPharmacyClaim() {
	rx := s.prescription("rx-1", rxMetformin, "Metformin 500mg", s.day)
	records, warns := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Empty(warns)
	s.Require().Len(records, 1)

	claim, ok := records[0].(models.PharmacyClaim)
	s.Require().True(ok)
	s.Equal(rx.NDC, claim.NDC)
	s.Equal(rx.Quantity, claim.Quantity)
	s.Equal(rx.DaysSupply, claim.DaysSupply)
	s.Equal(rx.WrittenDate, claim.ServiceDate)
	s.Equal("rx-1", claim.SourcePrescription)
	s.Greater(claim.IngredientCost, 0.0)
	s.Empty(claim.Alerts)
}

func (s *TriggersTestSuite) TestPrescriptionWithoutNDCWarns() {
	rx := s.prescription("rx-2", rxMetformin, "Metformin 500mg", s.day)
	rx.NDC = ""
	records, warns := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Empty(records)
	s.Require().Len(warns, 1)
	s.Contains(warns[0].Reason, "NDC")
}

func (s *TriggersTestSuite) TestWarfarinAspirinInteraction() {
	patient := s.graph.Patients[0]
	patient.Medications = append(patient.Medications, models.Medication{
		ID: "med-w", PatientID: "pat-1", RxNormCode: rxWarfarin,
		Display: "Warfarin 5mg", DailyDoseMG: 5,
		StartDate: s.day.AddDate(0, 0, -10), DaysSupply: 30,
	})

	rx := s.prescription("rx-3", rxAspirin, "Aspirin 81mg", s.day)
	records, warns := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Empty(warns)
	s.Require().Len(records, 1)

	var interactions []models.DURAlert
	for _, a := range records[0].(models.PharmacyClaim).Alerts {
		if a.Rule == "drug-drug-interaction" {
			interactions = append(interactions, a)
		}
	}
	s.Require().Len(interactions, 1)
	s.GreaterOrEqual(interactions[0].Severity, models.DURModerate)
	s.Equal([]string{rxAspirin, rxWarfarin}, interactions[0].DrugCodes)
}

func (s *TriggersTestSuite) TestTherapeuticDuplication() {
	rxm := s.graph.RxMembers[0]
	rxm.Prescriptions = append(rxm.Prescriptions,
		s.prescription("rx-old", rxMetformin, "Metformin 500mg", s.day.AddDate(0, 0, -30)))

	rx := s.prescription("rx-4", rxMetformin, "Metformin 500mg", s.day.AddDate(0, 0, -5))
	records, _ := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Require().Len(records, 1)

	rules := make(map[string]bool)
	for _, a := range records[0].(models.PharmacyClaim).Alerts {
		rules[a.Rule] = true
	}
	s.True(rules["therapeutic-duplication"])
}

func (s *TriggersTestSuite) TestEarlyRefill() {
	rxm := s.graph.RxMembers[0]
	rxm.Prescriptions = append(rxm.Prescriptions,
		s.prescription("rx-old", rxMetformin, "Metformin 500mg", s.day.AddDate(0, 0, -10)))

	// 10 of 30 days elapsed, well under the 75% threshold.
	rx := s.prescription("rx-5", rxMetformin, "Metformin 500mg", s.day)
	records, _ := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Require().Len(records, 1)

	claim := records[0].(models.PharmacyClaim)
	var refill *models.DURAlert
	for i := range claim.Alerts {
		if claim.Alerts[i].Rule == "early-refill" {
			refill = &claim.Alerts[i]
		}
	}
	s.Require().NotNil(refill)
	s.Equal(models.DURMinor, refill.Severity)
}

func (s *TriggersTestSuite) TestHighDose() {
	rx := s.prescription("rx-6", rxMetformin, "Metformin", s.day)
	ref, ok := s.vocab.ReferenceDose(rxMetformin)
	s.Require().True(ok)
	rx.DailyDoseMG = ref * 3

	records, _ := s.registry.Derive(Event{
		Kind: models.EventPrescription, PersonKey: "123-45-6789", Prescription: &rx,
	}, s.graph)
	s.Require().Len(records, 1)

	rules := make(map[string]models.DURSeverity)
	for _, a := range records[0].(models.PharmacyClaim).Alerts {
		rules[a.Rule] = a.Severity
	}
	s.Equal(models.DURMajor, rules["high-dose"])
}

func (s *TriggersTestSuite) TestDeriveIdentityAppliesInOrder() {
	patient := s.graph.Patients[0]
	patient.Encounters = append(patient.Encounters, models.Encounter{
		ID: "enc-5", PatientID: "pat-1", Date: s.day, Class: "AMB",
		ProviderNPI:    "1234567893",
		DiagnosisCodes: []string{"E11.9"},
		ProcedureCodes: []string{"99214"},
	})
	rxm := s.graph.RxMembers[0]
	rxm.Prescriptions = append(rxm.Prescriptions,
		s.prescription("rx-7", rxMetformin, "Metformin 500mg", s.day))

	warns, err := s.registry.DeriveIdentity(s.graph, "123-45-6789")
	s.Require().NoError(err)
	s.Empty(warns)
	s.Len(s.graph.Members[0].Claims, 1)
	s.Len(rxm.PharmacyClaims, 1)
	s.Require().NoError(s.graph.Verify())
}

func TestTriggersTestSuite(t *testing.T) {
	suite.Run(t, new(TriggersTestSuite))
}

func TestRegisterDuplicatePair(t *testing.T) {
	r := NewRegistry(vocab.MustDefault(), DefaultDURConfig())
	err := r.Register(models.EventEncounter, models.DomainPayer, encounterToClaim)
	require.Error(t, err)
}

func TestChargeForFallback(t *testing.T) {
	assert.Equal(t, 125.00, chargeFor("99213"))
	assert.Equal(t, defaultCharge, chargeFor("00000"))
}
