package formats

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/fhirmodel"
	"github.com/synthhealth/datasynth/synth/models"
)

const systemCorrelation = "urn:synthhealth:correlation"

// FHIR renders the graph as one R4 collection Bundle. Logical IDs reuse the
// canonical record IDs so references stay stable across runs.
type FHIR struct{}

func (f *FHIR) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindPatient, models.KindMember, models.KindSubject}
}

func fhirDate(t interface{ Format(string) string }) string {
	return t.Format(constants.DateLayoutFHIR)
}

func fhirSex(s models.Sex) string {
	if s == models.SexFemale {
		return "female"
	}
	return "male"
}

// patientRef resolves the Patient logical ID for a correlation key so every
// reference lands on the bundle's Patient entry. Without the clinical domain
// there is no Patient resource, and the reference degrades to the
// correlation identifier.
func patientRef(g *models.EntityGraph, key string) *fhirmodel.Reference {
	if p, ok := g.PatientFor(key); ok {
		return &fhirmodel.Reference{Reference: "Patient/" + p.ID}
	}
	return &fhirmodel.Reference{Identifier: &fhirmodel.Identifier{
		Use: "official", System: systemCorrelation, Value: key,
	}}
}

// practitionerRef identifies a provider by NPI. Practitioners are never
// materialized as resources, so the reference is identifier-only.
func practitionerRef(npi string) *fhirmodel.Reference {
	return &fhirmodel.Reference{Identifier: &fhirmodel.Identifier{
		System: constants.SystemNPI, Value: npi,
	}}
}

func icd10Concept(code, display string) *fhirmodel.CodeableConcept {
	return &fhirmodel.CodeableConcept{
		Coding: []fhirmodel.Coding{{System: constants.SystemICD10CM, Code: code, Display: display}},
		Text:   display,
	}
}

func (f *FHIR) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	kinds, err := requestedKinds(FormatFHIR, f.Accepts(), cfg)
	if err != nil {
		return Output{}, err
	}

	bundle := fhirmodel.Bundle{ResourceType: "Bundle", Type: "collection"}
	add := func(id string, res interface{}) {
		bundle.Entry = append(bundle.Entry, fhirmodel.BundleEntry{
			FullURL:  "urn:uuid:" + id,
			Resource: res,
		})
	}

	if kinds[models.KindPatient] {
		for _, p := range g.Patients {
			person, ok := g.PersonFor(p.PersonKey)
			if !ok {
				return Output{}, &models.FormatValidationError{
					Format: string(FormatFHIR),
					Msg:    fmt.Sprintf("patient %s has no person", p.ID),
				}
			}
			f.addPatient(add, p, person)
		}
	}
	if kinds[models.KindMember] {
		for _, m := range g.Members {
			for _, c := range m.Claims {
				add(c.ID, f.claim(g, c))
			}
		}
	}
	if kinds[models.KindSubject] {
		for _, s := range g.Subjects {
			f.addSubject(add, g, s)
		}
	}

	bundle.Total = len(bundle.Entry)
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return Output{}, errors.Wrap(err, "marshaling bundle")
	}
	return Output{Format: FormatFHIR, ContentType: "application/fhir+json", Data: data}, nil
}

func (f *FHIR) addPatient(add func(string, interface{}), p *models.Patient, person *models.Person) {
	patient := fhirmodel.Patient{
		ResourceType: "Patient",
		ID:           p.ID,
		Active:       true,
		Identifier: []fhirmodel.Identifier{
			{Use: "usual", System: "urn:synthhealth:mrn", Value: p.MRN},
			{Use: "official", System: systemCorrelation, Value: person.Key},
		},
		Name: []fhirmodel.HumanName{{
			Use:    "official",
			Family: person.FamilyName,
			Given:  []string{person.GivenName},
		}},
		Gender:    fhirSex(person.Sex),
		BirthDate: fhirDate(person.BirthDate),
		Address: []fhirmodel.Address{{
			Use:        "home",
			Line:       []string{person.Address.Line},
			City:       person.Address.City,
			State:      person.Address.State,
			PostalCode: person.Address.Zip,
		}},
	}
	if person.Language != "" {
		patient.Communication = []fhirmodel.PatientCommunication{{
			Language: fhirmodel.CodeableConcept{
				Coding: []fhirmodel.Coding{{System: "urn:ietf:bcp:47", Code: person.Language}},
			},
			Preferred: true,
		}}
	}
	add(p.ID, patient)

	subject := &fhirmodel.Reference{Reference: "Patient/" + p.ID}

	for _, dx := range p.Diagnoses {
		add(dx.ID, fhirmodel.Condition{
			ResourceType: "Condition",
			ID:           dx.ID,
			ClinicalStatus: &fhirmodel.CodeableConcept{
				Coding: []fhirmodel.Coding{{
					System: "http://terminology.hl7.org/CodeSystem/condition-clinical",
					Code:   "active",
				}},
			},
			Code:          icd10Concept(dx.Code, dx.Display),
			Subject:       subject,
			OnsetDateTime: fhirDate(dx.OnsetDate),
		})
	}
	for _, enc := range p.Encounters {
		add(enc.ID, fhirmodel.Encounter{
			ResourceType: "Encounter",
			ID:           enc.ID,
			Status:       "finished",
			Class: &fhirmodel.Coding{
				System: "http://terminology.hl7.org/CodeSystem/v3-ActCode",
				Code:   enc.Class,
			},
			Subject: subject,
			Period:  &fhirmodel.Period{Start: fhirDate(enc.Date), End: fhirDate(enc.Date)},
			Participant: []fhirmodel.Participant{{
				Individual: practitionerRef(enc.ProviderNPI),
			}},
		})
	}
	for _, med := range p.Medications {
		add(med.ID, fhirmodel.MedicationRequest{
			ResourceType: "MedicationRequest",
			ID:           med.ID,
			Status:       "active",
			Intent:       "order",
			MedicationCodeableConcept: &fhirmodel.CodeableConcept{
				Coding: []fhirmodel.Coding{
					{System: constants.SystemRxNorm, Code: med.RxNormCode, Display: med.Display},
					{System: constants.SystemNDC, Code: med.NDC},
				},
				Text: med.Display,
			},
			Subject:    subject,
			AuthoredOn: fhirDate(med.StartDate),
			DispenseRequest: &fhirmodel.DispenseRequest{
				ExpectedSupplyDuration: &fhirmodel.Quantity{
					Value: float64(med.DaysSupply), Unit: "days", Code: "d",
					System: "http://unitsofmeasure.org",
				},
			},
		})
	}
	for _, obs := range p.Observations {
		add(obs.ID, fhirmodel.Observation{
			ResourceType: "Observation",
			ID:           obs.ID,
			Status:       "final",
			Code: &fhirmodel.CodeableConcept{
				Coding: []fhirmodel.Coding{{System: constants.SystemLOINC, Code: obs.LoincCode, Display: obs.Display}},
			},
			Subject:           subject,
			EffectiveDateTime: fhirDate(obs.Date),
			ValueQuantity:     &fhirmodel.Quantity{Value: obs.Value, Unit: obs.Unit},
		})
	}
}

func (f *FHIR) claim(g *models.EntityGraph, c models.Claim) fhirmodel.Claim {
	claimType := "professional"
	if c.Institutional {
		claimType = "institutional"
	}
	claim := fhirmodel.Claim{
		ResourceType: "Claim",
		ID:           c.ID,
		Status:       "active",
		Use:          "claim",
		Type: &fhirmodel.CodeableConcept{
			Coding: []fhirmodel.Coding{{
				System: "http://terminology.hl7.org/CodeSystem/claim-type",
				Code:   claimType,
			}},
		},
		Patient:  patientRef(g, c.PersonKey),
		Created:  fhirDate(c.ServiceDate),
		Provider: practitionerRef(c.ProviderNPI),
		Total:    &fhirmodel.Money{Value: c.TotalCharge, Currency: "USD"},
	}
	for i, code := range c.DiagnosisCodes {
		claim.Diagnosis = append(claim.Diagnosis, fhirmodel.ClaimDiagnosis{
			Sequence:                 i + 1,
			DiagnosisCodeableConcept: *icd10Concept(code, ""),
		})
	}
	for _, line := range c.Lines {
		claim.Item = append(claim.Item, fhirmodel.ClaimItem{
			Sequence:          line.Number,
			DiagnosisSequence: line.DiagnosisPointers,
			ProductOrService: fhirmodel.CodeableConcept{
				Coding: []fhirmodel.Coding{{System: constants.SystemCPT, Code: line.ProcedureCode}},
			},
			ServicedDate: fhirDate(c.ServiceDate),
			Net:          &fhirmodel.Money{Value: line.Charge, Currency: "USD"},
		})
	}
	return claim
}

func (f *FHIR) addSubject(add func(string, interface{}), g *models.EntityGraph, s *models.Subject) {
	add(s.ID, fhirmodel.ResearchSubject{
		ResourceType: "ResearchSubject",
		ID:           s.ID,
		Status:       "on-study",
		Identifier:   []fhirmodel.Identifier{{Use: "official", System: "urn:synthhealth:usubjid", Value: s.USubjID}},
		Study:        &fhirmodel.Reference{Reference: "ResearchStudy/" + s.StudyID},
		Individual:   patientRef(g, s.PersonKey),
		ActualArm:    s.Arm,
		Period:       &fhirmodel.Period{Start: fhirDate(s.EnrolledAt)},
	})
	for _, ae := range s.AdverseEvents {
		add(ae.ID, fhirmodel.AdverseEvent{
			ResourceType: "AdverseEvent",
			ID:           ae.ID,
			Actuality:    "actual",
			Event:        &fhirmodel.CodeableConcept{Text: ae.Term},
			Subject:      &fhirmodel.Reference{Reference: "ResearchSubject/" + s.ID},
			Date:         fhirDate(ae.StartDate),
			Severity:     &fhirmodel.CodeableConcept{Text: ae.Severity},
		})
	}
}
