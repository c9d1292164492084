package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
)

// CCDA renders a continuity-of-care document per patient: a header plus
// problems and medications sections.
type CCDA struct{}

func (c *CCDA) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindPatient}
}

type ccdaDocument struct {
	XMLName      xml.Name         `xml:"ClinicalDocument"`
	Xmlns        string           `xml:"xmlns,attr"`
	Title        string           `xml:"title"`
	Effective    ccdaTime         `xml:"effectiveTime"`
	RecordTarget ccdaRecordTarget `xml:"recordTarget"`
	Components   []ccdaSection    `xml:"component>structuredBody>component>section"`
}

type ccdaTime struct {
	Value string `xml:"value,attr"`
}

type ccdaRecordTarget struct {
	PatientRole ccdaPatientRole `xml:"patientRole"`
}

type ccdaPatientRole struct {
	ID      ccdaID      `xml:"id"`
	Addr    ccdaAddr    `xml:"addr"`
	Patient ccdaPatient `xml:"patient"`
}

type ccdaID struct {
	Root      string `xml:"root,attr"`
	Extension string `xml:"extension,attr"`
}

type ccdaAddr struct {
	StreetAddressLine string `xml:"streetAddressLine"`
	City              string `xml:"city"`
	State             string `xml:"state"`
	PostalCode        string `xml:"postalCode"`
}

type ccdaPatient struct {
	Given     string   `xml:"name>given"`
	Family    string   `xml:"name>family"`
	Gender    ccdaCode `xml:"administrativeGenderCode"`
	BirthTime ccdaTime `xml:"birthTime"`
}

type ccdaCode struct {
	Code           string `xml:"code,attr"`
	CodeSystem     string `xml:"codeSystem,attr,omitempty"`
	CodeSystemName string `xml:"codeSystemName,attr,omitempty"`
	DisplayName    string `xml:"displayName,attr,omitempty"`
}

type ccdaSection struct {
	Code    ccdaCode    `xml:"code"`
	Title   string      `xml:"title"`
	Entries []ccdaEntry `xml:"entry"`
}

type ccdaEntry struct {
	Code      ccdaCode `xml:"act>code"`
	Effective ccdaTime `xml:"act>effectiveTime"`
}

const icd10OID = "2.16.840.1.113883.6.90"
const ndcOID = "2.16.840.1.113883.6.69"
const loincOID = "2.16.840.1.113883.6.1"

func (c *CCDA) document(p *models.Patient, person *models.Person) ccdaDocument {
	doc := ccdaDocument{
		Xmlns:     "urn:hl7-org:v3",
		Title:     "Continuity of Care Document",
		Effective: ccdaTime{Value: p.EnrollmentEnd.Format(constants.DateLayoutX12)},
		RecordTarget: ccdaRecordTarget{PatientRole: ccdaPatientRole{
			ID: ccdaID{Root: "urn:synthhealth:mrn", Extension: p.MRN},
			Addr: ccdaAddr{
				StreetAddressLine: person.Address.Line,
				City:              person.Address.City,
				State:             person.Address.State,
				PostalCode:        person.Address.Zip,
			},
			Patient: ccdaPatient{
				Given:     person.GivenName,
				Family:    person.FamilyName,
				Gender:    ccdaCode{Code: string(person.Sex)},
				BirthTime: ccdaTime{Value: person.BirthDate.Format(constants.DateLayoutX12)},
			},
		}},
	}

	problems := ccdaSection{
		Code:  ccdaCode{Code: "11450-4", CodeSystem: loincOID, DisplayName: "Problem List"},
		Title: "Problems",
	}
	for _, dx := range p.Diagnoses {
		problems.Entries = append(problems.Entries, ccdaEntry{
			Code:      ccdaCode{Code: dx.Code, CodeSystem: icd10OID, CodeSystemName: "ICD-10-CM", DisplayName: dx.Display},
			Effective: ccdaTime{Value: dx.OnsetDate.Format(constants.DateLayoutX12)},
		})
	}

	medications := ccdaSection{
		Code:  ccdaCode{Code: "10160-0", CodeSystem: loincOID, DisplayName: "History of Medication Use"},
		Title: "Medications",
	}
	for _, med := range p.Medications {
		medications.Entries = append(medications.Entries, ccdaEntry{
			Code:      ccdaCode{Code: med.NDC, CodeSystem: ndcOID, CodeSystemName: "NDC", DisplayName: med.Display},
			Effective: ccdaTime{Value: med.StartDate.Format(constants.DateLayoutX12)},
		})
	}

	doc.Components = []ccdaSection{problems, medications}
	return doc
}

func (c *CCDA) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(FormatCCDA, c.Accepts(), cfg); err != nil {
		return Output{}, err
	}

	var buf bytes.Buffer
	for _, p := range g.Patients {
		person, ok := g.PersonFor(p.PersonKey)
		if !ok {
			return Output{}, &models.FormatValidationError{
				Format: string(FormatCCDA),
				Msg:    fmt.Sprintf("patient %s has no person", p.ID),
			}
		}
		buf.WriteString(xml.Header)
		enc := xml.NewEncoder(&buf)
		enc.Indent("", "  ")
		if err := enc.Encode(c.document(p, person)); err != nil {
			return Output{}, errors.Wrap(err, "encoding clinical document")
		}
		buf.WriteString("\n")
	}
	return Output{Format: FormatCCDA, ContentType: "application/xml", Data: buf.Bytes()}, nil
}
