package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
)

// HL7v2 renders ADT^A01 admit messages per patient and RDE^O11 pharmacy
// order messages per prescription. Segments are pipe-delimited with the
// standard carriage-return terminator.
type HL7v2 struct{}

func (h *HL7v2) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindPatient, models.KindRxMember}
}

const hl7SendingApp = "DATASYNTH"
const hl7Version = "2.5.1"

func hl7Name(p *models.Person) string {
	return fmt.Sprintf("%s^%s", p.FamilyName, p.GivenName)
}

func hl7Sex(s models.Sex) string { return string(s) }

func msh(messageType, controlID, timestamp string) string {
	fields := []string{
		"MSH", "^~\\&", hl7SendingApp, "FACILITY", "RECEIVER", "FACILITY",
		timestamp, "", messageType, controlID, "P", hl7Version,
	}
	// MSH-1 is the field separator itself; the first join seam supplies it.
	return strings.Join(fields, "|")
}

func pid(person *models.Person, identifier string) string {
	addr := fmt.Sprintf("%s^^%s^%s^%s", person.Address.Line, person.Address.City,
		person.Address.State, person.Address.Zip)
	fields := []string{
		"PID", "1", "", identifier, "", hl7Name(person), "",
		person.BirthDate.Format("20060102"), hl7Sex(person.Sex), "", "", addr,
	}
	return strings.Join(fields, "|")
}

func (h *HL7v2) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	kinds, err := requestedKinds(FormatHL7v2, h.Accepts(), cfg)
	if err != nil {
		return Output{}, err
	}

	var buf bytes.Buffer
	writeSeg := func(seg string) {
		buf.WriteString(seg)
		buf.WriteString("\r")
	}

	if kinds[models.KindPatient] {
		for _, p := range g.Patients {
			person, ok := g.PersonFor(p.PersonKey)
			if !ok {
				return Output{}, &models.FormatValidationError{
					Format: string(FormatHL7v2),
					Msg:    fmt.Sprintf("patient %s has no person", p.ID),
				}
			}
			ts := p.EnrollmentStart.Format(constants.DateLayoutHL7)
			writeSeg(msh("ADT^A01", "ADT-"+p.ID, ts))
			writeSeg(pid(person, p.MRN))
			pv1 := strings.Join([]string{
				"PV1", "1", "O", "", "", "", "", "", "", "", "", "", "", "", "", "", "", "",
			}, "|")
			writeSeg(pv1)
			for i, dx := range p.Diagnoses {
				dg1 := strings.Join([]string{
					"DG1", fmt.Sprintf("%d", i+1), "I10",
					fmt.Sprintf("%s^%s^I10", dx.Code, dx.Display),
					dx.Display, dx.OnsetDate.Format(constants.DateLayoutHL7),
				}, "|")
				writeSeg(dg1)
			}
		}
	}

	if kinds[models.KindRxMember] {
		for _, m := range g.RxMembers {
			person, ok := g.PersonFor(m.PersonKey)
			if !ok {
				return Output{}, &models.FormatValidationError{
					Format: string(FormatHL7v2),
					Msg:    fmt.Sprintf("rx member %s has no person", m.ID),
				}
			}
			for _, rx := range m.Prescriptions {
				ts := rx.WrittenDate.Format(constants.DateLayoutHL7)
				writeSeg(msh("RDE^O11", "RDE-"+rx.ID, ts))
				writeSeg(pid(person, m.CardholderID))
				rxe := strings.Join([]string{
					"RXE", "", fmt.Sprintf("%s^%s^NDC", rx.NDC, rx.Display),
					fmt.Sprintf("%g", rx.Quantity), "", "TAB", "", "", "", "",
					fmt.Sprintf("%d", rx.DaysSupply),
				}, "|")
				writeSeg(rxe)
			}
		}
	}

	return Output{Format: FormatHL7v2, ContentType: "application/hl7-v2", Data: buf.Bytes()}, nil
}
