package formats

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
)

// NCPDP telecommunication separators.
const (
	ncpdpSegmentSep = "\x1e"
	ncpdpGroupSep   = "\x1d"
	ncpdpFieldSep   = "\x1c"
)

// NCPDPD0 renders telecommunication D.0 transactions per pharmacy claim:
// B1 billing carries a pricing segment, B2 reversal must not.
type NCPDPD0 struct{}

func (n *NCPDPD0) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindRxMember}
}

type ncpdpSegment struct {
	id     string
	fields [][2]string
}

func (s *ncpdpSegment) add(fieldID, value string) {
	s.fields = append(s.fields, [2]string{fieldID, value})
}

func (s *ncpdpSegment) render(buf *bytes.Buffer) {
	buf.WriteString(ncpdpSegmentSep)
	buf.WriteString(ncpdpFieldSep)
	buf.WriteString("AM")
	buf.WriteString(s.id)
	for _, f := range s.fields {
		buf.WriteString(ncpdpFieldSep)
		buf.WriteString(f[0])
		buf.WriteString(f[1])
	}
}

func (n *NCPDPD0) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(FormatNCPDPD0, n.Accepts(), cfg); err != nil {
		return Output{}, err
	}
	transaction := cfg.NCPDPTransaction
	if transaction == "" {
		transaction = "B1"
	}
	if transaction != "B1" && transaction != "B2" {
		return Output{}, &models.FormatValidationError{
			Format: string(FormatNCPDPD0),
			Msg:    fmt.Sprintf("unknown transaction code %q", transaction),
		}
	}

	var buf bytes.Buffer
	for _, m := range g.RxMembers {
		for _, claim := range m.PharmacyClaims {
			// Transaction header is fixed format, not a segment.
			buf.WriteString(m.BIN)
			buf.WriteString("D0")
			buf.WriteString(transaction)
			buf.WriteString(m.PCN)

			insurance := ncpdpSegment{id: "04"}
			insurance.add("C2", m.CardholderID)
			insurance.render(&buf)

			cl := ncpdpSegment{id: "07"}
			cl.add("EM", "1")
			cl.add("D2", claim.SourcePrescription)
			cl.add("D7", claim.NDC)
			cl.add("E7", fmt.Sprintf("%.0f", claim.Quantity))
			cl.add("D5", fmt.Sprintf("%d", claim.DaysSupply))
			cl.add("D8", claim.PrescriberNPI)
			cl.add("D9", claim.ServiceDate.Format(constants.DateLayoutX12))
			cl.render(&buf)

			// DUR/PPS segment carries the review outcomes.
			if len(claim.Alerts) > 0 {
				dur := ncpdpSegment{id: "08"}
				for _, alert := range claim.Alerts {
					dur.add("E4", durReasonCode(alert.Rule))
					dur.add("E5", durSeverityCode(alert.Severity))
				}
				dur.render(&buf)
			}

			// Pricing belongs to billing only; a reversal carrying pricing
			// is structurally invalid.
			if transaction == "B1" {
				pricing := ncpdpSegment{id: "11"}
				pricing.add("D9", fmt.Sprintf("%.2f", claim.IngredientCost))
				pricing.add("DC", fmt.Sprintf("%.2f", claim.DispensingFee))
				pricing.add("DQ", fmt.Sprintf("%.2f", claim.IngredientCost+claim.DispensingFee))
				pricing.render(&buf)
			}

			buf.WriteString(ncpdpGroupSep)
			buf.WriteString("\n")
		}
	}
	return Output{Format: FormatNCPDPD0, ContentType: "application/x-ncpdp", Data: buf.Bytes()}, nil
}

// NCPDP reason-for-service codes for the review rules.
func durReasonCode(rule string) string {
	switch rule {
	case "drug-drug-interaction":
		return "DD"
	case "therapeutic-duplication":
		return "TD"
	case "early-refill":
		return "ER"
	case "high-dose":
		return "HD"
	}
	return "NS"
}

func durSeverityCode(s models.DURSeverity) string {
	switch s {
	case models.DURMajor:
		return "1"
	case models.DURModerate:
		return "2"
	}
	return "3"
}

// NCPDPScript renders a SCRIPT NewRx XML message per prescription.
type NCPDPScript struct{}

func (n *NCPDPScript) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindRxMember}
}

type scriptMessage struct {
	XMLName xml.Name     `xml:"Message"`
	Header  scriptHeader `xml:"Header"`
	Body    scriptNewRx  `xml:"Body>NewRx"`
}

type scriptHeader struct {
	To        string `xml:"To"`
	From      string `xml:"From"`
	MessageID string `xml:"MessageID"`
	SentTime  string `xml:"SentTime"`
}

type scriptNewRx struct {
	Patient    scriptPatient    `xml:"Patient"`
	Prescriber scriptPrescriber `xml:"Prescriber"`
	Medication scriptMedication `xml:"MedicationPrescribed"`
}

type scriptPatient struct {
	LastName  string `xml:"Name>LastName"`
	FirstName string `xml:"Name>FirstName"`
	Gender    string `xml:"Gender"`
	BirthDate string `xml:"DateOfBirth>Date"`
}

type scriptPrescriber struct {
	NPI string `xml:"Identification>NPI"`
}

type scriptMedication struct {
	DrugDescription string  `xml:"DrugDescription"`
	NDC             string  `xml:"DrugCoded>ProductCode>Code"`
	Quantity        float64 `xml:"Quantity>Value"`
	DaysSupply      int     `xml:"DaysSupply"`
	WrittenDate     string  `xml:"WrittenDate>Date"`
}

func (n *NCPDPScript) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(FormatNCPDPScript, n.Accepts(), cfg); err != nil {
		return Output{}, err
	}

	var buf bytes.Buffer
	for _, m := range g.RxMembers {
		person, ok := g.PersonFor(m.PersonKey)
		if !ok {
			return Output{}, &models.FormatValidationError{
				Format: string(FormatNCPDPScript),
				Msg:    fmt.Sprintf("rx member %s has no person", m.ID),
			}
		}
		for _, rx := range m.Prescriptions {
			msg := scriptMessage{
				Header: scriptHeader{
					To:        "PHARMACY",
					From:      rx.PrescriberNPI,
					MessageID: rx.ID,
					SentTime:  rx.WrittenDate.Format("2006-01-02T15:04:05"),
				},
				Body: scriptNewRx{
					Patient: scriptPatient{
						LastName:  person.FamilyName,
						FirstName: person.GivenName,
						Gender:    string(person.Sex),
						BirthDate: person.BirthDate.Format(constants.DateLayoutFHIR),
					},
					Prescriber: scriptPrescriber{NPI: rx.PrescriberNPI},
					Medication: scriptMedication{
						DrugDescription: rx.Display,
						NDC:             rx.NDC,
						Quantity:        rx.Quantity,
						DaysSupply:      rx.DaysSupply,
						WrittenDate:     rx.WrittenDate.Format(constants.DateLayoutFHIR),
					},
				},
			}
			buf.WriteString(xml.Header)
			enc := xml.NewEncoder(&buf)
			enc.Indent("", "  ")
			if err := enc.Encode(msg); err != nil {
				return Output{}, errors.Wrap(err, "encoding NewRx")
			}
			buf.WriteString("\n")
		}
	}
	return Output{Format: FormatNCPDPScript, ContentType: "application/xml", Data: buf.Bytes()}, nil
}
