package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
)

// Transaction selects the X12 transaction set a transformer instance emits.
type Transaction string

const (
	Transaction837P Transaction = "837P"
	Transaction837I Transaction = "837I"
	Transaction835  Transaction = "835"
	Transaction834  Transaction = "834"
)

// X12 renders EDI transaction sets inside a full ISA/GS envelope. Loop
// structure is fixed per transaction type; delimiters come from the config.
type X12 struct {
	Transaction Transaction
}

func (x *X12) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindMember}
}

func (x *X12) format() Format {
	switch x.Transaction {
	case Transaction837I:
		return FormatX12837I
	case Transaction835:
		return FormatX12835
	case Transaction834:
		return FormatX12834
	}
	return FormatX12837P
}

// ediWriter accumulates segments and closes the envelope with correct
// SE/GE/IEA counts.
type ediWriter struct {
	cfg      Config
	segments []string
	stIndex  int // segment index of the open ST
	setCount int
}

func (w *ediWriter) seg(elements ...string) {
	w.segments = append(w.segments, strings.Join(elements, w.cfg.elementSep()))
}

func (w *ediWriter) isa(controlNumber string) {
	// ISA elements are fixed width.
	w.seg("ISA", "00", strings.Repeat(" ", 10), "00", strings.Repeat(" ", 10),
		"ZZ", pad("DATASYNTH", 15), "ZZ", pad("RECEIVER", 15),
		"250101", "0000", "^", "00501", controlNumber, "0", "P", w.cfg.componentSep())
}

func (w *ediWriter) gs(functionalCode, controlNumber string) {
	w.seg("GS", functionalCode, "DATASYNTH", "RECEIVER", "20250101", "0000",
		controlNumber, "X", "005010")
}

func (w *ediWriter) st(transaction, controlNumber string) {
	w.stIndex = len(w.segments)
	w.seg("ST", transaction, controlNumber)
}

func (w *ediWriter) se(controlNumber string) {
	count := len(w.segments) - w.stIndex + 1 // ST through SE inclusive
	w.seg("SE", fmt.Sprintf("%d", count), controlNumber)
	w.setCount++
}

func (w *ediWriter) close(groupControl, interchangeControl string) {
	w.seg("GE", fmt.Sprintf("%d", w.setCount), groupControl)
	w.seg("IEA", "1", interchangeControl)
}

func (w *ediWriter) bytes() []byte {
	var buf bytes.Buffer
	for _, s := range w.segments {
		buf.WriteString(s)
		buf.WriteString(w.cfg.segmentTerm())
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}

func x12Date(layoutless interface{ Format(string) string }) string {
	return layoutless.Format(constants.DateLayoutX12)
}

func (x *X12) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(x.format(), x.Accepts(), cfg); err != nil {
		return Output{}, err
	}

	w := &ediWriter{cfg: cfg}
	const interchangeControl = "000000001"
	const groupControl = "1"
	w.isa(interchangeControl)

	switch x.Transaction {
	case Transaction837P, Transaction837I:
		w.gs("HC", groupControl)
		x.writeClaims(w, g)
	case Transaction835:
		w.gs("HP", groupControl)
		x.writeRemittances(w, g)
	case Transaction834:
		w.gs("BE", groupControl)
		x.writeEnrollment(w, g)
	}

	w.close(groupControl, interchangeControl)
	return Output{Format: x.format(), ContentType: "application/edi-x12", Data: w.bytes()}, nil
}

// writeClaims emits one transaction set per claim matching the professional
// or institutional variant.
func (x *X12) writeClaims(w *ediWriter, g *models.EntityGraph) {
	institutional := x.Transaction == Transaction837I
	set := 0
	for _, m := range g.Members {
		person, _ := g.PersonFor(m.PersonKey)
		for _, c := range m.Claims {
			if c.Institutional != institutional {
				continue
			}
			set++
			control := fmt.Sprintf("%04d", set)
			w.st("837", control)
			w.seg("BHT", "0019", "00", c.ID, x12Date(c.ServiceDate), "0000", "CH")
			// 2000A billing provider loop
			w.seg("HL", "1", "", "20", "1")
			w.seg("NM1", "85", "2", "DATASYNTH BILLING", "", "", "", "", "XX", c.ProviderNPI)
			// 2000B subscriber loop
			w.seg("HL", "2", "1", "22", "0")
			w.seg("SBR", "P", "18", m.GroupNum, "", "", "", "", "", "CI")
			if person != nil {
				w.seg("NM1", "IL", "1", person.FamilyName, person.GivenName, "", "", "", "MI", m.MemberID)
				w.seg("DMG", "D8", x12Date(person.BirthDate), string(person.Sex))
			}
			// 2300 claim loop
			facilityCode := "11"
			if institutional {
				facilityCode = "21"
			}
			w.seg("CLM", c.ID, money(c.TotalCharge), "", "",
				facilityCode+w.cfg.componentSep()+"B"+w.cfg.componentSep()+"1", "Y", "A", "Y", "Y")
			if institutional {
				w.seg("CL1", "3", "1", "01")
			}
			hi := []string{"HI"}
			for i, dx := range c.DiagnosisCodes {
				qualifier := "ABF"
				if i == 0 {
					qualifier = "ABK"
				}
				hi = append(hi, qualifier+w.cfg.componentSep()+strings.ReplaceAll(dx, ".", ""))
			}
			w.seg(hi...)
			// 2400 service lines
			for _, line := range c.Lines {
				w.seg("LX", fmt.Sprintf("%d", line.Number))
				pointers := make([]string, len(line.DiagnosisPointers))
				for i, ptr := range line.DiagnosisPointers {
					pointers[i] = fmt.Sprintf("%d", ptr)
				}
				svc := "HC" + w.cfg.componentSep() + line.ProcedureCode
				if institutional {
					w.seg("SV2", "0300", svc, money(line.Charge), "UN", "1")
				} else {
					w.seg("SV1", svc, money(line.Charge), "UN", "1", "", "",
						strings.Join(pointers, w.cfg.componentSep()))
				}
				w.seg("DTP", "472", "D8", x12Date(c.ServiceDate))
			}
			w.se(control)
		}
	}
}

// 835 payment rate applied uniformly; remittance only needs internally
// consistent charge/paid arithmetic.
const paidRate = 0.8

func (x *X12) writeRemittances(w *ediWriter, g *models.EntityGraph) {
	var total float64
	var claims []models.Claim
	for _, m := range g.Members {
		for _, c := range m.Claims {
			claims = append(claims, c)
			total += c.TotalCharge * paidRate
		}
	}

	const control = "0001"
	w.st("835", control)
	w.seg("BPR", "I", money(total), "C", "ACH", "CCP")
	w.seg("TRN", "1", "REMIT-0001", "1999999999")
	w.seg("N1", "PR", "DATASYNTH PAYER")
	w.seg("N1", "PE", "DATASYNTH BILLING", "XX", "1999999984")
	for _, c := range claims {
		w.seg("CLP", c.ID, "1", money(c.TotalCharge), money(c.TotalCharge*paidRate),
			"", "12", c.SourceEncounterID)
		for _, line := range c.Lines {
			w.seg("SVC", "HC"+w.cfg.componentSep()+line.ProcedureCode,
				money(line.Charge), money(line.Charge*paidRate))
			w.seg("DTM", "472", x12Date(c.ServiceDate))
		}
	}
	w.se(control)
}

func (x *X12) writeEnrollment(w *ediWriter, g *models.EntityGraph) {
	const control = "0001"
	w.st("834", control)
	w.seg("BGN", "00", "ENROLL-0001", "20250101", "0000", "", "", "", "4")
	w.seg("N1", "P5", "DATASYNTH SPONSOR", "FI", "999999999")
	w.seg("N1", "IN", "DATASYNTH PAYER", "FI", "999999998")
	for _, m := range g.Members {
		person, _ := g.PersonFor(m.PersonKey)
		w.seg("INS", "Y", "18", "030", "", "A")
		w.seg("REF", "0F", m.MemberID)
		if person != nil {
			w.seg("NM1", "IL", "1", person.FamilyName, person.GivenName)
			w.seg("DMG", "D8", x12Date(person.BirthDate), string(person.Sex))
		}
		w.seg("HD", "030", "", "HLT", m.PlanCode)
		w.seg("DTP", "348", "D8", x12Date(m.CoverageStart))
	}
	w.se(control)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
