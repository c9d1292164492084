package triggers

import (
	"fmt"

	"github.com/synthhealth/datasynth/synth/models"
)

// Professional fee schedule by procedure code. Codes off the schedule bill at
// the default rate; amounts only need to be plausible and reproducible.
var cptCharges = map[string]float64{
	"99213": 125.00,
	"99214": 185.00,
	"99215": 245.00,
	"99285": 620.00,
	"99223": 410.00,
	"80053": 48.50,
	"83036": 37.25,
	"80061": 42.00,
	"93000": 55.00,
	"94010": 88.00,
}

const defaultCharge = 150.00

func chargeFor(cpt string) float64 {
	if c, ok := cptCharges[cpt]; ok {
		return c
	}
	return defaultCharge
}

// encounterToClaim derives a payer claim from a billable encounter. The
// service date, provider NPI, and diagnosis codes carry over unchanged;
// procedure codes become claim lines pointing at every claim diagnosis.
func encounterToClaim(ev Event, g *models.EntityGraph) ([]models.Record, []models.DerivationWarning) {
	enc := ev.Encounter
	if enc == nil {
		return nil, []models.DerivationWarning{{
			EventKind: ev.Kind,
			EventID:   ev.ID(),
			Reason:    "encounter event carries no encounter",
		}}
	}
	if len(enc.ProcedureCodes) == 0 {
		// Nothing billable, nothing to derive.
		return nil, nil
	}
	if len(enc.DiagnosisCodes) == 0 {
		return nil, []models.DerivationWarning{{
			EventKind: ev.Kind,
			EventID:   enc.ID,
			Reason:    "billable encounter has no diagnosis codes",
		}}
	}
	member, ok := g.MemberFor(ev.PersonKey)
	if !ok {
		// The person carries no payer coverage; no claim to file.
		return nil, nil
	}

	pointers := make([]int, len(enc.DiagnosisCodes))
	for i := range pointers {
		pointers[i] = i + 1
	}

	claim := models.Claim{
		ID:                fmt.Sprintf("clm-%s", enc.ID),
		MemberID:          member.MemberID,
		PersonKey:         ev.PersonKey,
		ServiceDate:       enc.Date,
		ProviderNPI:       enc.ProviderNPI,
		Institutional:     enc.Class == "IMP",
		DiagnosisCodes:    append([]string(nil), enc.DiagnosisCodes...),
		SourceEncounterID: enc.ID,
	}
	for i, cpt := range enc.ProcedureCodes {
		line := models.ClaimLine{
			Number:            i + 1,
			ProcedureCode:     cpt,
			Charge:            chargeFor(cpt),
			DiagnosisPointers: append([]int(nil), pointers...),
		}
		claim.Lines = append(claim.Lines, line)
		claim.TotalCharge += line.Charge
	}
	return []models.Record{claim}, nil
}
