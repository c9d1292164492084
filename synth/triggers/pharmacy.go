package triggers

import (
	"fmt"

	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

const dispensingFee = 1.25

// ingredientCost prices a fill from its dose and supply. Plausible and
// reproducible is all the downstream formats need.
func ingredientCost(rx models.Prescription) float64 {
	if rx.DailyDoseMG <= 0 {
		return 0.35 * rx.Quantity
	}
	return 0.02 * rx.DailyDoseMG * float64(rx.DaysSupply)
}

// prescriptionToPharmacyClaim derives a pharmacy claim carrying the fill's
// NDC, quantity, and days supply, then reviews the new drug against the
// identity's full active medication list.
func prescriptionToPharmacyClaim(v *vocab.Vocabulary, cfg DURConfig) Handler {
	return func(ev Event, g *models.EntityGraph) ([]models.Record, []models.DerivationWarning) {
		return derivePharmacyClaim(ev, g, cfg, v)
	}
}

func derivePharmacyClaim(ev Event, g *models.EntityGraph, cfg DURConfig, v *vocab.Vocabulary) ([]models.Record, []models.DerivationWarning) {
	rx := ev.Prescription
	if rx == nil {
		return nil, []models.DerivationWarning{{
			EventKind: ev.Kind,
			EventID:   ev.ID(),
			Reason:    "prescription event carries no prescription",
		}}
	}
	if rx.NDC == "" {
		return nil, []models.DerivationWarning{{
			EventKind: ev.Kind,
			EventID:   rx.ID,
			Reason:    "prescription has no NDC",
		}}
	}
	rxm, ok := g.RxMemberFor(ev.PersonKey)
	if !ok {
		return nil, []models.DerivationWarning{{
			EventKind: ev.Kind,
			EventID:   rx.ID,
			Reason:    "no pharmacy member for prescription's person",
		}}
	}

	// Review against everything the identity already has, from any domain,
	// excluding the fill being adjudicated.
	var existing []models.Medication
	for _, med := range g.MedicationsFor(ev.PersonKey) {
		if med.ID == rx.ID {
			continue
		}
		existing = append(existing, med)
	}

	claim := models.PharmacyClaim{
		ID:                 fmt.Sprintf("phc-%s", rx.ID),
		RxMemberID:         rxm.ID,
		PersonKey:          ev.PersonKey,
		NDC:                rx.NDC,
		Quantity:           rx.Quantity,
		DaysSupply:         rx.DaysSupply,
		ServiceDate:        rx.WrittenDate,
		PrescriberNPI:      rx.PrescriberNPI,
		IngredientCost:     ingredientCost(*rx),
		DispensingFee:      dispensingFee,
		SourcePrescription: rx.ID,
		Alerts:             EvaluateDUR(*rx, existing, v, cfg),
	}
	return []models.Record{claim}, nil
}
