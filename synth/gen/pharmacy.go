package gen

import (
	"fmt"
	"math/rand"

	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// Pharmacy generates the pharmacy-benefit view: an rx member with
// prescriptions for the identity's conditions. Pharmacy claims are not
// generated here; they derive from prescriptions through the trigger layer,
// which also runs DUR screening.
type Pharmacy struct {
	vocab *vocab.Vocabulary
}

func NewPharmacy(v *vocab.Vocabulary) *Pharmacy {
	return &Pharmacy{vocab: v}
}

func (ph *Pharmacy) GenerateOne(person *models.Person, conditions []string,
	p models.Profile, prescriberNPI string, rng *rand.Rand) (*models.RxMember, error) {

	asOf := p.EffectiveAsOf()
	member := &models.RxMember{
		ID:           newID(rng),
		PersonKey:    person.Key,
		CardholderID: fmt.Sprintf("RX%09d", rng.Intn(1000000000)),
		BIN:          "610014",
		PCN:          "SYNTH",
	}

	windowStart := asOf.AddDate(-1, 0, 0)
	for _, cond := range conditions {
		opts := ph.vocab.Treatments[cond]
		if len(opts) == 0 {
			continue
		}

		weights := make(map[string]float64, len(opts))
		byCode := make(map[string]vocab.Treatment, len(opts))
		for _, t := range opts {
			weights[t.RxNorm] = t.Weight
			byCode[t.RxNorm] = t
		}
		chooser, err := distribution.NewWeightedChoice(weights)
		if err != nil {
			return nil, err
		}
		t := byCode[chooser.Choose(rng)]

		// Quantity follows dosing: one unit per day of supply.
		member.Prescriptions = append(member.Prescriptions, models.Prescription{
			ID:            newID(rng),
			RxMemberID:    member.ID,
			PersonKey:     person.Key,
			NDC:           t.NDC,
			RxNormCode:    t.RxNorm,
			Display:       t.Display,
			Quantity:      float64(t.DaysSupply),
			DaysSupply:    t.DaysSupply,
			DailyDoseMG:   t.DailyDoseMG,
			WrittenDate:   dateIn(rng, windowStart, asOf),
			PrescriberNPI: prescriberNPI,
		})
	}

	return member, nil
}

// RefillOf builds a refill of an existing prescription, dated the given
// number of days after the original fill. Used to exercise refill-timing
// scenarios.
func RefillOf(orig models.Prescription, daysAfter int, rng *rand.Rand) models.Prescription {
	refill := orig
	refill.ID = newID(rng)
	refill.WrittenDate = orig.WrittenDate.AddDate(0, 0, daysAfter)
	return refill
}
