package gen

import (
	"fmt"
	"math/rand"

	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

var planCodes = map[string]float64{
	"PPO-GOLD":   0.35,
	"PPO-SILVER": 0.30,
	"HMO-STD":    0.25,
	"HDHP":       0.10,
}

// Payer generates the payer-domain view: a member with a coverage window.
// Claims are not generated here; they derive from clinical encounters
// through the trigger layer so both views agree on the underlying event.
type Payer struct {
	vocab *vocab.Vocabulary
}

func NewPayer(v *vocab.Vocabulary) *Payer {
	return &Payer{vocab: v}
}

func (py *Payer) GenerateOne(person *models.Person, p models.Profile, rng *rand.Rand) (*models.Member, error) {
	chooser, err := distribution.NewWeightedChoice(planCodes)
	if err != nil {
		return nil, err
	}

	asOf := p.EffectiveAsOf()
	return &models.Member{
		ID:            newID(rng),
		PersonKey:     person.Key,
		MemberID:      fmt.Sprintf("M%09d", rng.Intn(1000000000)),
		PlanCode:      chooser.Choose(rng),
		GroupNum:      fmt.Sprintf("GRP%05d", rng.Intn(100000)),
		CoverageStart: asOf.AddDate(-1, 0, 0),
		CoverageEnd:   asOf.AddDate(1, 0, 0),
	}, nil
}
