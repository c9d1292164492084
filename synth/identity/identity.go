// Package identity produces the root person identities every domain entity
// correlates back to. A correlation key is unique within a generation
// session; cross-session collisions are acceptable and out of scope.
package identity

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	randomdata "github.com/Pallinder/go-randomdata"
	"golang.org/x/text/language"

	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/models"
)

// Fallback sampling bounds when an age constraint leaves a side open.
const (
	defaultAgeMin = 18
	defaultAgeMax = 90
)

// Constraints narrow the demographic space an identity is sampled from.
type Constraints struct {
	AgeRange models.AgeRange
	// SexRatio is the probability of sampling female.
	SexRatio float64
	State    string
	// AsOf anchors age-to-birthdate conversion.
	AsOf time.Time
}

// languageWeights is a small locale table; tags are validated BCP-47.
var languageWeights = map[string]float64{
	"en-US": 0.78,
	"es-US": 0.13,
	"zh-CN": 0.03,
	"vi-VN": 0.02,
	"tl-PH": 0.02,
	"ko-KR": 0.02,
}

var languageChooser *distribution.WeightedChoice

func init() {
	for tag := range languageWeights {
		// A typo here is a programming error, fail loudly at startup.
		language.MustParse(tag)
	}
	var err error
	languageChooser, err = distribution.NewWeightedChoice(languageWeights)
	if err != nil {
		panic(err)
	}
}

// Generator creates identities for one generation session. The session
// counter makes correlation keys unique within the session.
//
// go-randomdata draws from package-level random state, so identity creation
// is serialized; callers generate identities in index order and parallelize
// the per-entity work that follows.
type Generator struct {
	mu      sync.Mutex
	counter int
}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate samples one identity. Contradictory constraints fail fast with a
// ConfigurationError; bounds are never silently swapped.
func (g *Generator) Generate(c Constraints, rng *rand.Rand) (*models.Person, error) {
	if c.AgeRange.Min < 0 || c.AgeRange.Max < 0 {
		return nil, models.NewConfigurationError("age range bounds must be non-negative")
	}
	if c.AgeRange.Max > 0 && c.AgeRange.Min > c.AgeRange.Max {
		return nil, models.NewConfigurationError("age range min %d exceeds max %d", c.AgeRange.Min, c.AgeRange.Max)
	}
	if c.SexRatio < 0 || c.SexRatio > 1 {
		return nil, models.NewConfigurationError("sex ratio %f outside [0,1]", c.SexRatio)
	}

	asOf := c.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.counter++
	randomdata.CustomRand(rng)

	sex := models.SexMale
	gender := randomdata.Male
	if distribution.Bernoulli(rng, c.SexRatio) {
		sex = models.SexFemale
		gender = randomdata.Female
	}

	// Max zero means unbounded above; the caller's Min always stands.
	ageMin, ageMax := c.AgeRange.Min, c.AgeRange.Max
	if ageMax == 0 {
		if ageMin == 0 {
			ageMin = defaultAgeMin
		}
		ageMax = defaultAgeMax
		if ageMax < ageMin {
			ageMax = ageMin
		}
	}
	age := ageMin
	if ageMax > ageMin {
		age += rng.Intn(ageMax - ageMin + 1)
	}
	// Scatter the birthday inside the year so ages don't cluster on the
	// as-of anniversary.
	birthDate := asOf.AddDate(-age, 0, -rng.Intn(365))

	state := c.State
	if state == "" {
		state = randomdata.State(randomdata.Small)
	}

	person := &models.Person{
		Key:        g.key(rng),
		GivenName:  randomdata.FirstName(gender),
		FamilyName: randomdata.LastName(),
		BirthDate:  time.Date(birthDate.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC),
		Sex:        sex,
		Address: models.Address{
			Line:  fmt.Sprintf("%d %s", 100+rng.Intn(9900), randomdata.Street()),
			City:  randomdata.City(),
			State: state,
			Zip:   randomdata.StringNumberExt(1, "", 5),
		},
		Language: languageChooser.Choose(rng),
	}

	return person, nil
}

// key builds the 9-digit dash-grouped correlation key: the session counter
// supplies the low six digits (uniqueness within the session), the rng the
// area prefix.
func (g *Generator) key(rng *rand.Rand) string {
	area := 100 + rng.Intn(800) // avoid 000 and 9xx prefixes
	serial := g.counter % 1000000
	return fmt.Sprintf("%03d-%02d-%04d", area, serial/10000, serial%10000)
}
