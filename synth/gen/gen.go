// Package gen holds the per-domain entity generators and the deterministic
// parallel batch runner that drives them.
package gen

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/pborman/uuid"
	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/log"
	"github.com/synthhealth/datasynth/synth/distribution"
	"github.com/synthhealth/datasynth/synth/identity"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// subseed derives a per-entity seed from the batch seed and entity index so
// batch output is reproducible regardless of execution order. SplitMix64
// finalizer keeps neighboring indices uncorrelated.
func subseed(seed int64, index int) int64 {
	z := uint64(seed) + (uint64(index)+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}

// newNPI builds a plausible 10-digit provider identifier.
func newNPI(rng *rand.Rand) string {
	return fmt.Sprintf("1%09d", rng.Intn(1000000000))
}

// dateIn samples a day inside [start, end).
func dateIn(rng *rand.Rand, start, end time.Time) time.Time {
	days := int(end.Sub(start).Hours() / 24)
	if days <= 0 {
		return start
	}
	return start.AddDate(0, 0, rng.Intn(days))
}

// assignConditions samples the identity's condition set from the profile's
// prevalence table, then assigns comorbidities. Each comorbidity is an
// independent Bernoulli draw conditional only on its primary condition; this
// is a documented simplification, not a joint model.
func assignConditions(p models.Profile, v *vocab.Vocabulary, rng *rand.Rand) ([]string, error) {
	var conditions []string
	seen := map[string]bool{}

	for _, cond := range sortedConditionKeys(p.ConditionPrevalence) {
		if _, ok := v.ConditionFor(cond); !ok {
			return nil, models.NewConfigurationError("prevalence table references unknown condition %s", cond)
		}
		if distribution.Bernoulli(rng, p.ConditionPrevalence[cond]) {
			conditions = append(conditions, cond)
			seen[cond] = true
		}
	}

	if p.Comorbidities {
		// Iterate a snapshot; newly added comorbidities do not cascade.
		primaries := append([]string(nil), conditions...)
		for _, primary := range primaries {
			comorbid := v.Comorbidities[primary]
			for _, target := range sortedConditionKeys(comorbid) {
				if seen[target] {
					continue
				}
				if distribution.Bernoulli(rng, comorbid[target]) {
					conditions = append(conditions, target)
					seen[target] = true
				}
			}
		}
	}

	return conditions, nil
}

func sortedConditionKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Runner drives a deterministic, parallel generation pass over entity
// indices. The identity generator is shared across chunks so correlation
// keys stay session-unique.
type Runner struct {
	Profile    models.Profile
	Vocab      *vocab.Vocabulary
	Identities *identity.Generator

	// Workers bounds the fan-out; zero means GOMAXPROCS.
	Workers int
}

func NewRunner(p models.Profile, v *vocab.Vocabulary) *Runner {
	return &Runner{Profile: p, Vocab: v, Identities: identity.NewGenerator()}
}

type entityResult struct {
	index int
	graph *models.EntityGraph
	err   error
}

// Run generates the whole batch in one pass.
func (r *Runner) Run() (*models.EntityGraph, []models.GenerationFailure) {
	return r.GenerateRange(0, 0, r.Profile.Count)
}

// GenerateRange generates entities for indices [start, start+count) into a
// fresh graph. Per-entity failures are collected, not fatal; the chunk-level
// all-or-nothing policy belongs to the executor.
func (r *Runner) GenerateRange(chunk, start, count int) (*models.EntityGraph, []models.GenerationFailure) {
	profiles := make([]models.Profile, count)
	for i := range profiles {
		profiles[i] = r.Profile
	}
	return r.generateIndexed(chunk, start, profiles)
}

// GenerateBatch generates one entity per supplied spec. A malformed spec
// fails only its own index; the remaining specs still generate.
func (r *Runner) GenerateBatch(specs []models.Profile) (*models.EntityGraph, []models.GenerationFailure) {
	return r.generateIndexed(0, 0, specs)
}

// generateIndexed is the deterministic parallel core. Output is merged by
// index, never by completion order, so parallel execution cannot perturb it.
func (r *Runner) generateIndexed(chunk, start int, profiles []models.Profile) (*models.EntityGraph, []models.GenerationFailure) {
	count := len(profiles)
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Phase one: identities, sequentially in index order. Identity creation
	// is cheap and shares the name-table random source, so this pass stays
	// serial; the heavy per-entity work below fans out.
	type seeded struct {
		person *models.Person
		rng    *rand.Rand
		err    error
	}
	seeds := make([]seeded, count)
	for i := 0; i < count; i++ {
		p := profiles[i]
		rng := rand.New(rand.NewSource(subseed(r.Profile.Seed, start+i)))
		person, err := r.Identities.Generate(identity.Constraints{
			AgeRange: p.AgeRange,
			SexRatio: p.SexRatio,
			State:    p.State,
			AsOf:     p.EffectiveAsOf(),
		}, rng)
		seeds[i] = seeded{person: person, rng: rng, err: err}
	}

	// Phase two: domain entities, embarrassingly parallel.
	results := make([]entityResult, count)
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				results[i] = r.generateEntity(start+i, profiles[i], seeds[i].person, seeds[i].rng, seeds[i].err)
			}
		}()
	}
	for i := 0; i < count; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()

	// Merge by index.
	graph := models.NewEntityGraph()
	var failures []models.GenerationFailure
	for i, res := range results {
		if res.err != nil {
			log.Generator.WithField("index", start+i).Warnf("entity generation failed: %v", res.err)
			failures = append(failures, models.GenerationFailure{Chunk: chunk, Index: start + i, Err: res.err})
			continue
		}
		graph.Absorb(res.graph)
	}
	return graph, failures
}

func (r *Runner) generateEntity(index int, profile models.Profile, person *models.Person, rng *rand.Rand, seedErr error) entityResult {
	if seedErr != nil {
		return entityResult{index: index, err: seedErr}
	}

	conditions, err := assignConditions(profile, r.Vocab, rng)
	if err != nil {
		return entityResult{index: index, err: err}
	}

	g := models.NewEntityGraph()
	g.AddPerson(person)

	// One primary care provider per person keeps the provider identifier
	// consistent across every domain view of the same care.
	providerNPI := newNPI(rng)

	for _, domain := range profile.EffectiveDomains() {
		switch domain {
		case models.DomainClinical:
			patient, err := NewClinical(r.Vocab).GenerateOne(person, conditions, profile, providerNPI, rng)
			if err != nil {
				return entityResult{index: index, err: errors.Wrap(err, "clinical")}
			}
			g.Patients = append(g.Patients, patient)
		case models.DomainPayer:
			member, err := NewPayer(r.Vocab).GenerateOne(person, profile, rng)
			if err != nil {
				return entityResult{index: index, err: errors.Wrap(err, "payer")}
			}
			g.Members = append(g.Members, member)
		case models.DomainPharmacy:
			rxm, err := NewPharmacy(r.Vocab).GenerateOne(person, conditions, profile, providerNPI, rng)
			if err != nil {
				return entityResult{index: index, err: errors.Wrap(err, "pharmacy")}
			}
			g.RxMembers = append(g.RxMembers, rxm)
		case models.DomainTrial:
			subject, err := NewTrial(r.Vocab).GenerateOne(person, conditions, profile, rng)
			if err != nil {
				return entityResult{index: index, err: errors.Wrap(err, "trial")}
			}
			if subject != nil {
				g.Subjects = append(g.Subjects, subject)
			}
		default:
			return entityResult{index: index, err: models.NewConfigurationError("unknown domain %q", domain)}
		}
	}

	return entityResult{index: index, graph: g}
}

// newID builds a version-4-shaped UUID from the entity's own rng so
// identifiers reproduce under the same seed.
func newID(rng *rand.Rand) string {
	b := make([]byte, 16)
	rng.Read(b) // never fails for math/rand sources

	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	return uuid.UUID(b).String()
}
