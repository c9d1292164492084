package models

import (
	"fmt"
	"sort"
	"time"
)

// EntityGraph is the canonical output of a generation run: every domain view
// of the simulated population plus the shared identities they reference.
// It is immutable once handed to format transformers or persistence.
type EntityGraph struct {
	Persons map[string]*Person // keyed by correlation key

	Patients  []*Patient
	Members   []*Member
	RxMembers []*RxMember
	Subjects  []*Subject

	Warnings []DerivationWarning
}

func NewEntityGraph() *EntityGraph {
	return &EntityGraph{Persons: make(map[string]*Person)}
}

// AddPerson registers the root identity. The first registration wins; a
// person is created exactly once per simulated individual.
func (g *EntityGraph) AddPerson(p *Person) {
	if _, ok := g.Persons[p.Key]; !ok {
		g.Persons[p.Key] = p
	}
}

func (g *EntityGraph) PersonFor(key string) (*Person, bool) {
	p, ok := g.Persons[key]
	return p, ok
}

// Keys returns all correlation keys in a stable order.
func (g *EntityGraph) Keys() []string {
	keys := make([]string, 0, len(g.Persons))
	for k := range g.Persons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PatientFor returns the clinical entity for a correlation key, if any.
func (g *EntityGraph) PatientFor(key string) (*Patient, bool) {
	for _, p := range g.Patients {
		if p.PersonKey == key {
			return p, true
		}
	}
	return nil, false
}

func (g *EntityGraph) MemberFor(key string) (*Member, bool) {
	for _, m := range g.Members {
		if m.PersonKey == key {
			return m, true
		}
	}
	return nil, false
}

func (g *EntityGraph) RxMemberFor(key string) (*RxMember, bool) {
	for _, m := range g.RxMembers {
		if m.PersonKey == key {
			return m, true
		}
	}
	return nil, false
}

// MedicationsFor collects every medication known for an identity across the
// clinical and pharmacy domains, the list DUR rules screen against.
func (g *EntityGraph) MedicationsFor(key string) []Medication {
	var meds []Medication
	if p, ok := g.PatientFor(key); ok {
		meds = append(meds, p.Medications...)
	}
	if rx, ok := g.RxMemberFor(key); ok {
		for _, pr := range rx.Prescriptions {
			meds = append(meds, Medication{
				ID:          pr.ID,
				RxNormCode:  pr.RxNormCode,
				NDC:         pr.NDC,
				Display:     pr.Display,
				DailyDoseMG: pr.DailyDoseMG,
				StartDate:   pr.WrittenDate,
				DaysSupply:  pr.DaysSupply,
			})
		}
	}
	return meds
}

// Absorb merges another graph into this one. Callers append chunks in index
// order so merged output is independent of completion order.
func (g *EntityGraph) Absorb(o *EntityGraph) {
	for _, p := range o.Persons {
		g.AddPerson(p)
	}
	g.Patients = append(g.Patients, o.Patients...)
	g.Members = append(g.Members, o.Members...)
	g.RxMembers = append(g.RxMembers, o.RxMembers...)
	g.Subjects = append(g.Subjects, o.Subjects...)
	g.Warnings = append(g.Warnings, o.Warnings...)
}

// Verify checks the graph's central consistency guarantees: every domain
// entity resolves to a known person, and every claim derived from an
// encounter agrees with it on service date and provider.
func (g *EntityGraph) Verify() error {
	for _, p := range g.Patients {
		if _, ok := g.Persons[p.PersonKey]; !ok {
			return fmt.Errorf("patient %s references unknown person %s", p.ID, p.PersonKey)
		}
	}
	for _, m := range g.Members {
		if _, ok := g.Persons[m.PersonKey]; !ok {
			return fmt.Errorf("member %s references unknown person %s", m.ID, m.PersonKey)
		}
	}
	for _, m := range g.RxMembers {
		if _, ok := g.Persons[m.PersonKey]; !ok {
			return fmt.Errorf("rx member %s references unknown person %s", m.ID, m.PersonKey)
		}
	}
	for _, s := range g.Subjects {
		if _, ok := g.Persons[s.PersonKey]; !ok {
			return fmt.Errorf("subject %s references unknown person %s", s.ID, s.PersonKey)
		}
	}

	encounters := make(map[string]Encounter)
	for _, p := range g.Patients {
		for _, e := range p.Encounters {
			encounters[e.ID] = e
		}
	}
	for _, m := range g.Members {
		for _, c := range m.Claims {
			if c.SourceEncounterID == "" {
				continue
			}
			e, ok := encounters[c.SourceEncounterID]
			if !ok {
				return fmt.Errorf("claim %s references unknown encounter %s", c.ID, c.SourceEncounterID)
			}
			if !sameDay(c.ServiceDate, e.Date) {
				return fmt.Errorf("claim %s service date %s disagrees with encounter %s date %s",
					c.ID, c.ServiceDate.Format("2006-01-02"), e.ID, e.Date.Format("2006-01-02"))
			}
			if c.ProviderNPI != e.ProviderNPI {
				return fmt.Errorf("claim %s provider %s disagrees with encounter %s provider %s",
					c.ID, c.ProviderNPI, e.ID, e.ProviderNPI)
			}
		}
	}
	return nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
