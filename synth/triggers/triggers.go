// Package triggers derives cross-domain records from source events through a
// dispatch table. An encounter in the clinical domain produces a claim in the
// payer domain; a prescription in the pharmacy domain produces a pharmacy
// claim with drug utilization review. Handlers are pure over the event and
// the read-only entity graph; new (event, domain) pairs register without
// touching existing handlers.
package triggers

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/log"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// Event is one source record offered to the registry for derivation.
type Event struct {
	Kind      models.EventKind
	PersonKey string

	// Exactly one of the following is set, matching Kind.
	Encounter    *models.Encounter
	Prescription *models.Prescription
}

// ID reports the source record's identifier for warnings and logs.
func (e Event) ID() string {
	switch {
	case e.Encounter != nil:
		return e.Encounter.ID
	case e.Prescription != nil:
		return e.Prescription.ID
	}
	return ""
}

// Handler derives records for one target domain from one event. Handlers
// never abort a batch: a malformed event yields a warning and no records.
type Handler func(ev Event, g *models.EntityGraph) ([]models.Record, []models.DerivationWarning)

type registryKey struct {
	kind   models.EventKind
	target models.Domain
}

// Registry maps (source event kind, target domain) to a handler.
type Registry struct {
	handlers map[registryKey]Handler
}

// NewRegistry returns a registry with the built-in derivations wired:
// encounter→payer claim and prescription→pharmacy claim with DUR against the
// given vocabulary.
func NewRegistry(v *vocab.Vocabulary, cfg DURConfig) *Registry {
	r := &Registry{handlers: make(map[registryKey]Handler)}
	// Built-ins cannot collide on an empty table.
	_ = r.Register(models.EventEncounter, models.DomainPayer, encounterToClaim)
	_ = r.Register(models.EventPrescription, models.DomainPharmacy, prescriptionToPharmacyClaim(v, cfg))
	return r
}

// Register adds a handler for a (kind, domain) pair. Registering the same
// pair twice is a wiring mistake and fails.
func (r *Registry) Register(kind models.EventKind, target models.Domain, h Handler) error {
	k := registryKey{kind: kind, target: target}
	if _, dup := r.handlers[k]; dup {
		return errors.Errorf("handler already registered for %s→%s", kind, target)
	}
	r.handlers[k] = h
	return nil
}

// Derive runs every handler registered for the event's kind, in target-domain
// order so output never depends on map iteration.
func (r *Registry) Derive(ev Event, g *models.EntityGraph) ([]models.Record, []models.DerivationWarning) {
	var targets []models.Domain
	for k := range r.handlers {
		if k.kind == ev.Kind {
			targets = append(targets, k.target)
		}
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	var records []models.Record
	var warnings []models.DerivationWarning
	for _, target := range targets {
		recs, warns := r.handlers[registryKey{kind: ev.Kind, target: target}](ev, g)
		records = append(records, recs...)
		warnings = append(warnings, warns...)
	}
	for _, w := range warnings {
		log.Triggers.WithField("event", w.EventID).Warn(w.Reason)
	}
	return records, warnings
}

// EventsFor lists one identity's source events in a stable order: encounters
// by record order, then prescriptions. Derivation for a single identity is
// sequential so each event sees the records before it.
func EventsFor(g *models.EntityGraph, personKey string) []Event {
	var events []Event
	if patient, ok := g.PatientFor(personKey); ok {
		for i := range patient.Encounters {
			events = append(events, Event{
				Kind:      models.EventEncounter,
				PersonKey: personKey,
				Encounter: &patient.Encounters[i],
			})
		}
	}
	if rxm, ok := g.RxMemberFor(personKey); ok {
		for i := range rxm.Prescriptions {
			events = append(events, Event{
				Kind:         models.EventPrescription,
				PersonKey:    personKey,
				Prescription: &rxm.Prescriptions[i],
			})
		}
	}
	return events
}

// Apply attaches derived records to their parents in the graph.
func Apply(g *models.EntityGraph, records []models.Record) error {
	for _, rec := range records {
		switch rec := rec.(type) {
		case models.Claim:
			member, ok := g.MemberFor(rec.PersonKey)
			if !ok {
				return errors.Errorf("claim %s: no member for person %s", rec.ID, rec.PersonKey)
			}
			member.Claims = append(member.Claims, rec)
		case models.PharmacyClaim:
			rxm, ok := g.RxMemberFor(rec.PersonKey)
			if !ok {
				return errors.Errorf("pharmacy claim %s: no pharmacy member for person %s", rec.ID, rec.PersonKey)
			}
			rxm.PharmacyClaims = append(rxm.PharmacyClaims, rec)
		default:
			return errors.Errorf("unhandled derived record type %T", rec)
		}
	}
	return nil
}

// DeriveIdentity runs the second pass for a single identity: all of its
// events in order, records applied as they derive so later events see them.
func (r *Registry) DeriveIdentity(g *models.EntityGraph, personKey string) ([]models.DerivationWarning, error) {
	var warnings []models.DerivationWarning
	for _, ev := range EventsFor(g, personKey) {
		records, warns := r.Derive(ev, g)
		warnings = append(warnings, warns...)
		if err := Apply(g, records); err != nil {
			return warnings, err
		}
	}
	return warnings, nil
}
