package models

import (
	"time"
)

type Sex string

const (
	SexFemale Sex = "F"
	SexMale   Sex = "M"
)

// Domain names one of the four product views of a simulated population.
type Domain string

const (
	DomainClinical Domain = "clinical"
	DomainPayer    Domain = "payer"
	DomainPharmacy Domain = "pharmacy"
	DomainTrial    Domain = "trial"
)

// EntityKind identifies a top-level domain entity type, used by format
// transformers to declare what they accept.
type EntityKind string

const (
	KindPatient  EntityKind = "patient"
	KindMember   EntityKind = "member"
	KindRxMember EntityKind = "rxmember"
	KindSubject  EntityKind = "subject"
)

// EventKind identifies a child record type that can act as a cross-domain
// trigger source.
type EventKind string

const (
	EventEncounter    EventKind = "encounter"
	EventPrescription EventKind = "prescription"
)

type Address struct {
	Line  string
	City  string
	State string
	Zip   string
}

// Person is the root identity. Domain entities hold its Key and never copy
// demographic truth. Immutable after creation; owned by the generation
// session that created it.
type Person struct {
	Key        string // correlation key, 9 digits formatted XXX-XX-XXXX
	GivenName  string
	FamilyName string
	BirthDate  time.Time
	Sex        Sex
	Address    Address
	Language   string // BCP-47 tag
}

// Age reports the person's age in whole years as of the given date.
func (p *Person) Age(asOf time.Time) int {
	years := asOf.Year() - p.BirthDate.Year()
	if asOf.YearDay() < p.BirthDate.YearDay() {
		years--
	}
	return years
}

// Patient is the clinical-domain view of a person.
type Patient struct {
	ID        string
	PersonKey string
	MRN       string

	// Window bounds for all child record dates.
	EnrollmentStart time.Time
	EnrollmentEnd   time.Time

	Encounters   []Encounter
	Diagnoses    []Diagnosis
	Medications  []Medication
	Observations []Observation
}

// Member is the payer-domain view of a person.
type Member struct {
	ID        string
	PersonKey string
	MemberID  string
	PlanCode  string
	GroupNum  string

	CoverageStart time.Time
	CoverageEnd   time.Time

	Claims []Claim
}

// RxMember is the pharmacy-benefit view of a person.
type RxMember struct {
	ID           string
	PersonKey    string
	CardholderID string
	BIN          string
	PCN          string

	Prescriptions  []Prescription
	PharmacyClaims []PharmacyClaim
}

// Subject is the clinical-trial view of a person.
type Subject struct {
	ID        string
	PersonKey string
	StudyID   string
	USubjID   string
	Arm       string

	EnrolledAt time.Time

	Visits        []Visit
	AdverseEvents []AdverseEvent
}

type Encounter struct {
	ID             string
	PatientID      string
	Date           time.Time
	Class          string // AMB, EMER, IMP
	ProviderNPI    string
	DiagnosisCodes []string // ICD-10-CM
	ProcedureCodes []string // CPT/HCPCS
}

type Diagnosis struct {
	ID        string
	PatientID string
	Code      string // ICD-10-CM
	Display   string
	OnsetDate time.Time
	Primary   bool
}

type Medication struct {
	ID          string
	PatientID   string
	RxNormCode  string
	NDC         string
	Display     string
	DailyDoseMG float64
	StartDate   time.Time
	DaysSupply  int
}

// ActiveOn reports whether the supply window covers the given date.
func (m Medication) ActiveOn(date time.Time) bool {
	end := m.StartDate.AddDate(0, 0, m.DaysSupply)
	return !date.Before(m.StartDate) && date.Before(end)
}

type Observation struct {
	ID        string
	PatientID string
	LoincCode string
	Display   string
	Value     float64
	Unit      string
	Date      time.Time
}

// Record is a child record a cross-domain handler can derive. Handlers
// return Records; the caller decides where in the graph they land.
type Record interface {
	isRecord()
}

func (Claim) isRecord()         {}
func (PharmacyClaim) isRecord() {}

type Claim struct {
	ID          string
	MemberID    string
	PersonKey   string
	ServiceDate time.Time
	ProviderNPI string

	// Institutional claims flow to 837I, professional to 837P.
	Institutional bool

	DiagnosisCodes []string // ICD-10-CM, order defines pointer positions
	Lines          []ClaimLine
	TotalCharge    float64

	SourceEncounterID string
}

type ClaimLine struct {
	Number            int
	ProcedureCode     string // CPT/HCPCS
	Charge            float64
	DiagnosisPointers []int // 1-based into Claim.DiagnosisCodes
}

type Prescription struct {
	ID            string
	RxMemberID    string
	PersonKey     string
	NDC           string
	RxNormCode    string
	Display       string
	Quantity      float64
	DaysSupply    int
	DailyDoseMG   float64
	WrittenDate   time.Time
	PrescriberNPI string
}

type PharmacyClaim struct {
	ID                 string
	RxMemberID         string
	PersonKey          string
	NDC                string
	Quantity           float64
	DaysSupply         int
	ServiceDate        time.Time
	PrescriberNPI      string
	IngredientCost     float64
	DispensingFee      float64
	SourcePrescription string

	Alerts []DURAlert
}

type Visit struct {
	ID        string
	SubjectID string
	Number    int
	Name      string
	Date      time.Time
}

type AdverseEvent struct {
	ID        string
	SubjectID string
	Term      string
	Severity  string // MILD, MODERATE, SEVERE
	Causality string // NOT RELATED, POSSIBLY RELATED, RELATED
	StartDate time.Time
	EndDate   time.Time
}

// DURSeverity grades a drug utilization review alert.
type DURSeverity int

const (
	DURMinor DURSeverity = iota + 1
	DURModerate
	DURMajor
)

func (s DURSeverity) String() string {
	switch s {
	case DURMinor:
		return "minor"
	case DURModerate:
		return "moderate"
	case DURMajor:
		return "major"
	}
	return "unknown"
}

// DURAlert is a typed finding from a single DUR rule evaluation.
type DURAlert struct {
	Rule     string // drug-drug-interaction, therapeutic-duplication, early-refill, high-dose
	Severity DURSeverity
	Message  string

	// RxNorm codes of the drugs involved; the new drug first.
	DrugCodes []string
}
