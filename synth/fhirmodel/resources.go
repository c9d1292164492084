package fhirmodel

// Bundle is the R4 Bundle envelope; synthetic output emits collection
// bundles.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        int           `json:"total,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
}

type BundleEntry struct {
	FullURL  string      `json:"fullUrl,omitempty"`
	Resource interface{} `json:"resource,omitempty"`
}

type Patient struct {
	ResourceType  string                 `json:"resourceType"`
	ID            string                 `json:"id,omitempty"`
	Meta          *Meta                  `json:"meta,omitempty"`
	Identifier    []Identifier           `json:"identifier,omitempty"`
	Active        bool                   `json:"active,omitempty"`
	Name          []HumanName            `json:"name,omitempty"`
	Gender        string                 `json:"gender,omitempty"` // male | female | other | unknown
	BirthDate     string                 `json:"birthDate,omitempty"`
	Address       []Address              `json:"address,omitempty"`
	Communication []PatientCommunication `json:"communication,omitempty"`
}

type PatientCommunication struct {
	Language  CodeableConcept `json:"language"`
	Preferred bool            `json:"preferred,omitempty"`
}

type Encounter struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id,omitempty"`
	Status       string            `json:"status,omitempty"`
	Class        *Coding           `json:"class,omitempty"`
	Subject      *Reference        `json:"subject,omitempty"`
	Period       *Period           `json:"period,omitempty"`
	Participant  []Participant     `json:"participant,omitempty"`
	Diagnosis    []EncounterDx     `json:"diagnosis,omitempty"`
	Type         []CodeableConcept `json:"type,omitempty"`
}

type Participant struct {
	Individual *Reference `json:"individual,omitempty"`
}

type EncounterDx struct {
	Condition Reference `json:"condition"`
	Rank      int       `json:"rank,omitempty"`
}

type Condition struct {
	ResourceType   string           `json:"resourceType"`
	ID             string           `json:"id,omitempty"`
	ClinicalStatus *CodeableConcept `json:"clinicalStatus,omitempty"`
	Code           *CodeableConcept `json:"code,omitempty"`
	Subject        *Reference       `json:"subject,omitempty"`
	OnsetDateTime  string           `json:"onsetDateTime,omitempty"`
}

type MedicationRequest struct {
	ResourceType              string           `json:"resourceType"`
	ID                        string           `json:"id,omitempty"`
	Status                    string           `json:"status,omitempty"`
	Intent                    string           `json:"intent,omitempty"`
	MedicationCodeableConcept *CodeableConcept `json:"medicationCodeableConcept,omitempty"`
	Subject                   *Reference       `json:"subject,omitempty"`
	AuthoredOn                string           `json:"authoredOn,omitempty"`
	Requester                 *Reference       `json:"requester,omitempty"`
	DispenseRequest           *DispenseRequest `json:"dispenseRequest,omitempty"`
}

type DispenseRequest struct {
	Quantity               *Quantity `json:"quantity,omitempty"`
	ExpectedSupplyDuration *Quantity `json:"expectedSupplyDuration,omitempty"`
}

type Observation struct {
	ResourceType      string           `json:"resourceType"`
	ID                string           `json:"id,omitempty"`
	Status            string           `json:"status,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	ValueQuantity     *Quantity        `json:"valueQuantity,omitempty"`
}

type Claim struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Status       string           `json:"status,omitempty"`
	Type         *CodeableConcept `json:"type,omitempty"` // professional | institutional
	Use          string           `json:"use,omitempty"`
	Patient      *Reference       `json:"patient,omitempty"`
	Created      string           `json:"created,omitempty"`
	Provider     *Reference       `json:"provider,omitempty"`
	Diagnosis    []ClaimDiagnosis `json:"diagnosis,omitempty"`
	Item         []ClaimItem      `json:"item,omitempty"`
	Total        *Money           `json:"total,omitempty"`
}

type ClaimDiagnosis struct {
	Sequence                 int             `json:"sequence"`
	DiagnosisCodeableConcept CodeableConcept `json:"diagnosisCodeableConcept"`
}

type ClaimItem struct {
	Sequence          int             `json:"sequence"`
	DiagnosisSequence []int           `json:"diagnosisSequence,omitempty"`
	ProductOrService  CodeableConcept `json:"productOrService"`
	ServicedDate      string          `json:"servicedDate,omitempty"`
	Net               *Money          `json:"net,omitempty"`
}

type ResearchSubject struct {
	ResourceType string       `json:"resourceType"`
	ID           string       `json:"id,omitempty"`
	Status       string       `json:"status,omitempty"`
	Identifier   []Identifier `json:"identifier,omitempty"`
	Study        *Reference   `json:"study,omitempty"`
	Individual   *Reference   `json:"individual,omitempty"`
	ActualArm    string       `json:"actualArm,omitempty"`
	Period       *Period      `json:"period,omitempty"`
}

type AdverseEvent struct {
	ResourceType string           `json:"resourceType"`
	ID           string           `json:"id,omitempty"`
	Actuality    string           `json:"actuality,omitempty"`
	Event        *CodeableConcept `json:"event,omitempty"`
	Subject      *Reference       `json:"subject,omitempty"`
	Date         string           `json:"date,omitempty"`
	Severity     *CodeableConcept `json:"severity,omitempty"`
}
