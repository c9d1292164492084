package constants

// Code system URIs used when emitting coded values.
const SystemICD10CM = "http://hl7.org/fhir/sid/icd-10-cm"
const SystemCPT = "http://www.ama-assn.org/go/cpt"
const SystemNDC = "http://hl7.org/fhir/sid/ndc"
const SystemRxNorm = "http://www.nlm.nih.gov/research/umls/rxnorm"
const SystemLOINC = "http://loinc.org"
const SystemNPI = "http://hl7.org/fhir/sid/us-npi"

// Date layouts shared across the wire formats.
const DateLayoutFHIR = "2006-01-02"
const DateLayoutX12 = "20060102"
const DateLayoutHL7 = "20060102150405"
const DateLayoutSDTM = "2006-01-02"

// Batch limits. DefaultMaxBatchSize is a rejection ceiling, never a silent
// truncation point.
const DefaultMaxBatchSize = 10000
const DefaultChunkSize = 100

// DefaultResampleRetries bounds resampling of clamped distributions before
// falling back to a hard clamp.
const DefaultResampleRetries = 100

// This is set during compilation.
var Version = "latest"
