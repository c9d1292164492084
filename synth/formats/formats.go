// Package formats renders an entity graph into healthcare interchange
// formats. Transformers are pure: same graph and config in, same bytes out,
// no state between calls.
package formats

import (
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/synthhealth/datasynth/log"
	"github.com/synthhealth/datasynth/synth/models"
)

// Format names a supported target format.
type Format string

const (
	FormatFHIR        Format = "fhir"
	FormatHL7v2       Format = "hl7v2"
	FormatCCDA        Format = "ccda"
	FormatX12837P     Format = "x12-837p"
	FormatX12837I     Format = "x12-837i"
	FormatX12835      Format = "x12-835"
	FormatX12834      Format = "x12-834"
	FormatNCPDPD0     Format = "ncpdp-d0"
	FormatNCPDPScript Format = "ncpdp-script"
	FormatSDTM        Format = "sdtm"
	FormatADaM        Format = "adam"
	FormatMIMIC       Format = "mimic"
)

// Config tunes transformer output. The zero value is valid everywhere.
type Config struct {
	// Kinds restricts which entity kinds to render. Empty means everything
	// the transformer accepts. Asking a transformer for a kind it does not
	// accept is an error, never a silent skip.
	Kinds []models.EntityKind

	// X12 delimiters; zero values take the standard defaults.
	ElementSeparator   string
	SegmentTerminator  string
	ComponentSeparator string

	// NCPDP D.0 transaction code: B1 billing or B2 reversal. Empty means B1.
	NCPDPTransaction string
}

func (c Config) elementSep() string {
	if c.ElementSeparator == "" {
		return "*"
	}
	return c.ElementSeparator
}

func (c Config) segmentTerm() string {
	if c.SegmentTerminator == "" {
		return "~"
	}
	return c.SegmentTerminator
}

func (c Config) componentSep() string {
	if c.ComponentSeparator == "" {
		return ":"
	}
	return c.ComponentSeparator
}

// Output is one rendered artifact. Tabular formats carry their frames
// alongside the serialized bytes.
type Output struct {
	Format      Format
	ContentType string
	Data        []byte

	// Frames holds the dataset tables for SDTM/ADaM output, keyed by
	// dataset name.
	Frames map[string]dataframe.DataFrame
}

// Transformer renders one format.
type Transformer interface {
	Accepts() []models.EntityKind
	Transform(g *models.EntityGraph, cfg Config) (Output, error)
}

// requestedKinds resolves cfg.Kinds against what the transformer accepts,
// rejecting anything outside the declared set.
func requestedKinds(format Format, accepts []models.EntityKind, cfg Config) (map[models.EntityKind]bool, error) {
	accepted := make(map[models.EntityKind]bool, len(accepts))
	for _, k := range accepts {
		accepted[k] = true
	}
	if len(cfg.Kinds) == 0 {
		return accepted, nil
	}
	wanted := make(map[models.EntityKind]bool, len(cfg.Kinds))
	for _, k := range cfg.Kinds {
		if !accepted[k] {
			return nil, &models.UnsupportedEntityTypeError{Format: string(format), Kind: k}
		}
		wanted[k] = true
	}
	return wanted, nil
}

// Registry maps formats to transformers.
type Registry struct {
	transformers map[Format]Transformer
}

// NewRegistry wires every built-in transformer.
func NewRegistry() *Registry {
	return &Registry{transformers: map[Format]Transformer{
		FormatFHIR:        &FHIR{},
		FormatHL7v2:       &HL7v2{},
		FormatCCDA:        &CCDA{},
		FormatX12837P:     &X12{Transaction: Transaction837P},
		FormatX12837I:     &X12{Transaction: Transaction837I},
		FormatX12835:      &X12{Transaction: Transaction835},
		FormatX12834:      &X12{Transaction: Transaction834},
		FormatNCPDPD0:     &NCPDPD0{},
		FormatNCPDPScript: &NCPDPScript{},
		FormatSDTM:        &SDTM{},
		FormatADaM:        &ADaM{},
		FormatMIMIC:       &MIMIC{},
	}}
}

// For resolves a format to its transformer.
func (r *Registry) For(f Format) (Transformer, bool) {
	t, ok := r.transformers[f]
	return t, ok
}

// Formats lists every registered format in a stable order.
func (r *Registry) Formats() []Format {
	out := make([]Format, 0, len(r.transformers))
	for f := range r.transformers {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Transform is the registry-level entry point.
func (r *Registry) Transform(f Format, g *models.EntityGraph, cfg Config) (Output, error) {
	t, ok := r.For(f)
	if !ok {
		return Output{}, &models.FormatValidationError{Format: string(f), Msg: "unknown format"}
	}
	out, err := t.Transform(g, cfg)
	if err != nil {
		log.Formats.WithField("format", f).WithError(err).Error("transform failed")
		return Output{}, err
	}
	log.Formats.WithField("format", f).WithField("bytes", len(out.Data)).Debug("transform complete")
	return out, nil
}
