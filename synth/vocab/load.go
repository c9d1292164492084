package vocab

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/synthhealth/datasynth/synth/models"
)

// Load decodes an externally-supplied table set (the knowledge layer hands
// these over as plain maps, never raw text) and validates it into a typed
// Vocabulary.
func Load(raw map[string]interface{}) (*Vocabulary, error) {
	var v Vocabulary

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &v,
		ErrorUnused: false,
		// Probabilities and doses arrive as json numbers from some loaders.
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build vocabulary decoder")
	}

	if err := dec.Decode(raw); err != nil {
		return nil, models.NewConfigurationError("vocabulary tables malformed: %v", err)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	return &v, nil
}

// Merge overlays externally-supplied tables onto the embedded defaults:
// supplied code systems and tables replace their default counterparts
// wholesale, absent sections keep the defaults.
func Merge(raw map[string]interface{}) (*Vocabulary, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}

	var overlay Vocabulary
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &overlay,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build vocabulary decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return nil, models.NewConfigurationError("vocabulary tables malformed: %v", err)
	}

	if len(overlay.ICD10.Codes) > 0 {
		base.ICD10 = overlay.ICD10
	}
	if len(overlay.CPT.Codes) > 0 {
		base.CPT = overlay.CPT
	}
	if len(overlay.NDC.Codes) > 0 {
		base.NDC = overlay.NDC
	}
	if len(overlay.RxNorm.Codes) > 0 {
		base.RxNorm = overlay.RxNorm
	}
	if len(overlay.Loinc.Codes) > 0 {
		base.Loinc = overlay.Loinc
	}
	if len(overlay.Conditions) > 0 {
		base.Conditions = overlay.Conditions
	}
	if len(overlay.Comorbidities) > 0 {
		base.Comorbidities = overlay.Comorbidities
	}
	if len(overlay.Treatments) > 0 {
		base.Treatments = overlay.Treatments
	}
	if len(overlay.Labs) > 0 {
		base.Labs = overlay.Labs
	}
	if len(overlay.Interactions) > 0 {
		base.Interactions = overlay.Interactions
	}

	if err := base.Validate(); err != nil {
		return nil, err
	}
	return base, nil
}
