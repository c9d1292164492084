package triggers

import (
	"fmt"

	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/utils"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// DURConfig tunes the drug utilization review thresholds.
type DURConfig struct {
	// EarlyRefillFraction flags a fill for a drug already on hand when less
	// than this fraction of the prior days-supply has elapsed.
	EarlyRefillFraction float64
	// HighDoseMultiple flags a daily dose above this multiple of the
	// ingredient's reference daily dose.
	HighDoseMultiple float64
}

// DefaultDURConfig reads thresholds from the environment with the standard
// review defaults.
func DefaultDURConfig() DURConfig {
	return DURConfig{
		EarlyRefillFraction: utils.GetEnvFloat("DATASYNTH_DUR_EARLY_REFILL_FRACTION", 0.75),
		HighDoseMultiple:    utils.GetEnvFloat("DATASYNTH_DUR_HIGH_DOSE_MULTIPLE", 2.0),
	}
}

// EvaluateDUR runs every review rule for a new prescription against the
// identity's existing medication list. Rules are independent; the result is
// the concatenation of whatever each rule finds.
func EvaluateDUR(rx models.Prescription, existing []models.Medication, v *vocab.Vocabulary, cfg DURConfig) []models.DURAlert {
	var alerts []models.DURAlert
	alerts = append(alerts, checkInteractions(rx, existing, v)...)
	alerts = append(alerts, checkDuplication(rx, existing, v)...)
	alerts = append(alerts, checkEarlyRefill(rx, existing, cfg)...)
	alerts = append(alerts, checkHighDose(rx, v, cfg)...)
	return alerts
}

func interactionSeverity(s string) models.DURSeverity {
	switch s {
	case "major":
		return models.DURMajor
	case "moderate":
		return models.DURModerate
	}
	return models.DURMinor
}

// checkInteractions flags known drug-drug interactions between the new
// ingredient and each active existing ingredient, once per pair.
func checkInteractions(rx models.Prescription, existing []models.Medication, v *vocab.Vocabulary) []models.DURAlert {
	var alerts []models.DURAlert
	seen := make(map[string]bool)
	for _, med := range existing {
		if med.RxNormCode == rx.RxNormCode || seen[med.RxNormCode] {
			continue
		}
		if !med.ActiveOn(rx.WrittenDate) {
			continue
		}
		seen[med.RxNormCode] = true
		ix, ok := v.InteractionBetween(rx.RxNormCode, med.RxNormCode)
		if !ok {
			continue
		}
		alerts = append(alerts, models.DURAlert{
			Rule:      "drug-drug-interaction",
			Severity:  interactionSeverity(ix.Severity),
			Message:   fmt.Sprintf("%s with %s: %s", rx.Display, med.Display, ix.Effect),
			DrugCodes: []string{rx.RxNormCode, med.RxNormCode},
		})
	}
	return alerts
}

// checkDuplication flags a new fill for an ingredient, or an ingredient
// class, the identity already has active supply of.
func checkDuplication(rx models.Prescription, existing []models.Medication, v *vocab.Vocabulary) []models.DURAlert {
	newClass := v.ClassOf(rx.RxNormCode)
	for _, med := range existing {
		if !med.ActiveOn(rx.WrittenDate) {
			continue
		}
		same := med.RxNormCode == rx.RxNormCode
		if !same && newClass != "" {
			same = v.ClassOf(med.RxNormCode) == newClass
		}
		if !same {
			continue
		}
		return []models.DURAlert{{
			Rule:      "therapeutic-duplication",
			Severity:  models.DURModerate,
			Message:   fmt.Sprintf("%s duplicates active therapy %s", rx.Display, med.Display),
			DrugCodes: []string{rx.RxNormCode, med.RxNormCode},
		}}
	}
	return nil
}

// checkEarlyRefill flags a fill of the same ingredient before enough of the
// previous supply could have been used.
func checkEarlyRefill(rx models.Prescription, existing []models.Medication, cfg DURConfig) []models.DURAlert {
	for _, med := range existing {
		if med.RxNormCode != rx.RxNormCode || med.DaysSupply <= 0 {
			continue
		}
		elapsed := rx.WrittenDate.Sub(med.StartDate).Hours() / 24
		if elapsed < 0 {
			continue
		}
		if elapsed < cfg.EarlyRefillFraction*float64(med.DaysSupply) {
			return []models.DURAlert{{
				Rule:     "early-refill",
				Severity: models.DURMinor,
				Message: fmt.Sprintf("refill of %s after %.0f of %d days supply",
					rx.Display, elapsed, med.DaysSupply),
				DrugCodes: []string{rx.RxNormCode},
			}}
		}
	}
	return nil
}

// checkHighDose flags a daily dose well above the ingredient's reference
// dose. Ingredients without a reference pass unchecked.
func checkHighDose(rx models.Prescription, v *vocab.Vocabulary, cfg DURConfig) []models.DURAlert {
	ref, ok := v.ReferenceDose(rx.RxNormCode)
	if !ok || ref <= 0 {
		return nil
	}
	if rx.DailyDoseMG > cfg.HighDoseMultiple*ref {
		return []models.DURAlert{{
			Rule:     "high-dose",
			Severity: models.DURMajor,
			Message: fmt.Sprintf("%s at %.0fmg/day exceeds %.0fx reference dose %.0fmg",
				rx.Display, rx.DailyDoseMG, cfg.HighDoseMultiple, ref),
			DrugCodes: []string{rx.RxNormCode},
		}}
	}
	return nil
}
