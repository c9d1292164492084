package vocab

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Default parses the embedded tables. The result validates by construction;
// an error here means the shipped tables themselves are broken.
func Default() (*Vocabulary, error) {
	var v Vocabulary
	if _, err := toml.Decode(defaultTables, &v); err != nil {
		return nil, errors.Wrap(err, "failed to decode embedded vocabulary")
	}
	if err := v.Validate(); err != nil {
		return nil, errors.Wrap(err, "embedded vocabulary failed validation")
	}
	return &v, nil
}

// MustDefault is Default for initialization paths that cannot recover.
func MustDefault() *Vocabulary {
	v, err := Default()
	if err != nil {
		panic(err)
	}
	return v
}

const defaultTables = `
[icd10]
name = "ICD-10-CM"
uri = "http://hl7.org/fhir/sid/icd-10-cm"
[icd10.codes]
"E11.9" = "Type 2 diabetes mellitus without complications"
"I10" = "Essential (primary) hypertension"
"E78.5" = "Hyperlipidemia, unspecified"
"J45.909" = "Unspecified asthma, uncomplicated"
"J44.9" = "Chronic obstructive pulmonary disease, unspecified"
"N18.3" = "Chronic kidney disease, stage 3"
"I25.10" = "Atherosclerotic heart disease of native coronary artery"
"F32.9" = "Major depressive disorder, single episode, unspecified"
"I48.91" = "Unspecified atrial fibrillation"
"M19.90" = "Unspecified osteoarthritis, unspecified site"

[cpt]
name = "CPT"
uri = "http://www.ama-assn.org/go/cpt"
[cpt.codes]
"99203" = "Office visit, new patient, low complexity"
"99213" = "Office visit, established patient, low complexity"
"99214" = "Office visit, established patient, moderate complexity"
"99285" = "Emergency department visit, high severity"
"80053" = "Comprehensive metabolic panel"
"83036" = "Hemoglobin A1c"
"80061" = "Lipid panel"
"93000" = "Electrocardiogram, complete"
"94010" = "Spirometry"
"71046" = "Chest X-ray, 2 views"

[ndc]
name = "NDC"
uri = "http://hl7.org/fhir/sid/ndc"
[ndc.codes]
"00093-1048-01" = "Metformin HCl 500mg tablet"
"00093-0058-01" = "Glipizide 5mg tablet"
"00088-2220-33" = "Insulin glargine 100 unit/mL injection"
"68180-0514-01" = "Lisinopril 10mg tablet"
"00093-7270-98" = "Amlodipine 5mg tablet"
"00093-7365-98" = "Losartan potassium 50mg tablet"
"00071-0155-23" = "Atorvastatin 20mg tablet"
"00093-7154-98" = "Simvastatin 20mg tablet"
"00056-0172-70" = "Warfarin sodium 5mg tablet"
"00003-0894-21" = "Apixaban 5mg tablet"
"00363-0587-14" = "Aspirin 81mg tablet"
"63653-1171-06" = "Clopidogrel 75mg tablet"
"00173-0682-20" = "Albuterol sulfate 90mcg inhaler"
"00173-0719-20" = "Fluticasone propionate 110mcg inhaler"
"00049-4900-66" = "Sertraline 50mg tablet"
"00777-3105-02" = "Fluoxetine 20mg capsule"

[rxnorm]
name = "RxNorm"
uri = "http://www.nlm.nih.gov/research/umls/rxnorm"
[rxnorm.codes]
"6809" = "metformin"
"4821" = "glipizide"
"274783" = "insulin glargine"
"29046" = "lisinopril"
"17767" = "amlodipine"
"52175" = "losartan"
"83367" = "atorvastatin"
"36567" = "simvastatin"
"11289" = "warfarin"
"1364430" = "apixaban"
"1191" = "aspirin"
"32968" = "clopidogrel"
"435" = "albuterol"
"41126" = "fluticasone"
"36437" = "sertraline"
"4493" = "fluoxetine"

[loinc]
name = "LOINC"
uri = "http://loinc.org"
[loinc.codes]
"4548-4" = "Hemoglobin A1c/Hemoglobin.total in Blood"
"2339-0" = "Glucose [Mass/volume] in Blood"
"13457-7" = "Cholesterol in LDL [Mass/volume] in Serum or Plasma by calculation"
"2160-0" = "Creatinine [Mass/volume] in Serum or Plasma"
"8480-6" = "Systolic blood pressure"
"8462-4" = "Diastolic blood pressure"
"33914-3" = "Glomerular filtration rate/1.73 sq M.predicted"

[conditions.type2_diabetes]
icd10 = "E11.9"
display = "Type 2 diabetes mellitus"
procedures = ["99214", "83036", "80053"]
labs = ["4548-4", "2339-0"]
trial_eligible = true

[conditions.hypertension]
icd10 = "I10"
display = "Essential hypertension"
procedures = ["99213"]
labs = ["8480-6", "8462-4"]
trial_eligible = true

[conditions.hyperlipidemia]
icd10 = "E78.5"
display = "Hyperlipidemia"
procedures = ["99213", "80061"]
labs = ["13457-7"]

[conditions.asthma]
icd10 = "J45.909"
display = "Asthma"
procedures = ["99213", "94010"]
labs = []

[conditions.copd]
icd10 = "J44.9"
display = "Chronic obstructive pulmonary disease"
procedures = ["99214", "94010", "71046"]
labs = []
trial_eligible = true

[conditions.ckd]
icd10 = "N18.3"
display = "Chronic kidney disease, stage 3"
procedures = ["99214", "80053"]
labs = ["2160-0", "33914-3"]

[conditions.cad]
icd10 = "I25.10"
display = "Coronary artery disease"
procedures = ["99214", "93000"]
labs = ["13457-7"]

[conditions.depression]
icd10 = "F32.9"
display = "Major depressive disorder"
procedures = ["99213"]
labs = []

[conditions.atrial_fibrillation]
icd10 = "I48.91"
display = "Atrial fibrillation"
procedures = ["99214", "93000"]
labs = []

[conditions.osteoarthritis]
icd10 = "M19.90"
display = "Osteoarthritis"
procedures = ["99213"]
labs = []

[comorbidities.type2_diabetes]
hypertension = 0.6
hyperlipidemia = 0.55
ckd = 0.25
[comorbidities.hypertension]
hyperlipidemia = 0.45
cad = 0.2
[comorbidities.cad]
hypertension = 0.7
hyperlipidemia = 0.6
[comorbidities.copd]
cad = 0.3
depression = 0.25
[comorbidities.atrial_fibrillation]
hypertension = 0.65
cad = 0.35

[[treatments.type2_diabetes]]
rxnorm = "6809"
ndc = "00093-1048-01"
display = "Metformin HCl 500mg"
weight = 0.6
daily_dose_mg = 1000
class = "biguanide"
days_supply = 90
[[treatments.type2_diabetes]]
rxnorm = "4821"
ndc = "00093-0058-01"
display = "Glipizide 5mg"
weight = 0.2
daily_dose_mg = 10
class = "sulfonylurea"
days_supply = 90
[[treatments.type2_diabetes]]
rxnorm = "274783"
ndc = "00088-2220-33"
display = "Insulin glargine 100 unit/mL"
weight = 0.2
daily_dose_mg = 30
class = "insulin"
days_supply = 30

[[treatments.hypertension]]
rxnorm = "29046"
ndc = "68180-0514-01"
display = "Lisinopril 10mg"
weight = 0.5
daily_dose_mg = 10
class = "ace-inhibitor"
days_supply = 90
[[treatments.hypertension]]
rxnorm = "17767"
ndc = "00093-7270-98"
display = "Amlodipine 5mg"
weight = 0.3
daily_dose_mg = 5
class = "calcium-channel-blocker"
days_supply = 90
[[treatments.hypertension]]
rxnorm = "52175"
ndc = "00093-7365-98"
display = "Losartan 50mg"
weight = 0.2
daily_dose_mg = 50
class = "arb"
days_supply = 90

[[treatments.hyperlipidemia]]
rxnorm = "83367"
ndc = "00071-0155-23"
display = "Atorvastatin 20mg"
weight = 0.7
daily_dose_mg = 20
class = "statin"
days_supply = 90
[[treatments.hyperlipidemia]]
rxnorm = "36567"
ndc = "00093-7154-98"
display = "Simvastatin 20mg"
weight = 0.3
daily_dose_mg = 20
class = "statin"
days_supply = 90

[[treatments.atrial_fibrillation]]
rxnorm = "11289"
ndc = "00056-0172-70"
display = "Warfarin sodium 5mg"
weight = 0.5
daily_dose_mg = 5
class = "anticoagulant"
days_supply = 30
[[treatments.atrial_fibrillation]]
rxnorm = "1364430"
ndc = "00003-0894-21"
display = "Apixaban 5mg"
weight = 0.5
daily_dose_mg = 10
class = "anticoagulant"
days_supply = 30

[[treatments.cad]]
rxnorm = "1191"
ndc = "00363-0587-14"
display = "Aspirin 81mg"
weight = 0.6
daily_dose_mg = 81
class = "antiplatelet"
days_supply = 90
[[treatments.cad]]
rxnorm = "32968"
ndc = "63653-1171-06"
display = "Clopidogrel 75mg"
weight = 0.4
daily_dose_mg = 75
class = "antiplatelet"
days_supply = 90

[[treatments.asthma]]
rxnorm = "435"
ndc = "00173-0682-20"
display = "Albuterol 90mcg inhaler"
weight = 0.7
daily_dose_mg = 0.54
class = "beta-agonist"
days_supply = 30
[[treatments.asthma]]
rxnorm = "41126"
ndc = "00173-0719-20"
display = "Fluticasone 110mcg inhaler"
weight = 0.3
daily_dose_mg = 0.44
class = "corticosteroid"
days_supply = 30

[[treatments.copd]]
rxnorm = "435"
ndc = "00173-0682-20"
display = "Albuterol 90mcg inhaler"
weight = 0.8
daily_dose_mg = 0.54
class = "beta-agonist"
days_supply = 30
[[treatments.copd]]
rxnorm = "41126"
ndc = "00173-0719-20"
display = "Fluticasone 110mcg inhaler"
weight = 0.2
daily_dose_mg = 0.44
class = "corticosteroid"
days_supply = 30

[[treatments.depression]]
rxnorm = "36437"
ndc = "00049-4900-66"
display = "Sertraline 50mg"
weight = 0.6
daily_dose_mg = 50
class = "ssri"
days_supply = 90
[[treatments.depression]]
rxnorm = "4493"
ndc = "00777-3105-02"
display = "Fluoxetine 20mg"
weight = 0.4
daily_dose_mg = 20
class = "ssri"
days_supply = 90

[[labs.type2_diabetes]]
loinc = "4548-4"
unit = "%"
mean = 7.8
stddev = 1.2
min = 5.0
max = 14.0
[[labs.type2_diabetes]]
loinc = "2339-0"
unit = "mg/dL"
mean = 155
stddev = 35
min = 60
max = 400

[[labs.hypertension]]
loinc = "8480-6"
unit = "mm[Hg]"
mean = 142
stddev = 12
min = 90
max = 210
[[labs.hypertension]]
loinc = "8462-4"
unit = "mm[Hg]"
mean = 88
stddev = 8
min = 50
max = 130

[[labs.hyperlipidemia]]
loinc = "13457-7"
unit = "mg/dL"
mean = 148
stddev = 30
min = 40
max = 300

[[labs.ckd]]
loinc = "2160-0"
unit = "mg/dL"
mean = 1.8
stddev = 0.4
min = 0.5
max = 8.0
[[labs.ckd]]
loinc = "33914-3"
unit = "mL/min/1.73m2"
mean = 45
stddev = 8
min = 15
max = 60

[[labs.cad]]
loinc = "13457-7"
unit = "mg/dL"
mean = 130
stddev = 28
min = 40
max = 300

[[interactions]]
a = "11289"
b = "1191"
severity = "major"
effect = "increased bleeding risk"
[[interactions]]
a = "11289"
b = "32968"
severity = "major"
effect = "increased bleeding risk"
[[interactions]]
a = "83367"
b = "32968"
severity = "minor"
effect = "increased statin exposure"
[[interactions]]
a = "36437"
b = "1191"
severity = "moderate"
effect = "increased GI bleeding risk"
`
