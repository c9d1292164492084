package formats

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/synth/models"
)

// MIMIC renders the graph as MIMIC-III style relational CSV tables:
// PATIENTS, ADMISSIONS, DIAGNOSES_ICD, and PRESCRIPTIONS, joined by numeric
// subject IDs assigned in correlation-key order.
type MIMIC struct{}

func (m *MIMIC) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindPatient, models.KindRxMember}
}

const mimicTimeLayout = "2006-01-02 15:04:05"

func (m *MIMIC) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	kinds, err := requestedKinds(FormatMIMIC, m.Accepts(), cfg)
	if err != nil {
		return Output{}, err
	}

	// Stable numeric subject IDs: key order, starting at 10000 like the
	// source dataset's ID range.
	subjectIDs := make(map[string]int)
	for i, key := range g.Keys() {
		subjectIDs[key] = 10000 + i
	}

	var buf bytes.Buffer
	writeTable := func(name string, header []string, rows [][]string) error {
		buf.WriteString("# " + name + "\n")
		w := csv.NewWriter(&buf)
		if err := w.Write(header); err != nil {
			return errors.Wrapf(err, "writing %s header", name)
		}
		if err := w.WriteAll(rows); err != nil {
			return errors.Wrapf(err, "writing %s rows", name)
		}
		w.Flush()
		buf.WriteString("\n")
		return w.Error()
	}

	var patients, admissions, diagnoses, prescriptions [][]string
	if kinds[models.KindPatient] {
		for _, p := range g.Patients {
			person, ok := g.PersonFor(p.PersonKey)
			if !ok {
				return Output{}, &models.FormatValidationError{
					Format: string(FormatMIMIC),
					Msg:    fmt.Sprintf("patient %s has no person", p.ID),
				}
			}
			sid := strconv.Itoa(subjectIDs[p.PersonKey])
			patients = append(patients, []string{
				sid, string(person.Sex), person.BirthDate.Format(mimicTimeLayout),
			})
			for i, enc := range p.Encounters {
				hadm := fmt.Sprintf("%s%02d", sid, i)
				admissions = append(admissions, []string{
					sid, hadm,
					enc.Date.Format(mimicTimeLayout),
					enc.Date.AddDate(0, 0, 1).Format(mimicTimeLayout),
					admissionType(enc.Class),
				})
				for seq, code := range enc.DiagnosisCodes {
					diagnoses = append(diagnoses, []string{
						sid, hadm, strconv.Itoa(seq + 1), code,
					})
				}
			}
		}
	}
	if kinds[models.KindRxMember] {
		for _, rxm := range g.RxMembers {
			sid := strconv.Itoa(subjectIDs[rxm.PersonKey])
			for _, rx := range rxm.Prescriptions {
				prescriptions = append(prescriptions, []string{
					sid, rx.WrittenDate.Format(mimicTimeLayout),
					rx.Display, rx.NDC, fmt.Sprintf("%g", rx.Quantity),
				})
			}
		}
	}

	if err := writeTable("PATIENTS", []string{"SUBJECT_ID", "GENDER", "DOB"}, patients); err != nil {
		return Output{}, err
	}
	if err := writeTable("ADMISSIONS",
		[]string{"SUBJECT_ID", "HADM_ID", "ADMITTIME", "DISCHTIME", "ADMISSION_TYPE"}, admissions); err != nil {
		return Output{}, err
	}
	if err := writeTable("DIAGNOSES_ICD",
		[]string{"SUBJECT_ID", "HADM_ID", "SEQ_NUM", "ICD_CODE"}, diagnoses); err != nil {
		return Output{}, err
	}
	if err := writeTable("PRESCRIPTIONS",
		[]string{"SUBJECT_ID", "STARTDATE", "DRUG", "NDC", "DOSE_VAL_RX"}, prescriptions); err != nil {
		return Output{}, err
	}

	return Output{Format: FormatMIMIC, ContentType: "text/csv", Data: buf.Bytes()}, nil
}

func admissionType(class string) string {
	switch class {
	case "EMER":
		return "EMERGENCY"
	case "IMP":
		return "URGENT"
	}
	return "ELECTIVE"
}
