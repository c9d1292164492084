package formats

import (
	"bytes"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/utils"
)

// Required variables per SDTM domain. A dataset missing one of these is a
// validation failure, never a warning.
var sdtmRequired = map[string][]string{
	"DM": {"STUDYID", "DOMAIN", "USUBJID", "AGE", "SEX"},
	"AE": {"STUDYID", "DOMAIN", "USUBJID", "AETERM", "AESTDTC"},
	"EX": {"STUDYID", "DOMAIN", "USUBJID", "EXTRT", "EXSTDTC"},
	"VS": {"STUDYID", "DOMAIN", "USUBJID", "VISIT", "VSDTC"},
	"CM": {"STUDYID", "DOMAIN", "USUBJID", "CMTRT", "CMSTDTC"},
}

var adamRequired = map[string][]string{
	"ADSL": {"STUDYID", "USUBJID", "AGE", "SEX", "ARM", "TRTSDT"},
}

// SDTM renders study data tabulation datasets from trial subjects.
type SDTM struct{}

func (s *SDTM) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindSubject}
}

func validateDatasets(format Format, frames map[string]dataframe.DataFrame, required map[string][]string) error {
	for name, vars := range required {
		df, ok := frames[name]
		if !ok {
			return &models.FormatValidationError{
				Format: string(format),
				Msg:    fmt.Sprintf("missing dataset %s", name),
			}
		}
		cols := df.Names()
		for _, v := range vars {
			if !utils.ContainsString(cols, v) {
				return &models.FormatValidationError{
					Format: string(format),
					Msg:    fmt.Sprintf("dataset %s missing required variable %s", name, v),
				}
			}
		}
	}
	return nil
}

func renderDatasets(frames map[string]dataframe.DataFrame, order []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, name := range order {
		df := frames[name]
		buf.WriteString("# " + name + "\n")
		if err := df.WriteCSV(&buf); err != nil {
			return nil, errors.Wrapf(err, "writing %s", name)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

type subjectRow struct {
	subject *models.Subject
	person  *models.Person
	patient *models.Patient // nil when the trial domain runs alone
}

func trialRows(g *models.EntityGraph) ([]subjectRow, error) {
	var rows []subjectRow
	for _, s := range g.Subjects {
		person, ok := g.PersonFor(s.PersonKey)
		if !ok {
			return nil, &models.FormatValidationError{
				Format: string(FormatSDTM),
				Msg:    fmt.Sprintf("subject %s has no person", s.ID),
			}
		}
		row := subjectRow{subject: s, person: person}
		if p, ok := g.PatientFor(s.PersonKey); ok {
			row.patient = p
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *SDTM) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(FormatSDTM, s.Accepts(), cfg); err != nil {
		return Output{}, err
	}
	rows, err := trialRows(g)
	if err != nil {
		return Output{}, err
	}

	frames := map[string]dataframe.DataFrame{
		"DM": buildDM(rows),
		"AE": buildAE(rows),
		"EX": buildEX(rows),
		"VS": buildVS(rows),
		"CM": buildCM(rows),
	}
	if err := validateDatasets(FormatSDTM, frames, sdtmRequired); err != nil {
		return Output{}, err
	}
	data, err := renderDatasets(frames, []string{"DM", "AE", "EX", "VS", "CM"})
	if err != nil {
		return Output{}, err
	}
	return Output{Format: FormatSDTM, ContentType: "text/csv", Data: data, Frames: frames}, nil
}

func sdtmDate(t interface{ Format(string) string }) string {
	return t.Format(constants.DateLayoutSDTM)
}

func buildDM(rows []subjectRow) dataframe.DataFrame {
	var studyID, usubjid, sex, arm, rfstdtc []string
	var age []int
	for _, r := range rows {
		studyID = append(studyID, r.subject.StudyID)
		usubjid = append(usubjid, r.subject.USubjID)
		age = append(age, r.person.Age(r.subject.EnrolledAt))
		sex = append(sex, string(r.person.Sex))
		arm = append(arm, r.subject.Arm)
		rfstdtc = append(rfstdtc, sdtmDate(r.subject.EnrolledAt))
	}
	return dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(domainCol("DM", len(rows)), series.String, "DOMAIN"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(age, series.Int, "AGE"),
		series.New(sex, series.String, "SEX"),
		series.New(arm, series.String, "ARM"),
		series.New(rfstdtc, series.String, "RFSTDTC"),
	)
}

func buildAE(rows []subjectRow) dataframe.DataFrame {
	var studyID, usubjid, term, sev, rel, stdtc, endtc []string
	var seq []int
	for _, r := range rows {
		for i, ae := range r.subject.AdverseEvents {
			studyID = append(studyID, r.subject.StudyID)
			usubjid = append(usubjid, r.subject.USubjID)
			seq = append(seq, i+1)
			term = append(term, ae.Term)
			sev = append(sev, ae.Severity)
			rel = append(rel, ae.Causality)
			stdtc = append(stdtc, sdtmDate(ae.StartDate))
			endtc = append(endtc, sdtmDate(ae.EndDate))
		}
	}
	return dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(domainCol("AE", len(studyID)), series.String, "DOMAIN"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(seq, series.Int, "AESEQ"),
		series.New(term, series.String, "AETERM"),
		series.New(sev, series.String, "AESEV"),
		series.New(rel, series.String, "AEREL"),
		series.New(stdtc, series.String, "AESTDTC"),
		series.New(endtc, series.String, "AEENDTC"),
	)
}

func buildEX(rows []subjectRow) dataframe.DataFrame {
	var studyID, usubjid, trt, stdtc []string
	for _, r := range rows {
		studyID = append(studyID, r.subject.StudyID)
		usubjid = append(usubjid, r.subject.USubjID)
		trt = append(trt, r.subject.Arm)
		stdtc = append(stdtc, sdtmDate(r.subject.EnrolledAt))
	}
	return dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(domainCol("EX", len(rows)), series.String, "DOMAIN"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(trt, series.String, "EXTRT"),
		series.New(stdtc, series.String, "EXSTDTC"),
	)
}

func buildVS(rows []subjectRow) dataframe.DataFrame {
	var studyID, usubjid, visit, dtc []string
	var visitnum []int
	for _, r := range rows {
		for _, v := range r.subject.Visits {
			studyID = append(studyID, r.subject.StudyID)
			usubjid = append(usubjid, r.subject.USubjID)
			visitnum = append(visitnum, v.Number)
			visit = append(visit, v.Name)
			dtc = append(dtc, sdtmDate(v.Date))
		}
	}
	return dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(domainCol("VS", len(studyID)), series.String, "DOMAIN"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(visitnum, series.Int, "VISITNUM"),
		series.New(visit, series.String, "VISIT"),
		series.New(dtc, series.String, "VSDTC"),
	)
}

// buildCM reports concomitant medications from the clinical domain when it
// was generated alongside the trial.
func buildCM(rows []subjectRow) dataframe.DataFrame {
	var studyID, usubjid, trt, stdtc []string
	for _, r := range rows {
		if r.patient == nil {
			continue
		}
		for _, med := range r.patient.Medications {
			studyID = append(studyID, r.subject.StudyID)
			usubjid = append(usubjid, r.subject.USubjID)
			trt = append(trt, med.Display)
			stdtc = append(stdtc, sdtmDate(med.StartDate))
		}
	}
	return dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(domainCol("CM", len(studyID)), series.String, "DOMAIN"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(trt, series.String, "CMTRT"),
		series.New(stdtc, series.String, "CMSTDTC"),
	)
}

func domainCol(domain string, n int) []string {
	col := make([]string, n)
	for i := range col {
		col[i] = domain
	}
	return col
}

// ADaM renders the subject-level analysis dataset derived from the SDTM
// source domains.
type ADaM struct{}

func (a *ADaM) Accepts() []models.EntityKind {
	return []models.EntityKind{models.KindSubject}
}

func (a *ADaM) Transform(g *models.EntityGraph, cfg Config) (Output, error) {
	if _, err := requestedKinds(FormatADaM, a.Accepts(), cfg); err != nil {
		return Output{}, err
	}
	rows, err := trialRows(g)
	if err != nil {
		return Output{}, err
	}

	var studyID, usubjid, sex, arm, trtsdt, saffl []string
	var age, aecnt []int
	for _, r := range rows {
		studyID = append(studyID, r.subject.StudyID)
		usubjid = append(usubjid, r.subject.USubjID)
		age = append(age, r.person.Age(r.subject.EnrolledAt))
		sex = append(sex, string(r.person.Sex))
		arm = append(arm, r.subject.Arm)
		trtsdt = append(trtsdt, sdtmDate(r.subject.EnrolledAt))
		saffl = append(saffl, "Y")
		aecnt = append(aecnt, len(r.subject.AdverseEvents))
	}
	adsl := dataframe.New(
		series.New(studyID, series.String, "STUDYID"),
		series.New(usubjid, series.String, "USUBJID"),
		series.New(age, series.Int, "AGE"),
		series.New(sex, series.String, "SEX"),
		series.New(arm, series.String, "ARM"),
		series.New(trtsdt, series.String, "TRTSDT"),
		series.New(saffl, series.String, "SAFFL"),
		series.New(aecnt, series.Int, "AECNT"),
	)
	frames := map[string]dataframe.DataFrame{"ADSL": adsl}
	if err := validateDatasets(FormatADaM, frames, adamRequired); err != nil {
		return Output{}, err
	}
	data, err := renderDatasets(frames, []string{"ADSL"})
	if err != nil {
		return Output{}, err
	}
	return Output{Format: FormatADaM, ContentType: "text/csv", Data: data, Frames: frames}, nil
}
