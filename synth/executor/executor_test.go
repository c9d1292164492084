package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/vocab"
)

type ExecutorTestSuite struct {
	suite.Suite
	vocab *vocab.Vocabulary
}

func (s *ExecutorTestSuite) SetupTest() {
	s.vocab = vocab.MustDefault()
}

func (s *ExecutorTestSuite) profile() models.Profile {
	return models.Profile{
		Count:    25,
		Seed:     42,
		AsOf:     time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		AgeRange: models.AgeRange{Min: 40, Max: 80},
		SexRatio: 0.5,
		ConditionPrevalence: map[string]float64{
			"type2_diabetes": 1.0,
			"hypertension":   0.5,
		},
		Domains: []models.Domain{models.DomainClinical, models.DomainPayer, models.DomainPharmacy},
	}
}

func (s *ExecutorTestSuite) TestLifecycle() {
	exec := New(s.profile(), s.vocab)
	s.Equal(StatePending, exec.State())

	graph, err := exec.Run()
	s.Require().NoError(err)
	s.Equal(StateComplete, exec.State())

	p := exec.Progress()
	s.Equal(25, p.Completed)
	s.Equal(25, p.Total)

	s.Len(graph.Persons, 25)
	s.Len(graph.Patients, 25)
	s.Len(graph.Members, 25)
	s.Len(graph.RxMembers, 25)
	s.Require().NoError(graph.Verify())
}

func (s *ExecutorTestSuite) TestDerivationProducesClaims() {
	graph, err := New(s.profile(), s.vocab).Run()
	s.Require().NoError(err)

	var claims, rxClaims int
	for _, m := range graph.Members {
		claims += len(m.Claims)
		for _, c := range m.Claims {
			s.NotEmpty(c.SourceEncounterID)
			s.NotEmpty(c.DiagnosisCodes)
		}
	}
	for _, m := range graph.RxMembers {
		rxClaims += len(m.PharmacyClaims)
		s.Equal(len(m.Prescriptions), len(m.PharmacyClaims))
	}
	// Every patient has at least one billable encounter and one fill.
	s.Greater(claims, 0)
	s.Greater(rxClaims, 0)
}

func (s *ExecutorTestSuite) TestDeterministicAcrossChunkSizes() {
	small := New(s.profile(), s.vocab)
	small.ChunkSize = 5
	big := New(s.profile(), s.vocab)
	big.ChunkSize = 100

	sg, err := small.Run()
	s.Require().NoError(err)
	bg, err := big.Run()
	s.Require().NoError(err)

	s.Equal(sg.Keys(), bg.Keys())
	s.Require().Equal(len(sg.Patients), len(bg.Patients))
	for i := range sg.Patients {
		s.Equal(sg.Patients[i], bg.Patients[i])
	}
	for i := range sg.Members {
		s.Equal(sg.Members[i].Claims, bg.Members[i].Claims)
	}
}

func (s *ExecutorTestSuite) TestValidationRejectsBadCount() {
	p := s.profile()
	p.Count = 0
	exec := New(p, s.vocab)

	_, err := exec.Run()
	s.Require().Error(err)
	s.True(models.IsConfigurationError(err))
	s.Equal(StateFailed, exec.State())
}

func (s *ExecutorTestSuite) TestValidationRejectsCountOverCeiling() {
	p := s.profile()
	p.Count = 50
	p.MaxCount = 10
	_, err := New(p, s.vocab).Run()
	s.Require().Error(err)
	s.True(models.IsConfigurationError(err))
}

func (s *ExecutorTestSuite) TestValidationRejectsUnknownCondition() {
	p := s.profile()
	p.ConditionPrevalence = map[string]float64{"dropsy": 0.5}
	exec := New(p, s.vocab)

	_, err := exec.Run()
	s.Require().Error(err)
	s.True(models.IsConfigurationError(err))
	s.Contains(err.Error(), "dropsy")
}

func (s *ExecutorTestSuite) TestChunkFailureAbortsBatch() {
	// A negative treatment weight slips past profile validation and breaks
	// weighted selection inside generation.
	broken := vocab.MustDefault()
	opts := broken.Treatments["type2_diabetes"]
	opts[0].Weight = -1
	broken.Treatments["type2_diabetes"] = opts

	p := s.profile()
	p.ConditionPrevalence = map[string]float64{"type2_diabetes": 1.0}
	exec := New(p, broken)
	exec.ChunkSize = 10

	graph, err := exec.Run()
	s.Require().Error(err)
	s.Nil(graph)
	s.Equal(StateFailed, exec.State())

	var chunkErr *ChunkFailureError
	s.Require().ErrorAs(err, &chunkErr)
	s.Equal(0, chunkErr.Chunk)
}

func TestExecutorTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutorTestSuite))
}

func TestChunkFailureErrorMessage(t *testing.T) {
	err := &ChunkFailureError{Chunk: 3, Index: 317, Err: assert.AnError}
	require.Contains(t, err.Error(), "chunk 3")
	require.Contains(t, err.Error(), "entity 317")
	assert.Equal(t, assert.AnError, err.Unwrap())
}
