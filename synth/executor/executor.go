// Package executor drives a profile through validation, chunked generation,
// and the cross-domain derivation pass. A chunk either lands whole or fails
// the batch; the caller gets a complete graph or a structured error naming
// the chunk and entity that broke, never a silently truncated result.
package executor

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/synthhealth/datasynth/log"
	"github.com/synthhealth/datasynth/synth/constants"
	"github.com/synthhealth/datasynth/synth/gen"
	"github.com/synthhealth/datasynth/synth/models"
	"github.com/synthhealth/datasynth/synth/triggers"
	"github.com/synthhealth/datasynth/synth/utils"
	"github.com/synthhealth/datasynth/synth/vocab"
)

// State is an execution lifecycle phase.
type State string

const (
	StatePending    State = "PENDING"
	StateValidating State = "VALIDATING"
	StateExecuting  State = "EXECUTING"
	StateComplete   State = "COMPLETE"
	StateFailed     State = "FAILED"
)

// ChunkFailureError reports the chunk and entity index that sank a batch.
type ChunkFailureError struct {
	Chunk int
	Index int
	Err   error
}

func (e *ChunkFailureError) Error() string {
	return fmt.Sprintf("chunk %d failed at entity %d: %v", e.Chunk, e.Index, e.Err)
}

func (e *ChunkFailureError) Cause() error  { return e.Err }
func (e *ChunkFailureError) Unwrap() error { return e.Err }

// Progress is a point-in-time snapshot observable while a run is underway.
type Progress struct {
	State     State
	Completed int
	Total     int
}

// Execution carries one profile through the lifecycle. Construct with New,
// run once with Run; Progress is safe to poll from other goroutines.
type Execution struct {
	profile  models.Profile
	vocab    *vocab.Vocabulary
	registry *triggers.Registry

	// ChunkSize bounds how many entities generate between progress updates.
	// Zero means the configured default.
	ChunkSize int
	// Workers bounds generation parallelism. Zero means GOMAXPROCS.
	Workers int

	mu        sync.Mutex
	state     State
	completed int
}

// New prepares an execution in the PENDING state with the built-in trigger
// registry.
func New(p models.Profile, v *vocab.Vocabulary) *Execution {
	return &Execution{
		profile:   p,
		vocab:     v,
		registry:  triggers.NewRegistry(v, triggers.DefaultDURConfig()),
		ChunkSize: utils.GetEnvInt("DATASYNTH_CHUNK_SIZE", constants.DefaultChunkSize),
		state:     StatePending,
	}
}

// State reports the current lifecycle phase.
func (e *Execution) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Progress reports how far the run has gotten.
func (e *Execution) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Progress{State: e.state, Completed: e.completed, Total: e.profile.Count}
}

func (e *Execution) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	log.Executor.WithField("state", s).Debug("execution state change")
}

func (e *Execution) addCompleted(n int) {
	e.mu.Lock()
	e.completed += n
	e.mu.Unlock()
}

func (e *Execution) fail(err error) error {
	e.setState(StateFailed)
	log.Executor.WithError(err).Error("execution failed")
	return err
}

// Run executes the full lifecycle and returns the complete entity graph.
// Any failure leaves the execution FAILED with no partial result.
func (e *Execution) Run() (*models.EntityGraph, error) {
	e.setState(StateValidating)
	if err := e.validate(); err != nil {
		return nil, e.fail(err)
	}

	e.setState(StateExecuting)
	graph, err := e.generate()
	if err != nil {
		return nil, e.fail(err)
	}
	if err := e.derive(graph); err != nil {
		return nil, e.fail(err)
	}
	if err := graph.Verify(); err != nil {
		return nil, e.fail(errors.Wrap(err, "generated graph failed verification"))
	}

	e.setState(StateComplete)
	log.Executor.WithField("entities", len(graph.Persons)).Info("execution complete")
	return graph, nil
}

// validate layers vocabulary checks over the profile's own consistency
// checks: every prevalence key must name a known condition.
func (e *Execution) validate() error {
	if err := e.profile.Validate(); err != nil {
		return err
	}
	for key := range e.profile.ConditionPrevalence {
		if _, ok := e.vocab.ConditionFor(key); !ok {
			return models.NewConfigurationError("prevalence names unknown condition %q", key)
		}
	}
	return nil
}

func (e *Execution) chunkSize() int {
	if e.ChunkSize > 0 {
		return e.ChunkSize
	}
	return constants.DefaultChunkSize
}

// generate produces entities chunk by chunk. A failure anywhere in a chunk
// fails the batch; completed chunks are discarded rather than returned as a
// partial result.
func (e *Execution) generate() (*models.EntityGraph, error) {
	runner := gen.NewRunner(e.profile, e.vocab)
	runner.Workers = e.Workers

	graph := models.NewEntityGraph()
	size := e.chunkSize()
	for chunk, start := 0, 0; start < e.profile.Count; chunk, start = chunk+1, start+size {
		n := size
		if start+n > e.profile.Count {
			n = e.profile.Count - start
		}
		chunkGraph, failures := runner.GenerateRange(chunk, start, n)
		if len(failures) > 0 {
			f := failures[0]
			return nil, &ChunkFailureError{Chunk: f.Chunk, Index: f.Index, Err: f.Err}
		}
		graph.Absorb(chunkGraph)
		e.addCompleted(n)
		log.Executor.WithField("chunk", chunk).WithField("completed", start+n).
			Debug("chunk complete")
	}
	return graph, nil
}

// derive runs the cross-domain pass: parallel across identities, sequential
// within one identity so each event sees the records derived before it.
func (e *Execution) derive(graph *models.EntityGraph) error {
	keys := graph.Keys()
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type result struct {
		warnings []models.DerivationWarning
		err      error
	}
	results := make([]result, len(keys))
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				warns, err := e.registry.DeriveIdentity(graph, keys[i])
				results[i] = result{warnings: warns, err: err}
			}
		}()
	}
	for i := range keys {
		indices <- i
	}
	close(indices)
	wg.Wait()

	for i, res := range results {
		if res.err != nil {
			return errors.Wrapf(res.err, "derivation for %s", keys[i])
		}
		graph.Warnings = append(graph.Warnings, res.warnings...)
	}
	return nil
}
