// Package orchestrator runs the benchmark sweep: one iteration per
// configuration, strictly in sequence, each producing exactly one run record.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/process"
	"github.com/samurailab/poolsweep/internal/sweep"
)

// Phase is a state of one sweep iteration.
type Phase string

const (
	PhaseConfiguring Phase = "configuring"
	PhaseRestarting  Phase = "restarting"
	PhaseWarmingUp   Phase = "warming-up"
	PhaseMeasuring   Phase = "measuring"
	PhaseExtracting  Phase = "extracting"
	PhaseRecording   Phase = "recording"
	PhaseDone        Phase = "done"
)

// ServiceController reconfigures and restarts the service under test.
type ServiceController interface {
	WriteOverride(tc sweep.TestConfiguration) error
	Restart(ctx context.Context) error
}

// LoadRunner runs the two load phases.
type LoadRunner interface {
	RunWarmup(ctx context.Context) error
	RunMeasured(ctx context.Context, tc sweep.TestConfiguration, outputPath string) error
}

// MetricsExtractor turns a load summary file into metrics. It never fails.
type MetricsExtractor func(path string) sweep.MetricsSnapshot

// ResultStore persists run records.
type ResultStore interface {
	NewRecord(tc sweep.TestConfiguration, status sweep.Status) sweep.RunRecord
	Save(rec sweep.RunRecord) (string, error)
	SummaryPath(tc sweep.TestConfiguration) string
}

// Observer is notified as the sweep progresses. Calls happen on the sweep
// goroutine.
type Observer interface {
	IterationStarted(index, total int, tc sweep.TestConfiguration)
	PhaseChanged(index int, phase Phase)
	IterationFinished(index, total int, rec sweep.RunRecord, path string)
}

// Summary reports what a sweep did.
type Summary struct {
	Total       int
	Completed   int
	Succeeded   int
	Failed      int
	Unsaved     int
	Interrupted bool
}

// Sweep wires the collaborators of one sweep together.
type Sweep struct {
	service  ServiceController
	load     LoadRunner
	extract  MetricsExtractor
	store    ResultStore
	observer Observer
	sweepID  string
}

// Option customizes a Sweep.
type Option func(*Sweep)

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Sweep) { s.observer = o }
}

// WithSweepID stamps every record with id.
func WithSweepID(id string) Option {
	return func(s *Sweep) { s.sweepID = id }
}

// New creates a Sweep.
func New(service ServiceController, load LoadRunner, extract MetricsExtractor, store ResultStore, opts ...Option) *Sweep {
	s := &Sweep{
		service:  service,
		load:     load,
		extract:  extract,
		store:    store,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes every configuration in order. A failing iteration is recorded
// and the sweep moves on; only cancellation of ctx stops it early, in which
// case Summary.Interrupted is set, nothing is recorded for the aborted
// iteration and the services are left as they are.
func (s *Sweep) Run(ctx context.Context, configs []sweep.TestConfiguration) Summary {
	summary := Summary{Total: len(configs)}

	for i, tc := range configs {
		index := i + 1
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		s.observer.IterationStarted(index, len(configs), tc)
		result := s.runIteration(ctx, index, tc)

		if result.interrupted() {
			log.WithFields(fields(tc)).Warn("sweep interrupted")
			summary.Interrupted = true
			break
		}

		s.observer.PhaseChanged(index, PhaseRecording)
		rec := s.toRecord(index, tc, result)
		path, err := s.store.Save(rec)
		if err != nil {
			log.WithFields(fields(tc)).WithError(err).Error("failed to save run record")
			summary.Unsaved++
		}

		summary.Completed++
		if rec.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}

		s.observer.PhaseChanged(index, PhaseDone)
		s.observer.IterationFinished(index, len(configs), rec, path)
	}

	return summary
}

// runIteration drives one configuration through the state machine. Panics
// are converted into an unexpected failure of the phase that raised them.
func (s *Sweep) runIteration(ctx context.Context, index int, tc sweep.TestConfiguration) (result stepResult) {
	phase := PhaseConfiguring

	defer func() {
		if r := recover(); r != nil {
			result = failure(phase, KindUnexpected, fmt.Errorf("panic: %v", r))
		}
	}()

	summaryPath := s.store.SummaryPath(tc)

	steps := []struct {
		phase Phase
		run   func() error
	}{
		{PhaseConfiguring, func() error { return s.service.WriteOverride(tc) }},
		{PhaseRestarting, func() error { return s.service.Restart(ctx) }},
		{PhaseWarmingUp, func() error { return s.load.RunWarmup(ctx) }},
		{PhaseMeasuring, func() error { return s.load.RunMeasured(ctx, tc, summaryPath) }},
	}

	for _, step := range steps {
		phase = step.phase
		s.observer.PhaseChanged(index, phase)

		err := step.run()
		if ctx.Err() != nil {
			return failure(phase, KindInterrupted, ctx.Err())
		}
		if err != nil {
			return failure(phase, classify(err), err)
		}
	}

	phase = PhaseExtracting
	s.observer.PhaseChanged(index, phase)
	return success(s.extract(summaryPath))
}

func (s *Sweep) toRecord(index int, tc sweep.TestConfiguration, result stepResult) sweep.RunRecord {
	status := sweep.StatusSuccess
	if result.err != nil {
		status = sweep.StatusFailed
	}

	rec := s.store.NewRecord(tc, status)
	rec.SweepID = s.sweepID
	rec.Iteration = index

	if result.err != nil {
		rec.ErrorDetail = result.err.Error()
		log.WithFields(fields(tc)).WithFields(log.Fields{
			"phase": result.err.Phase,
			"kind":  result.err.Kind,
		}).WithError(result.err.Err).Error("iteration failed")
		return rec
	}

	metrics := result.metrics
	rec.Metrics = &metrics
	return rec
}

func classify(err error) ErrorKind {
	if process.IsExternal(err) {
		return KindExternalProcess
	}
	return KindUnexpected
}

func fields(tc sweep.TestConfiguration) log.Fields {
	return log.Fields{
		"resourceLimit": tc.ResourceLimit,
		"workerThreads": tc.WorkerThreads,
		"poolSize":      tc.PoolSize,
	}
}

// ErrorKind classifies an iteration failure.
type ErrorKind string

const (
	KindExternalProcess ErrorKind = "external-process"
	KindUnexpected      ErrorKind = "unexpected"
	KindInterrupted     ErrorKind = "interrupted"
)

// StepError is the failure of one phase.
type StepError struct {
	Phase Phase
	Kind  ErrorKind
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// stepResult is either metrics or an error, never both.
type stepResult struct {
	metrics sweep.MetricsSnapshot
	err     *StepError
}

func success(m sweep.MetricsSnapshot) stepResult {
	return stepResult{metrics: m}
}

func failure(phase Phase, kind ErrorKind, err error) stepResult {
	return stepResult{err: &StepError{Phase: phase, Kind: kind, Err: err}}
}

func (r stepResult) interrupted() bool {
	return r.err != nil && (r.err.Kind == KindInterrupted || errors.Is(r.err.Err, context.Canceled))
}

type nopObserver struct{}

func (nopObserver) IterationStarted(int, int, sweep.TestConfiguration) {}
func (nopObserver) PhaseChanged(int, Phase) {}
func (nopObserver) IterationFinished(int, int, sweep.RunRecord, string) {}
