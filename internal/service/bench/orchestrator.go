package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"validator-bench/internal/schema"
)

// Candidate is one validator entered into a benchmark.
type Candidate struct {
	Name      string
	Validator schema.Validator
}

// Runner performs a single measured run.
type Runner interface {
	Run(ctx context.Context, library string, v schema.Validator) (Result, error)
}

// Orchestrator runs candidates one after another.
type Orchestrator struct {
	runner   Runner
	observer Observer
	logger   zerolog.Logger
}

// NewOrchestrator returns an orchestrator over runner. observer may be nil.
func NewOrchestrator(runner Runner, observer Observer) *Orchestrator {
	if observer == nil {
		observer = Observers(nil)
	}
	return &Orchestrator{
		runner:   runner,
		observer: observer,
		logger:   log.With().Str("component", "orchestrator").Logger(),
	}
}

// RunAll runs every candidate strictly in order and returns one Result
// per candidate in the same order. The first failed run aborts the
// benchmark and no results are returned.
func (o *Orchestrator) RunAll(ctx context.Context, candidates []Candidate) ([]Result, error) {
	if err := checkCandidates(candidates); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		o.logger.Info().
			Str("library", c.Name).
			Int("run", i+1).
			Int("of", len(candidates)).
			Msg("Starting run")
		o.observer.RunStarted(c.Name)

		r, err := o.runner.Run(ctx, c.Name, c.Validator)
		if err != nil {
			var re *RunError
			if !errors.As(err, &re) {
				err = &RunError{Library: c.Name, Err: err}
			}
			o.observer.RunFailed(c.Name, err)
			o.logger.Error().Err(err).Str("library", c.Name).Msg("Benchmark aborted")
			return nil, err
		}

		o.observer.RunFinished(r)
		results = append(results, r)
	}
	return results, nil
}

func checkCandidates(candidates []Candidate) error {
	if len(candidates) == 0 {
		return fmt.Errorf("%w: no validators selected", ErrConfiguration)
	}
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.Name == "" {
			return fmt.Errorf("%w: validator without a name", ErrConfiguration)
		}
		if c.Validator == nil {
			return fmt.Errorf("%w: validator %q is nil", ErrConfiguration, c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: validator %q listed twice", ErrConfiguration, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
