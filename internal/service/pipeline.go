package service

import (
	"context"
	"fmt"
)

// PipelineStep is one named stage of a sequential workflow over shared state S.
type PipelineStep[S any] struct {
	Name string
	Run  func(ctx context.Context, state *S) error
}

// StepError reports the stage that stopped a pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Pipeline runs its steps in order and stops at the first failure.
type Pipeline[S any] struct {
	steps []PipelineStep[S]
}

// NewPipeline builds a pipeline from ordered steps.
func NewPipeline[S any](steps ...PipelineStep[S]) *Pipeline[S] {
	return &Pipeline[S]{steps: steps}
}

// Steps lists the step names in execution order.
func (p *Pipeline[S]) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name)
	}
	return names
}

// Run executes every step against state. A cancelled context stops the pipeline before the
// next step starts.
func (p *Pipeline[S]) Run(ctx context.Context, state *S) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
		if err := step.Run(ctx, state); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}
