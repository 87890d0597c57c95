// Package summarize implements hierarchical map-reduce summarization.
//
// Each input document (or chunk) is summarized independently by the map
// template. When the combined partial summaries exceed the size budget they
// are collapsed in groups through the reduce template until they fit, and a
// final reduce call produces the single summary that is returned.
package summarize

import (
	"errors"
	"fmt"

	"text-digest/internal/domain/entity"
)

// Sentinel errors for summarization use case operations.
var (
	// ErrEmptyInput indicates that no documents were supplied.
	ErrEmptyInput = fmt.Errorf("%w: no documents to summarize", entity.ErrInvalidInput)

	// ErrBudgetUnsatisfiable indicates that collapsing could not bring the
	// partial summaries under TokenMax.
	ErrBudgetUnsatisfiable = errors.New("summary size budget cannot be satisfied")

	// ErrInvalidTemplate indicates a prompt template without exactly one placeholder.
	ErrInvalidTemplate = errors.New("invalid prompt template")

	// ErrInvalidConfig indicates a Service constructed with unusable settings.
	ErrInvalidConfig = errors.New("invalid summarizer config")
)

// Phase names the step of a run in which a generator call happened.
type Phase string

const (
	PhaseMap      Phase = "map"
	PhaseCollapse Phase = "collapse"
	PhaseReduce   Phase = "reduce"
)

// GenerationError reports a generator failure together with the phase it
// happened in. No retry or partial result follows such an error.
type GenerationError struct {
	Phase Phase
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed in %s phase: %v", e.Phase, e.Cause)
}

// Unwrap returns the generator error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}
