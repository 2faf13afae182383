// Package pipeline runs the third-party configure steps of one configure
// invocation in order.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/toolexec"
)

// Env is what a step sees while it runs.
type Env struct {
	SourceDir  string
	DestDir    string
	Descriptor descriptor.Descriptor
	Settings   settings.View
	Runner     *toolexec.Runner
}

// Action configures one tool and returns the settings it contributes.
type Action func(ctx context.Context, env Env) (settings.Patch, error)

// Step is a named configure step.
type Step struct {
	Name   string
	Action Action
}

// StepError reports the step that stopped the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("configure step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Registry is an ordered, immutable list of uniquely named steps.
type Registry struct {
	steps []Step
}

// NewRegistry returns a registry running steps in the given order.
func NewRegistry(steps ...Step) (*Registry, error) {
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("step %d has no name", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate step %q", s.Name)
		}
		if s.Action == nil {
			return nil, fmt.Errorf("step %q has no action", s.Name)
		}
		seen[s.Name] = true
	}
	return &Registry{steps: append([]Step(nil), steps...)}, nil
}

// Names returns the step names in run order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

var errNoRegistry = errors.New("pipeline: no step registry")
