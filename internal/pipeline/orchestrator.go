package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/goplus/tpconf/internal/descriptor"
	"github.com/goplus/tpconf/internal/settings"
	"github.com/goplus/tpconf/internal/toolexec"
	"github.com/qiniu/x/log"
)

// State is a phase of a configure run.
type State int

const (
	Idle State = iota
	Deriving
	DescriptorResolved
	RunningSteps
	Done
	Failed
)

var stateNames = [...]string{
	Idle:               "idle",
	Deriving:           "deriving",
	DescriptorResolved: "descriptor-resolved",
	RunningSteps:       "running-steps",
	Done:               "done",
	Failed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Transition is one state change. Step is set while steps are running.
type Transition struct {
	From, To State
	Step     string
	Err      error
}

// Observer is notified of every transition and of every step started.
type Observer func(Transition)

// Orchestrator drives a single configure run:
// derive settings, resolve the descriptor, then run every step in order.
type Orchestrator struct {
	SourceDir string
	DestDir   string

	// Derive produces the derived settings.
	Derive func() (*settings.Settings, error)

	// Bootstrap, when set, runs after derivation and before the descriptor
	// is resolved. It usually generates a throwaway primary build.
	Bootstrap func(ctx context.Context, view settings.View) error

	Resolver descriptor.Resolver
	Registry *Registry
	Runner   *toolexec.Runner
	Observer Observer

	state    State
	settings *settings.Settings
	desc     descriptor.Descriptor
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Settings returns the settings built so far, nil before derivation.
func (o *Orchestrator) Settings() *settings.Settings {
	return o.settings
}

// Descriptor returns the resolved descriptor.
func (o *Orchestrator) Descriptor() descriptor.Descriptor {
	return o.desc
}

// Run executes the whole run. The first failure stops it; steps already
// finished keep their settings.
func (o *Orchestrator) Run(ctx context.Context) (*settings.Settings, error) {
	if o.state != Idle {
		return nil, fmt.Errorf("pipeline: orchestrator already ran (state %s)", o.state)
	}
	if err := o.run(ctx); err != nil {
		o.transition(Failed, "", err)
		return o.settings, err
	}
	o.transition(Done, "", nil)
	return o.settings, nil
}

func (o *Orchestrator) run(ctx context.Context) error {
	if o.Derive == nil {
		return errors.New("pipeline: no derivation")
	}
	if o.Resolver == nil {
		return errors.New("pipeline: no descriptor resolver")
	}
	if o.Registry == nil {
		return errNoRegistry
	}

	o.transition(Deriving, "", nil)
	s, err := o.Derive()
	if err != nil {
		return err
	}
	o.settings = s

	view := readOnly{s}
	if o.Bootstrap != nil {
		if err := o.Bootstrap(ctx, view); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	desc, err := o.Resolver.Resolve(ctx, o.DestDir)
	if err != nil {
		return fmt.Errorf("resolve descriptor: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	o.desc = desc
	o.transition(DescriptorResolved, "", nil)

	o.transition(RunningSteps, "", nil)
	runner := o.Runner
	if runner == nil {
		runner = toolexec.New(nil)
	}
	for _, step := range o.Registry.steps {
		o.notify(Transition{From: RunningSteps, To: RunningSteps, Step: step.Name})
		patch, err := step.Action(ctx, Env{
			SourceDir:  o.SourceDir,
			DestDir:    o.DestDir,
			Descriptor: desc,
			Settings:   view,
			Runner:     runner,
		})
		if err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
		if err := s.Apply(step.Name, patch); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

// readOnly hides the Apply method of the running settings from steps.
type readOnly struct {
	settings.View
}

func (o *Orchestrator) transition(to State, step string, err error) {
	from := o.state
	o.state = to
	o.notify(Transition{From: from, To: to, Step: step, Err: err})
}

func (o *Orchestrator) notify(t Transition) {
	if o.Observer != nil {
		o.Observer(t)
	}
}

// LogObserver logs transitions through the package logger.
func LogObserver(t Transition) {
	switch {
	case t.Err != nil:
		log.Errorf("configure failed in %s: %v", t.From, t.Err)
	case t.Step != "":
		log.Infof("running step %s", t.Step)
	default:
		log.Infof("%s -> %s", t.From, t.To)
	}
}
