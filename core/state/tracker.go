// Package state tracks each service's progress through the pipeline
// and enforces parity between the downloaded and processed service
// sets. A service advances strictly forward; there is no retry path.
package state

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/qmuntal/stateless"
	"go.uber.org/zap"

	"github.com/santoshpalla27/aws-frontend-estimation/core/determinism"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/errors"
	"github.com/santoshpalla27/aws-frontend-estimation/internal/logging"
)

// Pipeline states, advanced strictly in this order
const (
	StateDownloaded = "Downloaded"
	StateNormalized = "Normalized"
	StateValidated  = "Validated"
	StateOutput     = "Output"
	StateVersioned  = "Versioned"
)

// Triggers for each forward step
const (
	triggerNormalize = "normalize"
	triggerValidate  = "validate"
	triggerOutput    = "output"
	triggerVersion   = "version"
)

// Tracker holds one state machine per service for a single run
type Tracker struct {
	machines *determinism.StableMap[string, *stateless.StateMachine]
	log      *zap.Logger
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		machines: determinism.NewStableMap[string, *stateless.StateMachine](),
		log:      logging.Component("state"),
	}
}

// Register creates the machine for a service that completed its
// download. Registration is what puts a service into the parity set.
func (t *Tracker) Register(service string) {
	machine := stateless.NewStateMachine(StateDownloaded)
	machine.Configure(StateDownloaded).Permit(triggerNormalize, StateNormalized)
	machine.Configure(StateNormalized).Permit(triggerValidate, StateValidated)
	machine.Configure(StateValidated).Permit(triggerOutput, StateOutput)
	machine.Configure(StateOutput).Permit(triggerVersion, StateVersioned)
	machine.Configure(StateVersioned)

	t.machines.Set(service, machine)
	t.log.Debug("service registered", zap.String("service", service))
}

// MarkNormalized advances a service from Downloaded
func (t *Tracker) MarkNormalized(service string) error {
	return t.fire(service, triggerNormalize, StateNormalized)
}

// MarkValidated advances a service from Normalized
func (t *Tracker) MarkValidated(service string) error {
	return t.fire(service, triggerValidate, StateValidated)
}

// MarkOutput advances a service from Validated
func (t *Tracker) MarkOutput(service string) error {
	return t.fire(service, triggerOutput, StateOutput)
}

// MarkVersioned advances a service from Output to the terminal state
func (t *Tracker) MarkVersioned(service string) error {
	return t.fire(service, triggerVersion, StateVersioned)
}

func (t *Tracker) fire(service, trigger, target string) error {
	machine, ok := t.machines.Get(service)
	if !ok {
		return errors.StateTransition(service, fmt.Errorf("service was never registered")).
			WithContext("attempted", target)
	}

	actual := machine.MustState().(string)
	if err := machine.Fire(trigger); err != nil {
		return errors.StateTransition(service, err).
			WithContext("actual", actual).
			WithContext("attempted", target)
	}

	t.log.Debug("service advanced",
		zap.String("service", service),
		zap.String("from", actual),
		zap.String("to", target))
	return nil
}

// State returns the current state of a service
func (t *Tracker) State(service string) (string, bool) {
	machine, ok := t.machines.Get(service)
	if !ok {
		return "", false
	}
	return machine.MustState().(string), true
}

// Services returns the registered service codes in sorted order
func (t *Tracker) Services() []string {
	return t.machines.Keys()
}

// InState returns the services currently resting in the given state
func (t *Tracker) InState(state string) []string {
	var services []string
	t.machines.Range(func(service string, machine *stateless.StateMachine) bool {
		if machine.MustState().(string) == state {
			services = append(services, service)
		}
		return true
	})
	return services
}

// CheckComplete verifies that every registered service reached the
// terminal Versioned state. The report names each straggler and the
// state it stalled in.
func (t *Tracker) CheckComplete() error {
	var stragglers *multierror.Error
	t.machines.Range(func(service string, machine *stateless.StateMachine) bool {
		if s := machine.MustState().(string); s != StateVersioned {
			stragglers = multierror.Append(stragglers,
				fmt.Errorf("%s stalled in %s", service, s))
		}
		return true
	})

	if err := stragglers.ErrorOrNil(); err != nil {
		return errors.Wrap(errors.TypeStateTransition,
			"not every service reached Versioned", err)
	}
	return nil
}

// CheckParity compares the set of service codes with a successful
// download against the set that was processed, and fails on any
// asymmetry with both one-sided differences listed.
func CheckParity(downloaded, processed []string) error {
	missing := setDifference(downloaded, processed)
	unexpected := setDifference(processed, downloaded)
	if len(missing) > 0 || len(unexpected) > 0 {
		return errors.ParityMismatch(missing, unexpected)
	}
	return nil
}

// setDifference returns the members of a absent from b, sorted
func setDifference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if !inB[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
