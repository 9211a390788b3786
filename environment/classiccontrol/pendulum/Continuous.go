package pendulum

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// Continuous implements the classic control environment Pendulum with
// continuous actions. Actions are continuous and 1-dimensional,
// determining the torque to apply to the pendulum at its fixed base.
// Actions are bounded by [-2, 2] = [MinContinuousAction,
// MaxContinuousAction]. Actions outside of this region are clipped to
// stay within these bounds.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates and returns a new Continuous action Pendulum
// environment with the argument task
func NewContinuous(t env.Task, discount float64) (env.Environment,
	ts.TimeStep, error) {
	baseEnv, firstStep, err := newBase(t, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}

	pendulum := Continuous{baseEnv}

	return &pendulum, firstStep, nil
}

// Step takes one environmental step given action a and returns the
// next timestep as a timestep.TimeStep and a bool indicating whether
// or not the episode has ended. Actions are 1-dimensional and
// continuous, consisting of the torque to apply at the pendulum's
// fixed base. Actions outside the legal range of [-2, 2] are clipped
// to stay within this range.
func (p *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	// Ensure action is 1-dimensional
	if a.Len() > ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be " +
			"1-dimensional")
	}

	// Clip action to the legal range of continuous actions
	torque := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)

	// Calculate the next state given the torque/action
	nextState := p.nextState(torque)

	// Update the embedded base environment
	nextStep, last := p.update(a, nextState)

	return nextStep, last, nil
}

// ActionSpec returns the action specification of the environment
func (p *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)

	minAction, maxAction := p.torqueBounds.Min, p.torqueBounds.Max
	lowerBound := mat.NewVecDense(ActionDims, []float64{minAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{maxAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// String converts the environment to a string representation
func (p *Continuous) String() string {
	str := "Continuous Pendulum  |  theta: %v  |  theta dot: %v\n"
	theta := p.lastStep.Observation.AtVec(0)
	thetadot := p.lastStep.Observation.AtVec(1)

	return fmt.Sprintf(str, theta, thetadot)
}
