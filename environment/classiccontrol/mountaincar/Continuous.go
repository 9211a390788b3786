package mountaincar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/floatutils"
)

// Continuous implements the classic control Mountain Car environment
// with continuous actions. The agent controls an underpowered car in a
// valley between two hills. The car cannot drive straight up the hill.
// It must rock back and forth from hill to hill, using its momentum to
// gradually climb higher.
//
// State features consist of the car's x position and velocity, bounded
// by the MinPosition, MaxPosition, and MaxSpeed constants defined in
// this package. The sign of the velocity feature gives the direction
// of travel, negative for left and positive for right. Upon reaching
// the minimum or maximum position, the velocity of the car is set
// to 0.
//
// Actions are 1-dimensional and continuous, giving the force to apply
// to the car and in which direction. Actions are bounded by [-1, 1] =
// [MinContinuousAction, MaxContinuousAction], and actions outside this
// range are clipped to stay within it.
//
// Continuous implements the environment.Environment interface
type Continuous struct {
	*base
}

// NewContinuous creates a new Continuous action Mountain Car
// environment with the argument task
func NewContinuous(t env.Task, discount float64) (env.Environment,
	ts.TimeStep, error) {
	baseEnv, firstStep, err := newBase(t, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}

	return &Continuous{baseEnv}, firstStep, nil
}

// ActionSpec returns the action specification of the environment
func (m *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims, []float64{MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims, []float64{MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}

// Step takes one environmental step given action a and returns the next
// timestep as a timestep.TimeStep and a bool indicating whether or not
// the episode has ended. Actions give the horizontal force to apply to
// the car and are clipped to [-1, 1] before use.
func (m *Continuous) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() > ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be " +
			"1-dimensional")
	}

	force := floatutils.Clip(a.AtVec(0), MinContinuousAction,
		MaxContinuousAction)

	nextStep, last := m.update(a, m.nextState(force))

	return nextStep, last, nil
}
