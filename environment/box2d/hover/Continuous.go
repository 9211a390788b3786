package hover

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Continuous implements the hovering environment. In this environment,
// an agent pilots a craft within a walled viewport. Gravity constantly
// pulls the craft toward the floor, and the agent fires thrusters to
// keep the craft aloft. Touching any wall crashes the craft and ends
// the episode.
//
// State observations are vectors consisting of the following features
// in the following order:
//
//	1. The x position of the craft in Box2D world units
//	   Bounds: [0, ViewportW / Scale]
//	2. The y position of the craft in Box2D world units
//	   Bounds: [0, ViewportH / Scale]
//	3. The x velocity of the craft
//	   Bounds: the bounds depend on the physical constants of the
//	   Box2D universe. With the defaults in this file, the bounds are
//	   [-100, 100]
//	4. The y velocity of the craft
//	   Bounds: the bounds depend on the physical constants of the
//	   Box2D universe. With the defaults in this file, the bounds are
//	   [-100, 100]
//
// Any Task used with this environment must have a Starter which
// returns 2-dimensional start vectors holding the craft's starting
// x and y position. Starting positions must leave the craft fully
// inside the walls.
//
// Actions are 2-dimensional and continuous. The first action dimension
// is the thrust to apply along the x axis, and the second is the
// thrust to apply along the y axis. Each dimension is bounded between
// [-1, 1], and actions outside of this range are clipped to stay
// within this range.
//
// Continuous implements the environment.Environment interface.
type Continuous struct {
	*hover
}

// NewContinuous returns a new hovering environment with continuous
// actions
func NewContinuous(task env.Task, discount float64) (env.Environment,
	ts.TimeStep, error) {
	h, firstStep, err := newHover(task, discount)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newContinuous: %v", err)
	}

	return &Continuous{h}, firstStep, nil
}

// ActionSpec returns the action specification of the environment
func (c *Continuous) ActionSpec() env.Spec {
	shape := mat.NewVecDense(ActionDims, nil)
	lowerBound := mat.NewVecDense(ActionDims,
		[]float64{MinContinuousAction, MinContinuousAction})
	upperBound := mat.NewVecDense(ActionDims,
		[]float64{MaxContinuousAction, MaxContinuousAction})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Continuous)
}
