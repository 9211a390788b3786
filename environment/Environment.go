// Package environment outlines the interfaces and structs needed to implement
// concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end based on the current timestep.
// If an episode should end, the Ender modifies the timestep in-place
// so that its StepType field is timestep.Last and its EndType
// describes how the episode ended.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment. Tasks determine the starting states of the environment
// through an embedded Starter and when episodes end through an
// embedded Ender.
type Task interface {
	Starter
	Ender

	// GetReward returns the reward for taking some action in some
	// state, resulting in some next state
	GetReward(state, action, nextState mat.Vector) float64

	// AtGoal returns whether the argument state is a goal state
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	// over all timesteps
	Min() float64
	Max() float64

	RewardSpec() Spec
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task

	// Reset resets the environment to some starting state
	Reset() (timestep.TimeStep, error)

	// Step takes one environmental step given some action, returning
	// the next timestep and whether it is the last in the episode
	Step(action *mat.VecDense) (timestep.TimeStep, bool, error)

	// CurrentTimeStep returns the last timestep in the environment
	CurrentTimeStep() timestep.TimeStep

	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// Closer is an environment that must be closed after its last use
type Closer interface {
	Environment
	Close() error
}
