package pendulum

import (
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
)

// SwingUp implements a task where the agent must swing the pendulum up
// and hold it in a vertical position. Rewards are the cosine of the
// pendulum angle measured from the positive y-axis. The goal state
// is the pendulum sticking straight up, at which point the agent gets
// a reward of 1.0 on each timestep.
//
// Episodes end after a step limit.
type SwingUp struct {
	env.Starter
	env.Ender
}

// NewSwingUp creates and returns a new SwingUp task
func NewSwingUp(s env.Starter, maxSteps int) *SwingUp {
	ender := env.NewStepLimit(maxSteps)
	return &SwingUp{s, ender}
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Rewards are the cosine of the pendulum angle
// in the next state.
func (s *SwingUp) GetReward(_ mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	th := nextState.AtVec(0)
	return math.Cos(th)
}

// AtGoal determines whether or not the argument state is the goal state
func (s *SwingUp) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) == 0
}

// Min returns the minimum possible reward
func (s *SwingUp) Min() float64 {
	return -1.0
}

// Max returns the maximum possible reward
func (s *SwingUp) Max() float64 {
	return 1.0
}

// RewardSpec returns the reward specification of the Task
func (s *SwingUp) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{s.Min()})
	upperBound := mat.NewVecDense(1, []float64{s.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}
