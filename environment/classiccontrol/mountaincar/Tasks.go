package mountaincar

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
)

const (
	// Commonly used goal position
	GoalPosition float64 = 0.45
)

// Goal implements the task of driving the car to a goal position on
// the right hill. Since the car is underpowered, it must rock back and
// forth from hill to hill until it builds enough momentum to reach the
// goal.
//
// This is a cost-to-goal task. Rewards are -1 on each timestep and 0
// for the action which transitions the car to the goal.
//
// Episodes end at a step limit or when the car reaches the goal
// position.
type Goal struct {
	env.Starter
	goalEnder env.Ender
	stepEnder env.Ender
	goalX     float64 // x position of goal
}

// NewGoal creates and returns a new Goal task given a Starter, which
// determines the starting states; the maximum number of episode
// steps; and the goal x position.
func NewGoal(s env.Starter, episodeSteps int, goalX float64) *Goal {
	stepEnder := env.NewStepLimit(episodeSteps)

	// The episode ends in a terminal state once the x position leaves
	// (-∞, goalX]
	legalPositions := []r1.Interval{{Min: math.Inf(-1), Max: goalX}}
	positionIndex := []int{0}
	goalEnder := env.NewIntervalLimit(legalPositions, positionIndex,
		timestep.TerminalStateReached)

	return &Goal{s, goalEnder, stepEnder, goalX}
}

// AtGoal returns a boolean indicating whether or not the argument state
// is the goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	return state.At(0, 0) >= g.goalX
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Rewards are -1.0 for every action except one
// which leads to the goal, which earns 0.0
func (g *Goal) GetReward(state mat.Vector, _ mat.Vector,
	nextState mat.Vector) float64 {
	if nextState.AtVec(0) >= g.goalX {
		return 0.0
	}
	return -1.0
}

// Min returns the minimum attainable reward over all timesteps
func (g *Goal) Min() float64 { return -1.0 }

// Max returns the maximum attainable reward over all timesteps
func (g *Goal) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the Task
func (g *Goal) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Discrete)
}

// End determines if a timestep is the last in the episode, marking it
// as such if so. The Goal task holds two separate enders, one for the
// goal position and one for the step limit, so End consults both. The
// goal ender runs first so that reaching the goal on the cutoff step
// still counts as reaching a terminal state.
func (g *Goal) End(t *timestep.TimeStep) bool {
	if g.goalEnder.End(t) {
		return true
	}

	return g.stepEnder.End(t)
}
