package hover

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/matutils"
)

const (
	// Reward for crashing into a wall
	CrashReward float64 = -100.0

	// Distance from the target within which the craft is at goal
	GoalRadius float64 = 0.5
)

// hoverTask is a Task that needs access to the hovering environment
// itself, e.g. to tell whether the craft has crashed
type hoverTask interface {
	env.Task
	registerEnv(*hover)
	Target() *mat.VecDense
}

// HoverAt implements the task of hovering the craft at a fixed target
// point. Rewards are the negative Euclidean distance between the craft
// and the target on each timestep, so that reward is maximized by
// holding the craft at the target. Crashing into a wall gives
// CrashReward.
//
// Episodes end after a step limit or when the craft crashes into a
// wall.
type HoverAt struct {
	env.Starter
	stepLimit env.Ender

	target *mat.VecDense

	env *hover
}

// NewHoverAt creates and returns a new HoverAt task given a Starter,
// which determines the starting states; the maximum number of episode
// steps; and the 2-dimensional target point to hover at, measured in
// Box2D world units.
func NewHoverAt(s env.Starter, cutoff int, target *mat.VecDense) *HoverAt {
	if target.Len() != 2 {
		panic(fmt.Sprintf("newHoverAt: target should be 2-dimensional, "+
			"got %v-dimensional", target.Len()))
	}

	stepLimit := env.NewStepLimit(cutoff)

	return &HoverAt{Starter: s, stepLimit: stepLimit, target: target}
}

// registerEnv registers the hovering environment with the task so that
// the task can tell whether the craft has crashed
func (h *HoverAt) registerEnv(e *hover) {
	h.env = e
}

// Target returns the target point that the craft should hover at
func (h *HoverAt) Target() *mat.VecDense {
	return h.target
}

// String returns a string representation of the task
func (h *HoverAt) String() string {
	return fmt.Sprintf("HoverAt  |  Target: %v", matutils.Format(h.target))
}

// distanceTo returns the Euclidean distance from the argument position
// to the target point
func (h *HoverAt) distanceTo(x, y float64) float64 {
	dx := x - h.target.AtVec(0)
	dy := y - h.target.AtVec(1)
	return math.Sqrt(dx*dx + dy*dy)
}

// AtGoal returns a boolean indicating whether or not the argument state
// is within GoalRadius of the target point
func (h *HoverAt) AtGoal(state mat.Matrix) bool {
	return h.distanceTo(state.At(0, 0), state.At(1, 0)) <= GoalRadius
}

// GetReward returns the reward for a given state and action, resulting
// in a given next state. Rewards are the negative Euclidean distance
// from the craft to the target point, or CrashReward if the craft
// crashed into a wall.
func (h *HoverAt) GetReward(state, action, nextState mat.Vector) float64 {
	if h.env != nil && h.env.IsCrashed() {
		return CrashReward
	}
	return -h.distanceTo(nextState.AtVec(0), nextState.AtVec(1))
}

// Min returns the minimum attainable reward over all timesteps
func (h *HoverAt) Min() float64 { return CrashReward }

// Max returns the maximum attainable reward over all timesteps
func (h *HoverAt) Max() float64 { return 0.0 }

// RewardSpec returns the reward specification of the Task
func (h *HoverAt) RewardSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{h.Min()})
	upperBound := mat.NewVecDense(1, []float64{h.Max()})

	return env.NewSpec(shape, env.Reward, lowerBound, upperBound,
		env.Continuous)
}

// End determines if a timestep is the last timestep in the episode.
// If so, it changes the TimeStep's StepType to timestep.Last and
// returns true. Episodes end when the craft crashes into a wall or
// when the step limit is reached.
func (h *HoverAt) End(t *timestep.TimeStep) bool {
	if h.env != nil && h.env.IsCrashed() {
		t.SetEnd(timestep.TerminalStateReached)
		return true
	}

	return h.stepLimit.End(t)
}
