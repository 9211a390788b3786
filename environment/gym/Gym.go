// Package gym exposes OpenAI Gym environments through the Go bindings
// at https://github.com/samuelfneumann/GoGym.
//
// Environments from the Classic Control and MuJoCo suites can be used.
// Each environment runs with its default task and episode cutoff,
// since GoGym does not yet expose a way to change the cutoff.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// GymEnv adapts a GoGym environment to the environment.Environment
// interface
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite. The underlying Gym environment is
// seeded with seed and reset before being returned.
func New(name string, discount float64, seed uint64) (env.Environment,
	ts.TimeStep, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not create "+
			"environment: %v", err)
	}
	goGymEnv.Seed(int(seed))

	obs, err := goGymEnv.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: could not reset "+
			"environment: %v", err)
	}

	gymEnv := &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
	}

	first := ts.New(ts.First, 0, discount, obs, 0)
	gymEnv.currentStep = first

	return gymEnv, first, nil
}

// Step takes a single environmental step. Since Gym reports only a
// single done flag, episodes that end are always marked as having
// reached a terminal state, even when Gym cut the episode off at its
// internal step limit.
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	next := ts.New(ts.Mid, reward, g.discount, obs,
		g.currentStep.Number+1)
	if done {
		next.SetEnd(ts.TerminalStateReached)
	}
	g.currentStep = next

	return next, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	first := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = first

	return first, nil
}

// CurrentTimeStep returns the current timestep in the environment
func (g *GymEnv) CurrentTimeStep() ts.TimeStep {
	return g.currentStep
}

// boundsSpec builds an environment Spec of kind t from the bounds of
// a GoGym space
func boundsSpec(low, high *mat.VecDense, t env.SpecType) env.Spec {
	shape := mat.NewVecDense(low.Len(), nil)

	return env.NewSpec(shape, t, low, high, env.Continuous)
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	space := g.ObservationSpace()

	switch space.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		return boundsSpec(space.Low()[0], space.High()[0], env.Observation)
	default:
		panic(fmt.Sprintf("observationSpec: invalid space type %T, package "+
			"gym supports only GoGym's BoxSpace or DiscreteSpace", space))
	}
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	space := g.ActionSpace()

	switch space.(type) {
	case *gogym.BoxSpace, *gogym.DiscreteSpace:
		return boundsSpec(space.Low()[0], space.High()[0], env.Action)
	default:
		panic(fmt.Sprintf("actionSpec: invalid space type %T, package "+
			"gym supports only GoGym's BoxSpace or DiscreteSpace", space))
	}
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	low := mat.NewVecDense(1, []float64{g.discount})

	return env.NewSpec(shape, env.Discount, low, low, env.Continuous)
}

// Start implements the environment.Environment interface. This function
// panics, since the underlying Gym environment controls its own
// starting states.
func (g *GymEnv) Start() *mat.VecDense {
	panic("start: cannot calculate starting state for GymEnv")
}

// GetReward implements the environment.Environment interface. This
// function panics, since the underlying Gym environment computes its
// own rewards.
func (g *GymEnv) GetReward(_, _, _ mat.Vector) float64 {
	panic("getReward: cannot calculate reward for transition in GymEnv")
}

// End implements the environment.Environment interface. This
// function panics, since the underlying Gym environment controls its
// own episode ends.
func (g *GymEnv) End(*ts.TimeStep) bool {
	panic("end: cannot calculate ending for GymEnv")
}

// AtGoal implements the environment.Environment interface. This
// function panics.
func (g *GymEnv) AtGoal(mat.Matrix) bool {
	panic("atGoal: cannot calculate at goal for GymEnv")
}

// Min implements the environment.Environment interface. This function
// panics.
func (g *GymEnv) Min() float64 {
	panic("min: cannot calculate minimum reward for GymEnv")
}

// Max implements the environment.Environment interface. This function
// panics.
func (g *GymEnv) Max() float64 {
	panic("max: cannot calculate maximum reward for GymEnv")
}

// RewardSpec implements the environment.Environment interface. This
// function panics.
func (g *GymEnv) RewardSpec() env.Spec {
	panic("rewardSpec: cannot calculate reward spec for GymEnv")
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
