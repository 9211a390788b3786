package gym_test

import (
	"testing"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/environment/gym"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// TestNew steps through a handful of continuous-action Gym
// environments. The test is skipped when no Python Gym installation
// is available to bridge to.
func TestNew(t *testing.T) {
	envNames := []string{
		// Classic Control
		"MountainCarContinuous-v0",
		"Pendulum-v0",
	}

	for i, envName := range envNames {
		env, first, err := gym.New(envName, 0.99, 123)
		if err != nil && i == 0 {
			t.Skipf("skipping: %v", err)
		}
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
			continue
		}
		if (env == nil || first == ts.TimeStep{}) {
			t.Error("new: env or step should not be nil if err is nil")
		}

		// Take a bunch of steps to ensure the environment works,
		// resetting whenever an episode ends
		actionDims := env.ActionSpec().LowerBound.Len()
		for step := 0; step < 15; step++ {
			next, done, err := env.Step(mat.NewVecDense(actionDims, nil))
			if err != nil {
				t.Errorf("env %v: %v", envName, err)
			} else if (next == ts.TimeStep{}) {
				t.Errorf("step: timestep %v should be non-nil", step)
			}

			if next != env.CurrentTimeStep() {
				t.Errorf("step: current timestep out of date "+
					"\n\twant(%v) \n\thave(%v)", next, env.CurrentTimeStep())
			}

			if done {
				start, err := env.Reset()
				if err != nil {
					t.Errorf("env %v: %v", envName, err)
				} else if (start == ts.TimeStep{}) {
					t.Error("reset: start timestep should be non-nil")
				}
			}
		}

		start, err := env.Reset()
		if err != nil {
			t.Errorf("env %v: %v", envName, err)
		}
		if !start.First() {
			t.Errorf("reset: start timestep should have type First, got %v",
				start.StepType)
		}

		// The spec functions should work on every supported environment
		env.ObservationSpec()
		env.ActionSpec()
		env.DiscountSpec()

		env.(*gym.GymEnv).Close()
	}
	// Tear down the Python interpreter
	gogym.Close()
}
