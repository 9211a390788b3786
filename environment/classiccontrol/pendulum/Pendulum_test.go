package pendulum_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// newSwingUp constructs a swing-up pendulum with starting angles drawn
// from angleBound and starting speeds drawn from [-1, 1]
func newSwingUp(t *testing.T, angleBound, discount float64, cutoff int,
	seed uint64) (env.Environment, ts.TimeStep) {
	bounds := []r1.Interval{
		{Min: -angleBound, Max: angleBound},
		{Min: -1.0, Max: 1.0},
	}
	starter := env.NewUniformStarter(bounds, seed)
	task := pendulum.NewSwingUp(starter, cutoff)

	p, first, err := pendulum.NewContinuous(task, discount)
	if err != nil {
		t.Fatalf("could not construct pendulum: %v", err)
	}

	return p, first
}

// TestContinuousStep ensures that stepping in the environment keeps
// state features within their legal bounds and produces the swing-up
// reward of cos(angle)
func TestContinuousStep(t *testing.T) {
	p, first := newSwingUp(t, pendulum.AngleBound, 0.99, 1000, 1223)

	if !first.First() {
		t.Error("environment should begin on a First timestep")
	}
	if first.Number != 0 {
		t.Errorf("first timestep should have number 0, got %v", first.Number)
	}

	// Step with maximum torque so that the angle eventually wraps and
	// the speed saturates
	action := mat.NewVecDense(1, []float64{pendulum.MaxContinuousAction})
	for step := 0; step < 200; step++ {
		next, done, err := p.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
		if done {
			t.Fatalf("step %v: episode ended before the step limit", step)
		}
		if next.Number != step+1 {
			t.Errorf("step %v: expected timestep number %v, got %v", step,
				step+1, next.Number)
		}

		angle := next.Observation.AtVec(0)
		speed := next.Observation.AtVec(1)
		if math.Abs(angle) > pendulum.AngleBound {
			t.Errorf("step %v: angle %v outside legal bounds", step, angle)
		}
		if math.Abs(speed) > pendulum.SpeedBound {
			t.Errorf("step %v: speed %v outside legal bounds", step, speed)
		}

		if math.Abs(next.Reward-math.Cos(angle)) > 1e-15 {
			t.Errorf("step %v: expected reward %v, got %v", step,
				math.Cos(angle), next.Reward)
		}
		if next.Discount != 0.99 {
			t.Errorf("step %v: expected discount 0.99, got %v", step,
				next.Discount)
		}
		if next != p.CurrentTimeStep() {
			t.Errorf("step %v: current timestep does not match the step "+
				"returned", step)
		}
	}
}

// TestContinuousPhysics checks a single transition against the
// pendulum's equations of motion
func TestContinuousPhysics(t *testing.T) {
	// Tight starting bounds so that a single step can neither wrap the
	// angle nor saturate the speed
	p, first := newSwingUp(t, 1.0, 1.0, 1000, 61)

	g, m, l := pendulum.Gravity, pendulum.Mass, pendulum.Length
	const dt float64 = 0.05

	th := first.Observation.AtVec(0)
	thdot := first.Observation.AtVec(1)
	torque := 1.5

	expSpeed := thdot + (-3*g/(2*l)*math.Sin(th+math.Pi)+
		3.0/(m*math.Pow(l, 2))*torque)*dt
	expAngle := th + expSpeed*dt

	next, _, err := p.Step(mat.NewVecDense(1, []float64{torque}))
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	if math.Abs(next.Observation.AtVec(0)-expAngle) > 1e-14 {
		t.Errorf("expected angle %v, got %v", expAngle,
			next.Observation.AtVec(0))
	}
	if math.Abs(next.Observation.AtVec(1)-expSpeed) > 1e-14 {
		t.Errorf("expected speed %v, got %v", expSpeed,
			next.Observation.AtVec(1))
	}
	if math.Abs(next.Reward-math.Cos(expAngle)) > 1e-14 {
		t.Errorf("expected reward %v, got %v", math.Cos(expAngle),
			next.Reward)
	}
}

// TestContinuousStepLimit ensures episodes are cut off at the task's
// step limit with a timeout ending
func TestContinuousStepLimit(t *testing.T) {
	cutoff := 10
	p, _ := newSwingUp(t, pendulum.AngleBound, 0.99, cutoff, 973)

	action := mat.NewVecDense(1, nil)
	for step := 0; step < cutoff-1; step++ {
		_, done, err := p.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
		if done {
			t.Fatalf("step %v: episode ended before the step limit", step)
		}
	}

	last, done, err := p.Step(action)
	if err != nil {
		t.Fatalf("final step: %v", err)
	}
	if !done {
		t.Error("episode should end at the step limit")
	}
	if !last.Last() {
		t.Error("final timestep should be marked Last")
	}
	if last.End != ts.Timeout {
		t.Errorf("expected episode to end with a timeout, got %v", last.End)
	}
	if last.Number != cutoff {
		t.Errorf("expected final timestep number %v, got %v", cutoff,
			last.Number)
	}
}

// TestContinuousReset ensures resetting produces a fresh First timestep
// with a starting state within the Starter's bounds
func TestContinuousReset(t *testing.T) {
	p, _ := newSwingUp(t, pendulum.AngleBound, 0.99, 1000, 4129)

	action := mat.NewVecDense(1, []float64{1.0})
	for step := 0; step < 5; step++ {
		if _, _, err := p.Step(action); err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
	}

	start, err := p.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !start.First() {
		t.Error("reset should return a First timestep")
	}
	if start.Number != 0 {
		t.Errorf("reset timestep should have number 0, got %v", start.Number)
	}
	if math.Abs(start.Observation.AtVec(0)) > pendulum.AngleBound ||
		math.Abs(start.Observation.AtVec(1)) > 1.0 {
		t.Errorf("starting state %v outside the starter's bounds",
			start.Observation)
	}
	if start != p.CurrentTimeStep() {
		t.Error("current timestep should be the reset timestep")
	}

	// Consecutive resets should draw distinct starting states
	next, err := p.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if next.Observation.AtVec(0) == start.Observation.AtVec(0) &&
		next.Observation.AtVec(1) == start.Observation.AtVec(1) {
		t.Error("consecutive resets should not produce identical states")
	}
}

// TestContinuousSpecs checks the action, observation, and discount
// specifications of the environment
func TestContinuousSpecs(t *testing.T) {
	discount := 0.75
	p, _ := newSwingUp(t, pendulum.AngleBound, discount, 1000, 36)

	actionSpec := p.ActionSpec()
	if actionSpec.Shape.Len() != pendulum.ActionDims {
		t.Errorf("expected %v-dimensional actions, got %v",
			pendulum.ActionDims, actionSpec.Shape.Len())
	}
	if actionSpec.LowerBound.AtVec(0) != pendulum.MinContinuousAction ||
		actionSpec.UpperBound.AtVec(0) != pendulum.MaxContinuousAction {
		t.Errorf("expected action bounds [%v, %v], got [%v, %v]",
			pendulum.MinContinuousAction, pendulum.MaxContinuousAction,
			actionSpec.LowerBound.AtVec(0), actionSpec.UpperBound.AtVec(0))
	}
	if actionSpec.Cardinality != env.Continuous {
		t.Errorf("expected continuous actions, got %v",
			actionSpec.Cardinality)
	}

	obsSpec := p.ObservationSpec()
	if obsSpec.Shape.Len() != pendulum.ObservationDims {
		t.Errorf("expected %v-dimensional observations, got %v",
			pendulum.ObservationDims, obsSpec.Shape.Len())
	}
	if obsSpec.LowerBound.AtVec(0) != -pendulum.AngleBound ||
		obsSpec.UpperBound.AtVec(0) != pendulum.AngleBound {
		t.Error("angle bounds do not match the observation spec")
	}
	if obsSpec.LowerBound.AtVec(1) != -pendulum.SpeedBound ||
		obsSpec.UpperBound.AtVec(1) != pendulum.SpeedBound {
		t.Error("speed bounds do not match the observation spec")
	}

	discountSpec := p.DiscountSpec()
	if discountSpec.LowerBound.AtVec(0) != discount ||
		discountSpec.UpperBound.AtVec(0) != discount {
		t.Errorf("expected discount bounds [%v, %v], got [%v, %v]",
			discount, discount, discountSpec.LowerBound.AtVec(0),
			discountSpec.UpperBound.AtVec(0))
	}
}

// TestContinuousInvalidAction ensures that actions with too many
// dimensions are rejected
func TestContinuousInvalidAction(t *testing.T) {
	p, _ := newSwingUp(t, pendulum.AngleBound, 0.99, 1000, 18)

	if _, _, err := p.Step(mat.NewVecDense(2, nil)); err == nil {
		t.Error("expected an error when stepping with a 2-dimensional " +
			"action")
	}
}
