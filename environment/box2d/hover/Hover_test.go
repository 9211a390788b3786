package hover_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/box2d/hover"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// newHoverAt constructs a hovering environment whose craft starts in
// the middle region of the viewport and must hover at the viewport's
// centre
func newHoverAt(t *testing.T, cutoff int, seed uint64) (env.Environment,
	ts.TimeStep) {
	w := hover.ViewportW / hover.Scale
	h := hover.ViewportH / hover.Scale

	x := r1.Interval{Min: 0.3 * w, Max: 0.7 * w}
	y := r1.Interval{Min: 0.4 * h, Max: 0.8 * h}
	starter := env.NewUniformStarter([]r1.Interval{x, y}, seed)

	target := mat.NewVecDense(2, []float64{w / 2.0, h / 2.0})
	task := hover.NewHoverAt(starter, cutoff, target)

	e, first, err := hover.NewContinuous(task, 0.99)
	if err != nil {
		t.Fatalf("could not construct hovering environment: %v", err)
	}

	return e, first
}

// counterGravity returns the thrust action which exactly balances
// gravity on the craft
func counterGravity() *mat.VecDense {
	mass := hover.CraftDensity * (hover.CraftW / hover.Scale) *
		(hover.CraftH / hover.Scale)
	thrust := mass * -hover.YGravity / hover.ThrustPower

	return mat.NewVecDense(2, []float64{0.0, thrust})
}

// TestContinuousFreeFall lets the craft fall under gravity and ensures
// that hitting the floor crashes the craft, ending the episode in a
// terminal state with the crash reward
func TestContinuousFreeFall(t *testing.T) {
	e, first := newHoverAt(t, 1000, 37)

	if !first.First() {
		t.Error("environment should begin on a First timestep")
	}
	if first.Observation.Len() != hover.ObservationDims {
		t.Errorf("expected %v-dimensional observations, got %v",
			hover.ObservationDims, first.Observation.Len())
	}

	w := hover.ViewportW / hover.Scale
	h := hover.ViewportH / hover.Scale
	targetX, targetY := w/2.0, h/2.0

	crashed := false
	action := mat.NewVecDense(2, nil)
	for step := 0; step < 200; step++ {
		next, done, err := e.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}

		if done {
			if next.End != ts.TerminalStateReached {
				t.Errorf("a crash should reach a terminal state, got end "+
					"type %v", next.End)
			}
			if next.Reward != hover.CrashReward {
				t.Errorf("expected crash reward %v, got %v",
					hover.CrashReward, next.Reward)
			}
			crashed = true
			break
		}

		// Until the crash, rewards are the negative distance to the
		// target point
		dx := next.Observation.AtVec(0) - targetX
		dy := next.Observation.AtVec(1) - targetY
		wantReward := -math.Sqrt(dx*dx + dy*dy)
		if math.Abs(next.Reward-wantReward) > 1e-12 {
			t.Errorf("step %v: expected reward %v, got %v", step,
				wantReward, next.Reward)
		}
		if next != e.CurrentTimeStep() {
			t.Errorf("step %v: current timestep does not match the step "+
				"returned", step)
		}
	}

	if !crashed {
		t.Fatal("a craft in free fall should crash into the floor")
	}

	// Resetting should rebuild the world and clear the crash
	start, err := e.Reset()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !start.First() || start.Number != 0 {
		t.Error("reset should return a First timestep with number 0")
	}

	next, done, err := e.Step(action)
	if err != nil {
		t.Fatalf("step after reset: %v", err)
	}
	if done {
		t.Error("episode should not end on the first step after a reset")
	}
	if next.Reward == hover.CrashReward {
		t.Error("crash state should not persist across a reset")
	}
}

// TestContinuousHover applies exactly enough thrust to balance gravity
// and ensures the craft holds its position
func TestContinuousHover(t *testing.T) {
	e, first := newHoverAt(t, 1000, 9021)

	startX := first.Observation.AtVec(0)
	startY := first.Observation.AtVec(1)

	action := counterGravity()
	for step := 0; step < 50; step++ {
		next, done, err := e.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
		if done {
			t.Fatalf("step %v: a balanced craft should not crash", step)
		}

		if math.Abs(next.Observation.AtVec(0)-startX) > 0.5 ||
			math.Abs(next.Observation.AtVec(1)-startY) > 0.5 {
			t.Fatalf("step %v: a balanced craft should hold its position, "+
				"started at (%v, %v) but moved to (%v, %v)", step, startX,
				startY, next.Observation.AtVec(0), next.Observation.AtVec(1))
		}
	}
}

// TestContinuousActionClip ensures that actions outside the legal
// bounds are clipped before being applied as thrust
func TestContinuousActionClip(t *testing.T) {
	seed := uint64(77)
	clipped, _ := newHoverAt(t, 1000, seed)
	legal, _ := newHoverAt(t, 1000, seed)

	// Both environments share a starting state, so an over-limit
	// action on one should behave as the maximum legal action on the
	// other
	overLimit := mat.NewVecDense(2, []float64{5.0, 5.0})
	maxLegal := mat.NewVecDense(2, []float64{hover.MaxContinuousAction,
		hover.MaxContinuousAction})

	first, _, err := clipped.Step(overLimit)
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	second, _, err := legal.Step(maxLegal)
	if err != nil {
		t.Fatalf("step: %v", err)
	}

	for i := 0; i < hover.ObservationDims; i++ {
		if first.Observation.AtVec(i) != second.Observation.AtVec(i) {
			t.Errorf("feature %v: expected %v, got %v", i,
				second.Observation.AtVec(i), first.Observation.AtVec(i))
		}
	}

	// The over-limit action should have been clipped in place
	if overLimit.AtVec(0) != hover.MaxContinuousAction ||
		overLimit.AtVec(1) != hover.MaxContinuousAction {
		t.Error("actions should be clipped to the legal action bounds")
	}

	if _, _, err := clipped.Step(mat.NewVecDense(1, nil)); err == nil {
		t.Error("expected an error when stepping with a 1-dimensional " +
			"action")
	}
	if _, _, err := clipped.Step(mat.NewVecDense(3, nil)); err == nil {
		t.Error("expected an error when stepping with a 3-dimensional " +
			"action")
	}
}

// TestContinuousTimeout ensures episodes are cut off at the task's
// step limit when the craft does not crash
func TestContinuousTimeout(t *testing.T) {
	cutoff := 3
	e, _ := newHoverAt(t, cutoff, 6)

	action := counterGravity()
	for step := 0; step < cutoff-1; step++ {
		_, done, err := e.Step(action)
		if err != nil {
			t.Fatalf("step %v: %v", step, err)
		}
		if done {
			t.Fatalf("step %v: episode ended before the step limit", step)
		}
	}

	last, done, err := e.Step(action)
	if err != nil {
		t.Fatalf("final step: %v", err)
	}
	if !done || last.End != ts.Timeout {
		t.Errorf("expected a timeout at step %v, got end type %v", cutoff,
			last.End)
	}
	if last.Number != cutoff {
		t.Errorf("expected final timestep number %v, got %v", cutoff,
			last.Number)
	}
}

// TestContinuousSpecs checks the action, observation, and reward
// specifications of the environment
func TestContinuousSpecs(t *testing.T) {
	e, _ := newHoverAt(t, 1000, 13)

	actionSpec := e.ActionSpec()
	if actionSpec.Shape.Len() != hover.ActionDims {
		t.Errorf("expected %v-dimensional actions, got %v", hover.ActionDims,
			actionSpec.Shape.Len())
	}
	for i := 0; i < hover.ActionDims; i++ {
		if actionSpec.LowerBound.AtVec(i) != hover.MinContinuousAction ||
			actionSpec.UpperBound.AtVec(i) != hover.MaxContinuousAction {
			t.Errorf("dimension %v: expected action bounds [%v, %v], got "+
				"[%v, %v]", i, hover.MinContinuousAction,
				hover.MaxContinuousAction, actionSpec.LowerBound.AtVec(i),
				actionSpec.UpperBound.AtVec(i))
		}
	}

	obsSpec := e.ObservationSpec()
	if obsSpec.Shape.Len() != hover.ObservationDims {
		t.Errorf("expected %v-dimensional observations, got %v",
			hover.ObservationDims, obsSpec.Shape.Len())
	}
	w := hover.ViewportW / hover.Scale
	h := hover.ViewportH / hover.Scale
	if obsSpec.LowerBound.AtVec(0) != 0.0 || obsSpec.UpperBound.AtVec(0) != w {
		t.Error("x position bounds do not match the observation spec")
	}
	if obsSpec.LowerBound.AtVec(1) != 0.0 || obsSpec.UpperBound.AtVec(1) != h {
		t.Error("y position bounds do not match the observation spec")
	}
	for i := 2; i < hover.ObservationDims; i++ {
		if obsSpec.LowerBound.AtVec(i) != hover.MinVelocity ||
			obsSpec.UpperBound.AtVec(i) != hover.MaxVelocity {
			t.Errorf("feature %v: velocity bounds do not match the "+
				"observation spec", i)
		}
	}

	rewardSpec := e.RewardSpec()
	if rewardSpec.LowerBound.AtVec(0) != hover.CrashReward ||
		rewardSpec.UpperBound.AtVec(0) != 0.0 {
		t.Error("reward bounds do not match the task's minimum and " +
			"maximum rewards")
	}

	discountSpec := e.DiscountSpec()
	if discountSpec.LowerBound.AtVec(0) != 0.99 ||
		discountSpec.UpperBound.AtVec(0) != 0.99 {
		t.Error("discount bounds do not match the discount factor")
	}
}
