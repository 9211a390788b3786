// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either a
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes how an episode ended. Episodes that have not yet
// ended have EndType Nil.
type EndType int

const (
	// Nil indicates that the episode has not yet ended
	Nil EndType = iota

	// TerminalStateReached indicates that the episode ended because
	// the agent reached an environmental goal or failure state
	TerminalStateReached

	// Timeout indicates that the episode was cut off at some step
	// limit before any terminal state was reached
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation *mat.VecDense
	Number      int
	End         EndType
}

// New returns a new TimeStep with the argument fields. The returned
// TimeStep has EndType Nil; enders mark the ending with SetEnd.
func New(t StepType, reward, discount float64, obs *mat.VecDense,
	number int) TimeStep {
	return TimeStep{t, reward, discount, obs, number, Nil}
}

// SetEnd marks the TimeStep as the last in its episode, recording how
// the episode ended.
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.End = e
}

// First returns whether a TimeStep is the first in an environment
func (t TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t TimeStep) Last() bool {
	return t.StepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}
