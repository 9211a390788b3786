package environment

import "github.com/samuelfneumann/goddpg/timestep"

// StepLimit is an Ender that cuts episodes off at a fixed number of
// timesteps
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End returns whether the current episode should end, which happens
// once the timestep's number reaches the step limit. If so, the
// timestep is marked as the last in its episode with a Timeout ending.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.SetEnd(timestep.Timeout)
		return true
	}

	return false
}
