package environment

import (
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/timestep"
)

// IntervalLimit is an Ender that ends episodes once watched state
// features leave their legal intervals. Each watched feature is named
// by its index into the state observation vector and paired with the
// interval it must stay inside.
type IntervalLimit struct {
	intervals []r1.Interval
	indices   []int
	endType   timestep.EndType
}

// NewIntervalLimit creates and returns a new interval limit. The
// endType argument determines what kind of episode end leaving an
// interval counts as.
func NewIntervalLimit(limits []r1.Interval, obsIndices []int,
	endType timestep.EndType) Ender {
	if len(limits) != len(obsIndices) {
		panic("limits should have same length as observation indices")
	}

	return &IntervalLimit{limits, obsIndices, endType}
}

// End returns whether the current episode should end, which happens
// once any watched feature leaves its interval. If so, the timestep is
// marked as the last in its episode with the Ender's end type.
func (i *IntervalLimit) End(t *timestep.TimeStep) bool {
	for j, featureIndex := range i.indices {
		feature := t.Observation.AtVec(featureIndex)

		if feature < i.intervals[j].Min || feature > i.intervals[j].Max {
			t.SetEnd(i.endType)
			return true
		}
	}

	return false
}
