// Package agent defines the interfaces that learning agents implement
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/timestep"
)

// Agent determines the implementation details of an agent or algorithm.
//
// An Agent composes a Learner, which updates weights, with a Policy,
// which chooses an action in each state. The two halves share weights,
// so updates made by the Learner are immediately reflected in the
// actions the Policy chooses.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights are
// updated.
type Learner interface {
	// Step performs a single update to the learner
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy determines how an agent selects actions. A Policy can be
// switched between training mode, where it may explore, and evaluation
// mode, where it acts greedily with respect to what it has learned.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// RandomActioner is an Agent that can select actions uniformly at
// random from its environment's action space, regardless of what its
// Policy would choose. Experiments use this to fill an off-policy
// agent's replay memory with exploratory experience before learning
// begins.
type RandomActioner interface {
	Agent
	RandomAction() *mat.VecDense
}
