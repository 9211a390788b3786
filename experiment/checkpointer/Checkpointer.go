// Package checkpointer implements periodic saving of agents during an
// experiment
package checkpointer

import ts "github.com/samuelfneumann/goddpg/timestep"

// Serializable is an object that can save itself to disk. Agents
// implement this interface by writing their weights under the argument
// path so that training can later be resumed or evaluated offline.
type Serializable interface {
	Save(path string) error
}

// Checkpointer checkpoints/saves serializable objects based on
// timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
