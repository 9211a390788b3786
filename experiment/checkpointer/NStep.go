package checkpointer

import ts "github.com/samuelfneumann/goddpg/timestep"

// nStep implements checkpointing every N steps of an experiment.
//
// TimeStep numbers restart at 0 on each episode, so nStep counts the
// steps it has seen itself and checkpoints on that running total.
type nStep struct {
	interval int
	steps    int
	object   Serializable // Object to save

	// filename returns the path to save the object at on each
	// checkpoint. To number checkpoint files with an incrementing
	// suffix (file1.bin, file2.bin, ..., fileK.bin), pass the function
	// returned by FilenameEnumerator. To name them by wall-clock time
	// instead, pass the function returned by FileTimer:
	//
	//	n := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps.
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method once every interval of elapsed timesteps
func (n *nStep) Checkpoint(ts.TimeStep) error {
	n.steps++
	if n.steps%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}
