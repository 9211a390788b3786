package experiment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/progressbar"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
//
// During the first ignoreSteps timesteps of the experiment, agents
// that implement agent.RandomActioner select actions uniformly at
// random from the action space and perform no weight updates, so that
// an off-policy agent's replay memory holds exploratory experience
// before learning begins.
type Online struct {
	env.Environment
	agent.Agent
	maxSteps      uint
	currentSteps  uint
	ignoreSteps   uint
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and the ignoreSteps
// parameter determines for how many initial timesteps actions are
// taken uniformly at random with no weight updates. The t parameter
// determines which data generated during the experiment is saved, and
// the c parameter determines when the agent's weights are saved.
func NewOnline(e env.Environment, a agent.Agent, steps, ignoreSteps uint,
	t []tracker.Tracker, c []checkpointer.Checkpointer) *Online {
	return &Online{e, a, steps, 0, ignoreSteps, t, c}
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() bool {
	step, err := o.Environment.Reset()
	if err != nil {
		panic(fmt.Sprintf("runEpisode: could not reset environment: %v", err))
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		panic(fmt.Sprintf("runEpisode: could not observe first timestep: %v",
			err))
	}
	o.track(step)

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.selectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			panic(fmt.Sprintf("runEpisode: could not step environment: %v",
				err))
		}

		// Cache the environment step in each Tracker and save the
		// agent's weights if a checkpoint is due
		o.track(step)
		o.checkpoint(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			panic(fmt.Sprintf("runEpisode: could not observe timestep: %v",
				err))
		}
		if o.currentSteps > o.ignoreSteps {
			if err := o.Agent.Step(); err != nil {
				panic(fmt.Sprintf("runEpisode: could not step agent: %v", err))
			}
		}
	}

	if step.Last() {
		o.Agent.EndEpisode()
	}

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps
}

// Run runs the entire experiment for all timesteps, displaying a
// progress bar in the terminal
func (o *Online) Run() {
	bar := progressbar.New(65, int(o.maxSteps))
	ended := false

	for !ended {
		episodeStart := o.currentSteps
		ended = o.RunEpisode()

		for i := episodeStart; i < o.currentSteps; i++ {
			bar.Increment()
		}
		bar.Display()
	}
	fmt.Println()
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// selectAction returns the action to take in the current timestep.
// During the first ignoreSteps timesteps, actions are selected
// uniformly at random when the agent supports it. Otherwise, the
// agent's policy selects the action.
func (o *Online) selectAction(step ts.TimeStep) *mat.VecDense {
	if o.currentSteps <= o.ignoreSteps {
		if randomActioner, ok := o.Agent.(agent.RandomActioner); ok {
			return randomActioner.RandomAction()
		}
	}
	return o.Agent.SelectAction(step)
}

// track tracks the current timestep by caching its data in each Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint saves the current state of the experiment's agent through
// each registered Checkpointer
func (o *Online) checkpoint(t ts.TimeStep) {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(t); err != nil {
			panic(fmt.Sprintf("checkpoint: could not save agent: %v", err))
		}
	}
}
