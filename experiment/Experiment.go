// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/goddpg/agent"
	"github.com/samuelfneumann/goddpg/environment/envconfig"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Experiment describes a struct that can run an agent on an
// environment. Run() runs episode after episode until a maximum
// timestep limit is reached, while RunEpisode() runs a single episode.
//
// Experiments record data through Trackers. Each environmental
// TimeStep is sent to every registered Tracker, which caches whatever
// data it is interested in. Save() then writes all cached data to
// disk, usually once the experiment has finished. Additional Trackers
// can be registered with a running experiment through Register(), for
// example to start tracking only after some event.
//
// Experiments may also periodically save the model weights of their
// agents through checkpointer.Checkpointers.
type Experiment interface {
	Run()
	RunEpisode() bool // Returns whether or not the current episode finished

	// Tracks current timestep by sending it to Trackers
	track(ts.TimeStep)

	// Save all tracked data to disk
	Save()

	// Adds a new tracker.Tracker to the (possibly already running) experiment.
	// Useful if you want to track data only after a specified event.
	Register(t tracker.Tracker)

	// Saves the current state of all agents
	checkpoint(ts.TimeStep)
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type
	MaxSteps uint

	// IgnoreSteps is the number of initial steps on which the agent
	// selects actions uniformly at random and performs no updates,
	// filling its replay memory with exploratory experience
	IgnoreSteps uint

	EnvConf   envconfig.Config
	AgentConf agent.TypedConfigList
}

func (c Config) CreateExp(i int, seed uint64, t []tracker.Tracker,
	check []checkpointer.Checkpointer) Experiment {
	env, _, err := c.EnvConf.Create(seed)
	if err != nil {
		panic(fmt.Sprintf("createExp: could not create environment: %v", err))
	}
	agent, err := c.AgentConf.At(i).CreateAgent(env, seed)
	if err != nil {
		panic(fmt.Sprintf("createExp: could not create agent: %v", err))
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, agent, c.MaxSteps, c.IgnoreSteps, t, check)
	}

	panic(fmt.Sprintf("createExp: no such experiment type %v", c.Type))
}
