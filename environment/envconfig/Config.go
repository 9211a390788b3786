// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON serializable.
package envconfig

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/box2d/hover"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/mountaincar"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/goddpg/environment/gym"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package. When the Gym flag is set on a Config, the EnvName is
// instead interpreted as the name of an environment in the OpenAI Gym
// suite, e.g. "Pendulum-v0".
type EnvName string

// Environments available for configuration
const (
	MountainCar EnvName = "MountainCar"
	Pendulum    EnvName = "Pendulum"
	Hover       EnvName = "Hover"
)

// TaskName stores the tasks that can be configured with this package.
// Note that not all tasks can be used with all environments. The tasks
// that can be used with each environment are as follows:
//
//	Environment			Task
//	MountainCar			Goal
//	Pendulum			SwingUp
//	Hover				HoverAt
type TaskName string

// Tasks available for configuration
const (
	Goal    TaskName = "Goal"
	SwingUp TaskName = "SwingUp"
	HoverAt TaskName = "HoverAt"
)

// Config implements a specific configuration of a specific environment
// and specific task. Not all environments can have all tasks.
type Config struct {
	Environment       EnvName
	Task              TaskName
	ContinuousActions bool
	EpisodeCutoff     uint
	Discount          float64
	Gym               bool
}

// NewConfig returns a new environment Config
func NewConfig(envName EnvName, taskName TaskName, continuousActions bool,
	episodeCutoff uint, discount float64, gym bool) Config {
	return Config{
		Environment:       envName,
		Task:              taskName,
		ContinuousActions: continuousActions,
		EpisodeCutoff:     episodeCutoff,
		Discount:          discount,
		Gym:               gym,
	}
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment.
func (c Config) Create(seed uint64) (env.Environment, ts.TimeStep, error) {
	if c.Gym {
		return gym.New(string(c.Environment), c.Discount, seed)
	}

	switch c.Environment {
	case MountainCar:
		return CreateMountainCar(c.ContinuousActions, c.Task,
			int(c.EpisodeCutoff), seed, c.Discount)

	case Pendulum:
		return CreatePendulum(c.ContinuousActions, c.Task,
			int(c.EpisodeCutoff), seed, c.Discount)

	case Hover:
		return CreateHover(c.ContinuousActions, c.Task,
			int(c.EpisodeCutoff), seed, c.Discount)
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}

// CreateMountainCar is a factory for creating the MountainCar
// environment with default physical parameters and default task
// parameters.
func CreateMountainCar(continuousActions bool, taskName TaskName, cutoff int,
	seed uint64, discount float64) (env.Environment, ts.TimeStep, error) {
	if !continuousActions {
		return nil, ts.TimeStep{}, fmt.Errorf("createMountainCar: only " +
			"continuous-action MountainCar is implemented")
	}

	position := r1.Interval{Min: -0.6, Max: -0.4}
	velocity := r1.Interval{Min: 0.0, Max: 0.0}

	s := env.NewUniformStarter([]r1.Interval{position, velocity}, seed)

	var task env.Task
	switch taskName {
	case Goal:
		task = mountaincar.NewGoal(s, cutoff, mountaincar.GoalPosition)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createMountainCar: "+
			"MountainCar environment has no task %v", taskName)
	}

	return mountaincar.NewContinuous(task, discount)
}

// CreatePendulum is a factory for creating the Pendulum environment
// with default physical parameters and default task parameters.
func CreatePendulum(continuousActions bool, taskName TaskName,
	cutoff int, seed uint64, discount float64) (env.Environment,
	ts.TimeStep, error) {
	if !continuousActions {
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: only " +
			"continuous-action Pendulum is implemented")
	}

	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := env.NewUniformStarter([]r1.Interval{angle, speed}, seed)

	var task env.Task
	switch taskName {
	case SwingUp:
		task = pendulum.NewSwingUp(s, cutoff)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createPendulum: Pendulum "+
			"environment has no task %v", taskName)
	}

	return pendulum.NewContinuous(task, discount)
}

// CreateHover is a factory for creating the Hover environment with
// default physical parameters and default task parameters. The craft
// starts in the middle region of the viewport and must hover at the
// viewport's centre.
func CreateHover(continuousActions bool, taskName TaskName, cutoff int,
	seed uint64, discount float64) (env.Environment, ts.TimeStep, error) {
	if !continuousActions {
		return nil, ts.TimeStep{}, fmt.Errorf("createHover: only " +
			"continuous-action Hover is implemented")
	}

	w := hover.ViewportW / hover.Scale
	h := hover.ViewportH / hover.Scale
	x := r1.Interval{Min: 0.3 * w, Max: 0.7 * w}
	y := r1.Interval{Min: 0.4 * h, Max: 0.8 * h}

	s := env.NewUniformStarter([]r1.Interval{x, y}, seed)

	var task env.Task
	switch taskName {
	case HoverAt:
		target := mat.NewVecDense(2, []float64{w / 2.0, h / 2.0})
		task = hover.NewHoverAt(s, cutoff, target)

	default:
		return nil, ts.TimeStep{}, fmt.Errorf("createHover: Hover "+
			"environment has no task %v", taskName)
	}

	return hover.NewContinuous(task, discount)
}
