package main

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/goddpg/agent/nonlinear/continuous/ddpg"
	"github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/goddpg/experiment"
	"github.com/samuelfneumann/goddpg/experiment/checkpointer"
	"github.com/samuelfneumann/goddpg/experiment/tracker"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

func main() {
	var useed uint64 = 192382
	var seed int64 = 192382

	// Create the environment
	angle := r1.Interval{Min: -pendulum.AngleBound, Max: pendulum.AngleBound}
	speed := r1.Interval{Min: -1.0, Max: 1.0}

	s := environment.NewUniformStarter([]r1.Interval{angle, speed}, useed)
	task := pendulum.NewSwingUp(s, 1_000)
	p, _, err := pendulum.NewContinuous(task, 0.99)
	if err != nil {
		panic(err)
	}

	// Create the solvers. The actor and critic are updated separately,
	// so each network needs its own solver.
	actorSolver, err := solver.NewDefaultAdam(0.001, 64)
	if err != nil {
		panic(err)
	}
	criticSolver, err := solver.NewDefaultAdam(0.001, 64)
	if err != nil {
		panic(err)
	}
	initWFn, err := initwfn.NewGlorotU(math.Sqrt(2.0))
	if err != nil {
		panic(err)
	}

	// Create the learning algorithm
	conf := ddpg.Config{
		PolicyLayers: []int{400, 300},
		PolicyBiases: []bool{true, true},
		PolicyActivations: []*network.Activation{
			network.ReLU(),
			network.ReLU(),
		},
		PolicySolver: actorSolver,
		CriticLayers: []int{400, 300},
		CriticBiases: []bool{true, true},
		CriticActivations: []*network.Activation{
			network.ReLU(),
			network.ReLU(),
		},
		CriticSolver: criticSolver,
		InitWFn:      initWFn,
		ExpReplay: expreplay.Config{
			MaxReplayCapacity: 100_000,
			MinReplayCapacity: 100,
			WindowLength:      1,
			BatchSize:         64,
		},
		OUTheta: 0.15,
		OUSigma: 0.2,
		OUMu:    0.0,
		OUDt:    1.0,
		Tau:     0.01,
	}

	agent, err := ddpg.New(p, conf, seed)
	if err != nil {
		panic(err)
	}
	defer agent.Close()

	// Save the agent's weights three times over the run
	var maxSteps uint = 50_000
	check := []checkpointer.Checkpointer{
		checkpointer.NewNStep(int(maxSteps)/3, agent,
			checkpointer.FilenameEnumerator(0, "./checkpoint", "")),
	}

	// Experiment
	var saver tracker.Tracker = tracker.NewReturn("./data.bin")
	e := experiment.NewOnline(p, agent, maxSteps, 10_000,
		[]tracker.Tracker{saver}, check)
	e.Run()
	e.Save()

	data := tracker.LoadData("./data.bin")
	fmt.Println(data[len(data)-10:])
}
