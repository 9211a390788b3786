package ddpg

import (
	"fmt"
	"math"
	"reflect"

	"github.com/samuelfneumann/goddpg/agent"
	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/initwfn"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/solver"
)

func init() {
	// Register ConfigList type so that it can be typed using
	// agent.TypedConfigList to help with serialization/deserialization.
	agent.Register(agent.DDPGMLP, ConfigList{})
}

// ConfigList implements a list of Config's in a more efficient manner
// than simply using a slice of Config's.
type ConfigList struct {
	PolicyLayers      [][]int                 // Actor hidden layer sizes
	PolicyBiases      [][]bool                // Actor bias units
	PolicyActivations [][]*network.Activation // Actor activations
	PolicySolver      []*solver.Solver        // Actor weight solver

	CriticLayers      [][]int                 // Critic hidden layer sizes
	CriticBiases      [][]bool                // Critic bias units
	CriticActivations [][]*network.Activation // Critic activations
	CriticSolver      []*solver.Solver        // Critic weight solver

	// Initialization algorithm for actor and critic weights
	InitWFn []*initwfn.InitWFn

	// Experience replay parameters
	ExpReplay []expreplay.Config

	// Ornstein-Uhlenbeck exploration noise parameters
	OUTheta []float64
	OUSigma []float64
	OUMu    []float64
	OUDt    []float64

	Tau []float64 // Polyak averaging constant for target networks
}

// NewConfigList returns a new ConfigList as an agent.TypedConfigList.
// Because the returned value is a TypedList, it can safely be JSON
// serialized and deserialized without specifying what the type of
// the ConfigList is.
func NewConfigList(
	PolicyLayers [][]int,
	PolicyBiases [][]bool,
	PolicyActivations [][]*network.Activation,
	PolicySolver []*solver.Solver,
	CriticLayers [][]int,
	CriticBiases [][]bool,
	CriticActivations [][]*network.Activation,
	CriticSolver []*solver.Solver,
	InitWFn []*initwfn.InitWFn,
	ExpReplay []expreplay.Config,
	OUTheta []float64,
	OUSigma []float64,
	OUMu []float64,
	OUDt []float64,
	Tau []float64,
) agent.TypedConfigList {
	configs := ConfigList{
		PolicyLayers:      PolicyLayers,
		PolicyBiases:      PolicyBiases,
		PolicyActivations: PolicyActivations,
		PolicySolver:      PolicySolver,
		CriticLayers:      CriticLayers,
		CriticBiases:      CriticBiases,
		CriticActivations: CriticActivations,
		CriticSolver:      CriticSolver,
		InitWFn:           InitWFn,
		ExpReplay:         ExpReplay,
		OUTheta:           OUTheta,
		OUSigma:           OUSigma,
		OUMu:              OUMu,
		OUDt:              OUDt,
		Tau:               Tau,
	}

	return agent.NewTypedConfigList(configs)
}

// NewDefaultConfigList returns a ConfigList of a single Config holding
// the conventional DDPG hyperparameter settings: hidden layers of 400
// and 300 ReLU units for both the actor and the critic, Glorot uniform
// weight initialization, Adam solvers with a step size of 0.001, a
// replay buffer holding 100,000 transitions sampled in mini-batches of
// 64, Ornstein-Uhlenbeck exploration noise with θ = 0.15 and σ = 0.2,
// and target networks tracked with τ = 0.01.
func NewDefaultConfigList() (agent.TypedConfigList, error) {
	actorSolver, err := solver.NewDefaultAdam(0.001, 64)
	if err != nil {
		return agent.TypedConfigList{}, fmt.Errorf("newDefaultConfigList: "+
			"%v", err)
	}
	criticSolver, err := solver.NewDefaultAdam(0.001, 64)
	if err != nil {
		return agent.TypedConfigList{}, fmt.Errorf("newDefaultConfigList: "+
			"%v", err)
	}
	initWFn, err := initwfn.NewGlorotU(math.Sqrt(2.0))
	if err != nil {
		return agent.TypedConfigList{}, fmt.Errorf("newDefaultConfigList: "+
			"%v", err)
	}

	list := NewConfigList(
		[][]int{{400, 300}},
		[][]bool{{true, true}},
		[][]*network.Activation{{network.ReLU(), network.ReLU()}},
		[]*solver.Solver{actorSolver},
		[][]int{{400, 300}},
		[][]bool{{true, true}},
		[][]*network.Activation{{network.ReLU(), network.ReLU()}},
		[]*solver.Solver{criticSolver},
		[]*initwfn.InitWFn{initWFn},
		[]expreplay.Config{{
			MaxReplayCapacity: 100_000,
			MinReplayCapacity: 100,
			WindowLength:      1,
			BatchSize:         64,
		}},
		[]float64{0.15},
		[]float64{0.2},
		[]float64{0.0},
		[]float64{1.0},
		[]float64{0.01},
	)

	return list, nil
}

// Type returns the type of Config stored in the list
func (c ConfigList) Type() agent.Type {
	return c.Config().Type()
}

// NumFields returns the number of settable fields in a Config
func (c ConfigList) NumFields() int {
	rValue := reflect.ValueOf(c)
	return rValue.NumField()
}

// Config returns an empty Config of the same type as that stored
// by the ConfigList
func (c ConfigList) Config() agent.Config {
	return Config{}
}

// Len returns the number of Config's in the list
func (c ConfigList) Len() int {
	return len(c.PolicyLayers) * len(c.PolicyBiases) *
		len(c.PolicyActivations) * len(c.PolicySolver) *
		len(c.CriticLayers) * len(c.CriticBiases) *
		len(c.CriticActivations) * len(c.CriticSolver) * len(c.InitWFn) *
		len(c.ExpReplay) * len(c.OUTheta) * len(c.OUSigma) * len(c.OUMu) *
		len(c.OUDt) * len(c.Tau)
}

// Config implements a configuration for a DDPG agent
type Config struct {
	PolicyLayers      []int                 // Actor hidden layer sizes
	PolicyBiases      []bool                // Actor bias units
	PolicyActivations []*network.Activation // Actor activations
	PolicySolver      *solver.Solver        // Actor weight solver

	CriticLayers      []int                 // Critic hidden layer sizes
	CriticBiases      []bool                // Critic bias units
	CriticActivations []*network.Activation // Critic activations
	CriticSolver      *solver.Solver        // Critic weight solver

	// Initialization algorithm for actor and critic weights
	InitWFn *initwfn.InitWFn

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Ornstein-Uhlenbeck exploration noise parameters
	OUTheta float64 // Mean reversion rate
	OUSigma float64 // Volatility
	OUMu    float64 // Long-run mean
	OUDt    float64 // Time discretization step

	Tau float64 // Polyak averaging constant for target networks
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Type returns the type of the configuration
func (c Config) Type() agent.Type {
	return agent.DDPGMLP
}

// Validate checks a Config to ensure it is a valid configuration of a
// DDPG agent.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.PolicyBiases) {
		return fmt.Errorf("new: invalid number of actor biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.PolicyBiases))
	}

	if len(c.PolicyLayers) != len(c.PolicyActivations) {
		return fmt.Errorf("new: invalid number of actor activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.PolicyActivations))
	}

	if len(c.CriticLayers) != len(c.CriticBiases) {
		return fmt.Errorf("new: invalid number of critic biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.CriticLayers), len(c.CriticBiases))
	}

	if len(c.CriticLayers) != len(c.CriticActivations) {
		return fmt.Errorf("new: invalid number of critic activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.CriticLayers),
			len(c.CriticActivations))
	}

	if c.Tau <= 0.0 || c.Tau > 1.0 {
		return fmt.Errorf("new: target networks must be updated at a rate "+
			"in (0, 1] \n\twant(0 < τ <= 1) \n\thave(%v)", c.Tau)
	}

	// Action selection composes single observations only, so learning
	// must be on single-step windows of observations
	if c.ExpReplay.WindowLength != 1 {
		return fmt.Errorf("new: replay window length must be 1 "+
			"\n\twant(1) \n\thave(%v)", c.ExpReplay.WindowLength)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the configuration.
// That is, whether Agent a can be constructed with Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DDPG)
	return ok
}

// CreateAgent creates a new DDPG agent based on the configuration
func (c Config) CreateAgent(e env.Environment, s uint64) (agent.Agent,
	error) {
	return New(e, c, int64(s))
}
