// Package ddpg implements the Deep Deterministic Policy Gradient
// algorithm:
//
// https://arxiv.org/abs/1509.02971
//
// DDPG is an off-policy actor-critic algorithm for continuous action
// spaces. A deterministic actor maps states to actions, and a critic
// estimates the value of state-action pairs. Exploration is induced
// by perturbing the actor's chosen actions with temporally correlated
// Ornstein-Uhlenbeck noise. Update targets are computed by
// slowly-tracking target copies of the actor and critic, which are
// blended toward the learned networks by Polyak averaging after each
// gradient step.
package ddpg

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	env "github.com/samuelfneumann/goddpg/environment"
	"github.com/samuelfneumann/goddpg/expreplay"
	"github.com/samuelfneumann/goddpg/network"
	"github.com/samuelfneumann/goddpg/noise"
	ts "github.com/samuelfneumann/goddpg/timestep"
)

// Names of the files that store the learned actor and critic weights
const (
	actorFile  string = "actor.bin"
	criticFile string = "critic.bin"
)

// DDPG implements the Deep Deterministic Policy Gradient algorithm.
//
// The agent holds four networks. The learned actor and critic are
// adapted by gradient descent. A target copy of each provides the
// bootstrap update target Q'(s', π'(s')) and tracks its learned
// counterpart through Polyak averaging. A fifth network, the
// behaviour policy, is a batch size 1 copy of the learned actor used
// for action selection; its weights are reset to the learned actor's
// weights after every gradient step.
//
// The actor's loss -mean(Q(s, π(s))) is computed by feeding the
// actor's predicted actions through a copy of the critic embedded in
// the actor's computational graph. Only the actor's weights are
// adapted when this loss is minimized, and the critic copy's weights
// are reset to the learned critic's weights on each gradient step.
type DDPG struct {
	// Deterministic behaviour policy with its own VM
	behaviour   network.NeuralNet
	behaviourVM G.VM

	// Actor that learns weights
	trainActor       network.NeuralNet
	trainActorVM     G.VM
	trainActorSolver G.Solver
	actorStates      *G.Node

	// Copy of the learned critic through which the actor loss is
	// computed. Shares the learned actor's graph, reading the same
	// state input node and the actor's predicted actions.
	actorCritic network.NeuralNet

	// Critic that learns weights. The critic's input is row-wise
	// state-action pairs.
	trainCritic        network.NeuralNet
	trainCriticVM      G.VM
	trainCriticSolver  G.Solver
	trainCriticTargets *G.Node

	// Target networks providing the update target. Both share a
	// single graph and VM, reading the same next-state input node.
	targetActor      network.NeuralNet
	targetCritic     network.NeuralNet
	targetVM         G.VM
	targetNextStates *G.Node

	tau      float64 // Polyak averaging constant
	discount float64

	noise  *noise.OrnsteinUhlenbeck
	replay expreplay.ExperienceReplayer

	// Uniform distribution over legal actions, used to fill the
	// replay buffer with exploratory experience before learning
	// begins
	uniformActions *distmv.Uniform

	prevStep    ts.TimeStep
	featureDims int
	actionDims  int
	batchSize   int

	eval bool
}

// New creates and returns a new DDPG agent that acts in, and learns
// from, the environment e.
func New(e env.Environment, c Config, seed int64) (*DDPG, error) {
	// Ensure environment has continuous actions
	if e.ActionSpec().Cardinality != env.Continuous {
		return nil, fmt.Errorf("new: ddpg can only be used with " +
			"continuous actions")
	}

	err := c.Validate()
	if err != nil {
		return nil, err
	}

	features := e.ObservationSpec().Shape.Len()
	actionDims := e.ActionSpec().Shape.Len()
	batchSize := c.BatchSize()
	discount := e.DiscountSpec().LowerBound.AtVec(0)
	init := c.InitWFn.InitWFn()

	// Learned critic, predicting the values of row-wise state-action
	// pairs
	gCritic := G.NewGraph()
	trainCritic, err := network.NewMLP(
		features+actionDims,
		batchSize,
		1,
		gCritic,
		c.CriticLayers,
		c.CriticBiases,
		init,
		c.CriticActivations,
		network.Identity(),
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create critic: %v", err)
	}

	// Critic update target y and MSE loss
	trainCriticTargets := G.NewMatrix(
		gCritic,
		tensor.Float64,
		G.WithShape(trainCritic.Prediction()[0].Shape()...),
		G.WithName("CriticUpdateTarget"),
	)
	criticLoss := G.Must(G.Sub(trainCritic.Prediction()[0],
		trainCriticTargets))
	criticLoss = G.Must(G.Square(criticLoss))
	criticLoss = G.Must(G.Mean(criticLoss))

	_, err = G.Grad(criticLoss, trainCritic.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute critic gradient: %v",
			err)
	}
	trainCriticVM := G.NewTapeMachine(gCritic,
		G.BindDualValues(trainCritic.Learnables()...))

	// Learned actor. The actor's graph also holds a copy of the
	// critic, which reads the same state input node and the actor's
	// predicted actions to compute the actor loss.
	gActor := G.NewGraph()
	actorStates := G.NewMatrix(
		gActor,
		tensor.Float64,
		G.WithShape(batchSize, features),
		G.WithName("ActorStates"),
		G.WithInit(G.Zeroes()),
	)
	trainActor, err := network.NewMLPFromInput(
		[]*G.Node{actorStates},
		actionDims,
		gActor,
		c.PolicyLayers,
		c.PolicyBiases,
		init,
		c.PolicyActivations,
		network.TanH(),
		"Actor",
		"",
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor: %v", err)
	}

	actorCritic, err := network.CloneWithInputTo(trainCritic, 1,
		[]*G.Node{actorStates, trainActor.Prediction()[0]}, gActor)
	if err != nil {
		return nil, fmt.Errorf("new: could not create actor's critic: %v",
			err)
	}

	// Actor loss: -mean(Q(s, π(s))). Only the actor's weights are
	// adapted by this loss.
	actorLoss := G.Must(G.Mean(actorCritic.Prediction()[0]))
	actorLoss = G.Must(G.Neg(actorLoss))

	_, err = G.Grad(actorLoss, trainActor.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("new: could not compute actor gradient: %v",
			err)
	}
	trainActorVM := G.NewTapeMachine(gActor,
		G.BindDualValues(trainActor.Learnables()...))

	// Target networks providing the update target Q'(s', π'(s')).
	// Cloning the learned networks initializes each target network as
	// an exact copy of its learned counterpart.
	gTarget := G.NewGraph()
	targetNextStates := G.NewMatrix(
		gTarget,
		tensor.Float64,
		G.WithShape(batchSize, features),
		G.WithName("TargetNextStates"),
		G.WithInit(G.Zeroes()),
	)
	targetActor, err := network.CloneWithInputTo(trainActor, 1,
		[]*G.Node{targetNextStates}, gTarget)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target actor: %v", err)
	}
	targetCritic, err := network.CloneWithInputTo(trainCritic, 1,
		[]*G.Node{targetNextStates, targetActor.Prediction()[0]}, gTarget)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target critic: %v",
			err)
	}
	targetVM := G.NewTapeMachine(gTarget)

	// Deterministic behaviour policy for single-observation action
	// selection
	behaviour, err := trainActor.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	behaviourVM := G.NewTapeMachine(behaviour.Graph())

	// Exploration noise
	noiseProcess, err := noise.NewOrnsteinUhlenbeck(actionDims, c.OUTheta,
		c.OUMu, c.OUSigma, c.OUDt, uint64(seed))
	if err != nil {
		return nil, fmt.Errorf("new: could not create noise process: %v", err)
	}

	// Experience replay buffer
	replay, err := c.ExpReplay.Create(features, actionDims, seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	// Uniform distribution over the environment's legal actions
	lowerBound := e.ActionSpec().LowerBound
	upperBound := e.ActionSpec().UpperBound
	actionBounds := make([]r1.Interval, actionDims)
	for i := range actionBounds {
		actionBounds[i] = r1.Interval{
			Min: lowerBound.AtVec(i),
			Max: upperBound.AtVec(i),
		}
	}
	uniformActions := distmv.NewUniform(actionBounds,
		rand.NewSource(uint64(seed)))

	return &DDPG{
		behaviour:   behaviour,
		behaviourVM: behaviourVM,

		trainActor:       trainActor,
		trainActorVM:     trainActorVM,
		trainActorSolver: c.PolicySolver,
		actorStates:      actorStates,
		actorCritic:      actorCritic,

		trainCritic:        trainCritic,
		trainCriticVM:      trainCriticVM,
		trainCriticSolver:  c.CriticSolver,
		trainCriticTargets: trainCriticTargets,

		targetActor:      targetActor,
		targetCritic:     targetCritic,
		targetVM:         targetVM,
		targetNextStates: targetNextStates,

		tau:      c.Tau,
		discount: discount,

		noise:          noiseProcess,
		replay:         replay,
		uniformActions: uniformActions,

		prevStep:    ts.TimeStep{},
		featureDims: features,
		actionDims:  actionDims,
		batchSize:   batchSize,

		eval: false,
	}, nil
}

// SelectAction returns the action to take in the state observed on
// timestep t. In training mode, the deterministic policy's action is
// perturbed with Ornstein-Uhlenbeck noise to induce exploration. In
// evaluation mode, the policy's action is returned unchanged and the
// noise process is left untouched.
func (d *DDPG) SelectAction(t ts.TimeStep) *mat.VecDense {
	obs := t.Observation.RawVector().Data
	if err := d.behaviour.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set policy input: %v",
			err))
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy: %v", err))
	}

	actionData := make([]float64, d.actionDims)
	copy(actionData, d.behaviour.Output()[0].Data().([]float64))
	d.behaviourVM.Reset()

	action := mat.NewVecDense(d.actionDims, actionData)
	if !d.eval {
		action.AddVec(action, d.noise.Sample())
	}

	return action
}

// RandomAction returns an action drawn uniformly at random from the
// environment's legal action range
func (d *DDPG) RandomAction() *mat.VecDense {
	return mat.NewVecDense(d.actionDims, d.uniformActions.Rand(nil))
}

// ObserveFirst observes and records the first timestep of an episode.
// The exploration noise is reset so that noise correlations do not
// leak across episode boundaries.
func (d *DDPG) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)", t.Number)
	}

	d.noise.Reset()
	d.prevStep = t
	return nil
}

// Observe observes and records any timestep other than the first,
// adding the transition that produced it to the replay buffer and
// advancing the current state. Observe is a no-op in evaluation mode.
func (d *DDPG) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if d.eval {
		return nil
	}

	if !nextStep.First() {
		a, ok := action.(*mat.VecDense)
		if !ok {
			return fmt.Errorf("observe: action must be a *mat.VecDense")
		}

		err := d.replay.Add(d.prevStep.Observation, a, nextStep.Reward,
			nextStep.Last())
		if err != nil {
			return fmt.Errorf("observe: could not add to replay buffer: %v",
				err)
		}
	}

	d.prevStep = nextStep
	return nil
}

// EndEpisode performs cleanup at the end of an episode. The episode's
// final observation is recorded in the replay buffer so that sampled
// transitions never straddle the episode boundary.
func (d *DDPG) EndEpisode() {
	if d.eval {
		return
	}

	action := d.SelectAction(d.prevStep)
	err := d.replay.Add(d.prevStep.Observation, action, 0.0, false)
	if err != nil {
		panic(fmt.Sprintf("endepisode: could not add to replay buffer: %v",
			err))
	}
}

// Step updates the learned actor and critic and blends the target
// networks toward the newly learned weights. If the replay buffer
// does not yet hold enough samples, no update is performed.
func (d *DDPG) Step() error {
	states, actions, rewards, nextStates, masks, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	// Predict the values of the next states under the target policy:
	// Q'(s', π'(s'))
	nextStateTensor := tensor.NewDense(
		tensor.Float64,
		d.targetNextStates.Shape(),
		tensor.WithBacking(nextStates),
	)
	err = G.Let(d.targetNextStates, nextStateTensor)
	if err != nil {
		return fmt.Errorf("step: could not set target network input: %v", err)
	}
	if err := d.targetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target networks: %v", err)
	}
	nextValues := d.targetCritic.Output()[0].Data().([]float64)
	d.targetVM.Reset()

	// Compute the update target y = r + γ * mask * Q'(s', π'(s')).
	// The continuation mask zeroes the bootstrap for terminal
	// transitions.
	target := mat.NewVecDense(d.batchSize, nil)
	target.MulElemVec(
		mat.NewVecDense(len(masks), masks),
		mat.NewVecDense(len(nextValues), nextValues),
	)
	target.ScaleVec(d.discount, target)
	target.AddVec(mat.NewVecDense(len(rewards), rewards), target)

	// Critic update: one MSE gradient step toward the update target
	stateActions := make([]float64, 0, d.batchSize*(d.featureDims+
		d.actionDims))
	for i := 0; i < d.batchSize; i++ {
		stateActions = append(stateActions,
			states[i*d.featureDims:(i+1)*d.featureDims]...)
		stateActions = append(stateActions,
			actions[i*d.actionDims:(i+1)*d.actionDims]...)
	}
	if err := d.trainCritic.SetInput(stateActions); err != nil {
		return fmt.Errorf("step: could not set critic input: %v", err)
	}

	targetTensor := tensor.NewDense(
		tensor.Float64,
		d.trainCriticTargets.Shape(),
		tensor.WithBacking(target.RawVector().Data),
	)
	err = G.Let(d.trainCriticTargets, targetTensor)
	if err != nil {
		return fmt.Errorf("step: could not set critic update target: %v", err)
	}
	if err := d.trainCriticVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run critic update: %v", err)
	}
	if err := d.trainCriticSolver.Step(d.trainCritic.Model()); err != nil {
		return fmt.Errorf("step: could not step critic solver: %v", err)
	}
	d.trainCriticVM.Reset()

	// The actor's critic copy must predict with the newly learned
	// critic weights
	if err := network.Set(d.actorCritic, d.trainCritic); err != nil {
		return fmt.Errorf("step: could not update actor's critic: %v", err)
	}

	// Actor update: one gradient step on -mean(Q(s, π(s)))
	stateTensor := tensor.NewDense(
		tensor.Float64,
		d.actorStates.Shape(),
		tensor.WithBacking(states),
	)
	if err := G.Let(d.actorStates, stateTensor); err != nil {
		return fmt.Errorf("step: could not set actor input: %v", err)
	}
	if err := d.trainActorVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run actor update: %v", err)
	}
	if err := d.trainActorSolver.Step(d.trainActor.Model()); err != nil {
		return fmt.Errorf("step: could not step actor solver: %v", err)
	}
	d.trainActorVM.Reset()

	// Blend the target networks toward the newly learned weights
	if err := network.Polyak(d.targetActor, d.trainActor, d.tau); err != nil {
		return fmt.Errorf("step: could not update target actor: %v", err)
	}
	err = network.Polyak(d.targetCritic, d.trainCritic, d.tau)
	if err != nil {
		return fmt.Errorf("step: could not update target critic: %v", err)
	}

	// Update the behaviour policy
	if err := network.Set(d.behaviour, d.trainActor); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v", err)
	}

	return nil
}

// Eval sets the agent into evaluation mode
func (d *DDPG) Eval() { d.eval = true }

// Train sets the agent into training mode
func (d *DDPG) Train() { d.eval = false }

// IsEval returns whether the agent is in evaluation mode
func (d *DDPG) IsEval() bool { return d.eval }

// Save saves the learned actor and critic weights in separate files
// under the directory dir, creating the directory if needed.
func (d *DDPG) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save: could not create output directory: %v", err)
	}

	err := saveNet(d.trainActor, filepath.Join(dir, actorFile))
	if err != nil {
		return fmt.Errorf("save: could not save actor: %v", err)
	}

	err = saveNet(d.trainCritic, filepath.Join(dir, criticFile))
	if err != nil {
		return fmt.Errorf("save: could not save critic: %v", err)
	}

	return nil
}

// Load loads previously saved actor and critic weights from the
// directory dir into the agent. The target networks are set to exact
// copies of the loaded networks. If dir is the empty string, Load is
// a no-op; if dir is set but the weight files are absent or
// malformed, Load returns an error.
func (d *DDPG) Load(dir string) error {
	if dir == "" {
		return nil
	}

	err := loadNet(d.trainActor, filepath.Join(dir, actorFile))
	if err != nil {
		return fmt.Errorf("load: could not load actor: %v", err)
	}

	err = loadNet(d.trainCritic, filepath.Join(dir, criticFile))
	if err != nil {
		return fmt.Errorf("load: could not load critic: %v", err)
	}

	// The behaviour policy, the actor's critic copy, and the target
	// networks all track the learned networks, so all must be reset
	// to the newly loaded weights
	if err := network.Set(d.behaviour, d.trainActor); err != nil {
		return fmt.Errorf("load: could not update behaviour policy: %v", err)
	}
	if err := network.Set(d.actorCritic, d.trainCritic); err != nil {
		return fmt.Errorf("load: could not update actor's critic: %v", err)
	}
	if err := network.Set(d.targetActor, d.trainActor); err != nil {
		return fmt.Errorf("load: could not update target actor: %v", err)
	}
	if err := network.Set(d.targetCritic, d.trainCritic); err != nil {
		return fmt.Errorf("load: could not update target critic: %v", err)
	}

	return nil
}

// saveNet serializes the weights of net to the file at path
func saveNet(net network.NeuralNet, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(net)
}

// loadNet deserializes the network stored at path into net. The
// stored network must have the same architecture as net.
func loadNet(net network.NeuralNet, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Decode into a free-standing clone so that the graph wiring of
	// net is left intact, then copy the decoded weights in
	clone, err := net.Clone()
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(file).Decode(clone); err != nil {
		return err
	}

	return net.Set(clone)
}

// Close closes the tape machines of the agent's computational graphs
func (d *DDPG) Close() error {
	if err := d.behaviourVM.Close(); err != nil {
		return fmt.Errorf("close: could not close behaviour policy: %v", err)
	}
	if err := d.trainActorVM.Close(); err != nil {
		return fmt.Errorf("close: could not close actor: %v", err)
	}
	if err := d.trainCriticVM.Close(); err != nil {
		return fmt.Errorf("close: could not close critic: %v", err)
	}
	if err := d.targetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target networks: %v", err)
	}
	return nil
}
