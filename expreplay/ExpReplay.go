// Package expreplay implements experience replay buffers for off-policy
// learning from previously recorded transitions.
//
// Buffers are not safe for concurrent use. A single goroutine should
// both add to and sample from a buffer.
package expreplay

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	MaxReplayCapacity int
	MinReplayCapacity int
	WindowLength      int
	BatchSize         int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	return NewSequential(c.MinReplayCapacity, c.MaxReplayCapacity,
		c.WindowLength, c.BatchSize, featureSize, actionSize, seed)
}

// ExperienceReplayer implements an experience replay buffer that
// records environmental steps in the order they happened and samples
// batches of transitions for learning
type ExperienceReplayer interface {
	// Add records one environmental step in the buffer. The terminal
	// flag denotes that taking action in the argument state ended the
	// episode, and closes the episode so that later windows of
	// observations do not straddle the episode boundary.
	Add(state, action *mat.VecDense, reward float64, terminal bool) error

	// Sample draws a batch of transitions independently and uniformly
	// at random, with replacement, from the buffer and returns the
	// batch as five parallel, flattened, row-major arrays: states,
	// actions, rewards, next states, and the continuation mask. The
	// mask holds 1.0 for non-terminal transitions and 0.0 for terminal
	// transitions, so that it can be used directly as a multiplicative
	// bootstrap mask.
	Sample() ([]float64, []float64, []float64, []float64, []float64, error)

	// Capacity returns the current number of steps in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable steps in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of steps required to be in the
	// buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of transitions returned by Sample()
	BatchSize() int
}

// sequential implements a concrete ExperienceReplayer as a
// fixed-capacity ring buffer of steps, kept in the order they were
// recorded. Once the buffer is full, each newly added step evicts the
// oldest step.
//
// A transition is formed from two consecutive steps: the state,
// action, reward, and terminal flag come from one step, and the next
// state is the following step's observation. When windowLength > 1,
// state observations are windows of the windowLength most recent
// observations, zero-padded at the front where a window would cross
// an episode boundary.
type sequential struct {
	observations []float64 // maxCapacity * featureSize
	actions      []float64 // maxCapacity * actionSize
	rewards      []float64
	terminals    []bool

	head int // physical index of the oldest step
	size int // current number of steps

	windowLength int
	batchSize    int
	minCapacity  int
	maxCapacity  int
	featureSize  int
	actionSize   int

	rng *rand.Rand
}

// NewSequential creates and returns a new sequential-order
// ExperienceReplayer. The featureSize and actionSize parameters define
// the sizes of the observation and action vectors recorded by the
// buffer. State observations returned by Sample() are windows of
// windowLength consecutive observations, so they have
// windowLength * featureSize features.
//
// Pixel observations should be flattened before adding to the buffer.
func NewSequential(minCapacity, maxCapacity, windowLength, batchSize,
	featureSize, actionSize int, seed int64) (ExperienceReplayer, error) {
	if minCapacity <= 1 {
		return nil, fmt.Errorf("newSequential: minCapacity must be > 1")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("newSequential: cannot have minCapacity "+
			"(%v) > max buffer capacity (%v)", minCapacity, maxCapacity)
	}
	if windowLength < 1 {
		return nil, fmt.Errorf("newSequential: windowLength must be >= 1")
	}
	if batchSize < 1 {
		return nil, fmt.Errorf("newSequential: batchSize must be >= 1")
	}
	if featureSize < 1 || actionSize < 1 {
		return nil, fmt.Errorf("newSequential: feature and action vectors "+
			"must have at least 1 dimension")
	}

	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &sequential{
		observations: make([]float64, maxCapacity*featureSize),
		actions:      make([]float64, maxCapacity*actionSize),
		rewards:      make([]float64, maxCapacity),
		terminals:    make([]bool, maxCapacity),

		windowLength: windowLength,
		batchSize:    batchSize,
		minCapacity:  minCapacity,
		maxCapacity:  maxCapacity,
		featureSize:  featureSize,
		actionSize:   actionSize,

		rng: rng,
	}, nil
}

// BatchSize returns the number of transitions sampled using Sample() -
// a.k.a the batch size
func (s *sequential) BatchSize() int {
	return s.batchSize
}

// Capacity returns the current number of steps in the buffer
func (s *sequential) Capacity() int {
	return s.size
}

// MaxCapacity returns the maximum number of steps that are allowed
// in the buffer
func (s *sequential) MaxCapacity() int {
	return s.maxCapacity
}

// MinCapacity returns the minimum number of steps required in the
// buffer before sampling is allowed
func (s *sequential) MinCapacity() int {
	return s.minCapacity
}

// physical converts the logical position of a step, counted from the
// oldest step, into its physical index in the ring buffer
func (s *sequential) physical(pos int) int {
	return (s.head + pos) % s.maxCapacity
}

// terminal returns the terminal flag of the step at logical position
// pos
func (s *sequential) terminal(pos int) bool {
	return s.terminals[s.physical(pos)]
}

// closesEpisode returns whether the step at logical position pos is
// the final step of its episode, i.e. whether its observation is a
// terminal state. The step following a terminal transition records the
// episode's final observation, so the step after that one belongs to a
// new episode.
func (s *sequential) closesEpisode(pos int) bool {
	return pos > 0 && s.terminal(pos-1)
}

// Add records one environmental step in the buffer, evicting the
// oldest step if the buffer is full
func (s *sequential) Add(state, action *mat.VecDense, reward float64,
	terminal bool) error {
	if state.Len() != s.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", s.featureSize, state.Len())
	}
	if action.Len() != s.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", s.actionSize, action.Len())
	}

	index := s.physical(s.size)
	if s.size == s.maxCapacity {
		// Overwrite the oldest step
		s.head = (s.head + 1) % s.maxCapacity
	} else {
		s.size++
	}

	obsInd := index * s.featureSize
	copy(s.observations[obsInd:obsInd+s.featureSize],
		state.RawVector().Data)

	actionInd := index * s.actionSize
	copy(s.actions[actionInd:actionInd+s.actionSize],
		action.RawVector().Data)

	s.rewards[index] = reward
	s.terminals[index] = terminal

	return nil
}

// window copies the window of observations ending at logical position
// pos into dest, which must have length windowLength * featureSize.
// The window is walked backward from pos and stops at the buffer's
// oldest step or at an episode boundary, leaving earlier slots zeroed.
func (s *sequential) window(dest []float64, pos int) {
	for i := range dest {
		dest[i] = 0.0
	}

	q := pos
	for k := s.windowLength - 1; k >= 0; k-- {
		obsInd := s.physical(q) * s.featureSize
		copy(dest[k*s.featureSize:(k+1)*s.featureSize],
			s.observations[obsInd:obsInd+s.featureSize])

		if q == 0 || s.closesEpisode(q-1) {
			break
		}
		q--
	}
}

// Sample draws a batch of transitions from the buffer
func (s *sequential) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if s.Capacity() == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
		return nil, nil, nil, nil, nil, err
	}
	if s.Capacity() < s.MinCapacity() {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	stateSize := s.windowLength * s.featureSize
	stateBatch := make([]float64, s.batchSize*stateSize)
	nextStateBatch := make([]float64, s.batchSize*stateSize)
	actionBatch := make([]float64, s.batchSize*s.actionSize)
	rewardBatch := make([]float64, s.batchSize)
	maskBatch := make([]float64, s.batchSize)

	for i := 0; i < s.batchSize; i++ {
		// Only steps with a recorded successor observation can form a
		// transition, and a step holding an episode's final
		// observation must not bootstrap into the following episode.
		pos := s.rng.Int() % (s.size - 1)
		for s.closesEpisode(pos) {
			pos = s.rng.Int() % (s.size - 1)
		}

		s.window(stateBatch[i*stateSize:(i+1)*stateSize], pos)
		s.window(nextStateBatch[i*stateSize:(i+1)*stateSize], pos+1)

		actionInd := s.physical(pos) * s.actionSize
		copy(actionBatch[i*s.actionSize:(i+1)*s.actionSize],
			s.actions[actionInd:actionInd+s.actionSize])

		rewardBatch[i] = s.rewards[s.physical(pos)]
		if s.terminal(pos) {
			maskBatch[i] = 0.0
		} else {
			maskBatch[i] = 1.0
		}
	}

	return stateBatch, actionBatch, rewardBatch, nextStateBatch, maskBatch,
		nil
}

// String returns the string representation of the buffer
func (s *sequential) String() string {
	baseStr := "Steps: %v/%v \nObservations: %v \nActions: %v " +
		"\nRewards: %v \nTerminals: %v"
	return fmt.Sprintf(baseStr, s.size, s.maxCapacity, s.observations,
		s.actions, s.rewards, s.terminals)
}
