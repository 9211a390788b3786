// Package noise implements random processes for exploration in
// continuous action spaces
package noise

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// OrnsteinUhlenbeck implements an Ornstein-Uhlenbeck process, a
// mean-reverting random walk. Samples drawn from the process are
// temporally correlated, which makes the process well suited for
// exploration in physical control problems, where consecutive actions
// should not differ wildly.
//
// The process evolves as:
//
//	x ← x + θ(μ - x)dt + σ√(dt)N(0, 1)
//
// where θ determines how strongly the process reverts to the mean μ,
// and σ scales the Gaussian noise added at each step.
type OrnsteinUhlenbeck struct {
	theta float64
	mu    float64
	sigma float64
	dt    float64

	state []float64
	dist  distuv.Normal
}

// NewOrnsteinUhlenbeck returns a new Ornstein-Uhlenbeck process of the
// given size. The size determines the dimensionality of samples drawn
// from the process. The process starts at its mean μ.
func NewOrnsteinUhlenbeck(size int, theta, mu, sigma, dt float64,
	seed uint64) (*OrnsteinUhlenbeck, error) {
	if size <= 0 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: size must be "+
			"positive, got %v", size)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("newOrnsteinUhlenbeck: dt must be "+
			"positive, got %v", dt)
	}

	dist := distuv.Normal{
		Mu:    0.0,
		Sigma: 1.0,
		Src:   rand.NewSource(seed),
	}

	o := &OrnsteinUhlenbeck{
		theta: theta,
		mu:    mu,
		sigma: sigma,
		dt:    dt,
		state: make([]float64, size),
		dist:  dist,
	}
	o.Reset()

	return o, nil
}

// Size returns the dimensionality of samples drawn from the process
func (o *OrnsteinUhlenbeck) Size() int {
	return len(o.state)
}

// Sample advances the process by one step and returns the updated
// state. Sample should be called once per action-selection step, since
// it mutates the internal state of the process.
func (o *OrnsteinUhlenbeck) Sample() *mat.VecDense {
	for i := range o.state {
		o.state[i] += o.theta*(o.mu-o.state[i])*o.dt +
			o.sigma*math.Sqrt(o.dt)*o.dist.Rand()
	}

	sample := make([]float64, len(o.state))
	copy(sample, o.state)

	return mat.NewVecDense(len(sample), sample)
}

// Reset resets the process to its mean, forgetting all temporal
// correlation accumulated so far. Reset should be called at the start
// of each episode.
func (o *OrnsteinUhlenbeck) Reset() {
	for i := range o.state {
		o.state[i] = o.mu
	}
}

// String implements the fmt.Stringer interface
func (o *OrnsteinUhlenbeck) String() string {
	return fmt.Sprintf("OrnsteinUhlenbeck  |  θ: %v  |  μ: %v  |  σ: %v"+
		"  |  dt: %v", o.theta, o.mu, o.sigma, o.dt)
}
