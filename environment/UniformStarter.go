package environment

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter is a Starter that draws starting states from a
// multivariate uniform distribution, with each state feature drawn
// from its own interval.
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
}

// NewUniformStarter returns a new UniformStarter which samples starting
// state features uniformly from the intervals bounds.
func NewUniformStarter(bounds []r1.Interval, seed uint64) UniformStarter {
	dist := distmv.NewUniform(bounds, rand.NewSource(seed))

	return UniformStarter{len(bounds), seed, dist}
}

// Start samples and returns a starting state
func (u UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(u.features, u.rand.Rand(nil))
}
