package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

// runForward runs the forward pass of a network on the argument input
// and returns the predicted values
func runForward(t *testing.T, net NeuralNet, input []float64) []float64 {
	t.Helper()

	if err := net.SetInput(input); err != nil {
		t.Fatalf("could not set network input: %v", err)
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()

	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run network forward pass: %v", err)
	}

	output := make([]float64, len(net.Output()[0].Data().([]float64)))
	copy(output, net.Output()[0].Data().([]float64))

	vm.Reset()
	return output
}

// TestMLPForward checks the forward pass of an MLP against values
// computed by hand.
func TestMLPForward(t *testing.T) {
	// A network with no hidden layers and weights of 1 sums its
	// input features. Bias units start at 0.
	g := G.NewGraph()
	net, err := NewMLP(3, 1, 2, g, []int{}, []bool{}, G.Ones(),
		[]*Activation{}, Identity())
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	out := runForward(t, net, []float64{1.0, 2.0, 3.0})
	if len(out) != 2 {
		t.Fatalf("incorrect number of predictions \n\twant(2) \n\thave(%v)",
			len(out))
	}
	for i := range out {
		if out[i] != 6.0 {
			t.Errorf("output %v: incorrect prediction \n\twant(6.0) "+
				"\n\thave(%v)", i, out[i])
		}
	}

	// A single ReLU hidden layer of ones doubles the summed input
	g = G.NewGraph()
	net, err = NewMLP(2, 1, 1, g, []int{2}, []bool{true}, G.Ones(),
		[]*Activation{ReLU()}, Identity())
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	out = runForward(t, net, []float64{1.0, 2.0})
	if out[0] != 6.0 {
		t.Errorf("incorrect prediction \n\twant(6.0) \n\thave(%v)", out[0])
	}
}

// TestMLPTanHOutput checks that a tanh output activation bounds the
// network predictions.
func TestMLPTanHOutput(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMLP(1, 1, 1, g, []int{}, []bool{}, G.Ones(),
		[]*Activation{}, TanH())
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	out := runForward(t, net, []float64{0.5})
	if math.Abs(out[0]-math.Tanh(0.5)) > 1e-12 {
		t.Errorf("incorrect prediction \n\twant(%v) \n\thave(%v)",
			math.Tanh(0.5), out[0])
	}
}

// TestMLPInvalidConfig checks that networks cannot be constructed with
// mismatched layer descriptions.
func TestMLPInvalidConfig(t *testing.T) {
	g := G.NewGraph()
	_, err := NewMLP(2, 1, 1, g, []int{5, 5}, []bool{true}, G.Ones(),
		[]*Activation{ReLU(), ReLU()}, Identity())
	if err == nil {
		t.Error("expected an error for mismatched biases")
	}

	g = G.NewGraph()
	_, err = NewMLP(2, 1, 1, g, []int{5}, []bool{true}, G.Ones(),
		[]*Activation{ReLU(), ReLU()}, Identity())
	if err == nil {
		t.Error("expected an error for mismatched activations")
	}
}

// TestSet checks that Set copies all weights of a source network into
// a destination network exactly.
func TestSet(t *testing.T) {
	gSource := G.NewGraph()
	source, err := NewMLP(2, 1, 2, gSource, []int{3}, []bool{true},
		G.Ones(), []*Activation{ReLU()}, Identity())
	if err != nil {
		t.Fatalf("could not create source network: %v", err)
	}

	gDest := G.NewGraph()
	dest, err := NewMLP(2, 1, 2, gDest, []int{3}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()}, Identity())
	if err != nil {
		t.Fatalf("could not create destination network: %v", err)
	}

	if err := Set(dest, source); err != nil {
		t.Fatalf("could not set destination weights: %v", err)
	}

	sourceLearnables := source.Learnables()
	for i, learnable := range dest.Learnables() {
		destWeights := learnable.Value().Data().([]float64)
		sourceWeights := sourceLearnables[i].Value().Data().([]float64)
		for j := range destWeights {
			if destWeights[j] != sourceWeights[j] {
				t.Errorf("node %v: weight %v not copied \n\twant(%v) "+
					"\n\thave(%v)", learnable.Name(), j, sourceWeights[j],
					destWeights[j])
			}
		}
	}
}

// TestPolyak checks that repeated Polyak averaging moves a destination
// network geometrically towards a source network.
func TestPolyak(t *testing.T) {
	const tau float64 = 0.25
	const updates int = 3

	gSource := G.NewGraph()
	source, err := NewMLP(2, 1, 1, gSource, []int{3}, []bool{true},
		G.Ones(), []*Activation{ReLU()}, Identity())
	if err != nil {
		t.Fatalf("could not create source network: %v", err)
	}

	gDest := G.NewGraph()
	dest, err := NewMLP(2, 1, 1, gDest, []int{3}, []bool{true},
		G.Zeroes(), []*Activation{ReLU()}, Identity())
	if err != nil {
		t.Fatalf("could not create destination network: %v", err)
	}

	for i := 0; i < updates; i++ {
		if err := Polyak(dest, source, tau); err != nil {
			t.Fatalf("could not average destination weights: %v", err)
		}
	}

	// Starting from 0, each weight approaches its source value
	// geometrically: dest = source * (1 - (1-tau)^n)
	progress := 1.0 - math.Pow(1.0-tau, float64(updates))
	sourceLearnables := source.Learnables()
	for i, learnable := range dest.Learnables() {
		destWeights := learnable.Value().Data().([]float64)
		sourceWeights := sourceLearnables[i].Value().Data().([]float64)
		for j := range destWeights {
			want := sourceWeights[j] * progress
			if math.Abs(destWeights[j]-want) > 1e-14 {
				t.Errorf("node %v: incorrect weight %v \n\twant(%v) "+
					"\n\thave(%v)", learnable.Name(), j, want,
					destWeights[j])
			}
		}
	}

	// The source must not move
	for _, learnable := range sourceLearnables {
		sourceWeights := learnable.Value().Data().([]float64)
		for j := range sourceWeights {
			if w := sourceWeights[j]; w != 0.0 && w != 1.0 {
				t.Errorf("node %v: source weight %v changed \n\thave(%v)",
					learnable.Name(), j, w)
			}
		}
	}
}

// TestCloneWithBatch checks that cloning a network to a new batch size
// carries the weight values and predicts the same values for each row
// of a batch.
func TestCloneWithBatch(t *testing.T) {
	g := G.NewGraph()
	net, err := NewMLP(2, 1, 1, g, []int{4}, []bool{true},
		G.GlorotU(1.0), []*Activation{ReLU()}, TanH())
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}

	batch, err := net.CloneWithBatch(3)
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}
	if batch.BatchSize() != 3 {
		t.Fatalf("incorrect batch size \n\twant(3) \n\thave(%v)",
			batch.BatchSize())
	}

	netLearnables := net.Learnables()
	for i, learnable := range batch.Learnables() {
		cloneWeights := learnable.Value().Data().([]float64)
		weights := netLearnables[i].Value().Data().([]float64)
		for j := range cloneWeights {
			if cloneWeights[j] != weights[j] {
				t.Errorf("node %v: weight %v not carried by clone "+
					"\n\twant(%v) \n\thave(%v)", learnable.Name(), j,
					weights[j], cloneWeights[j])
			}
		}
	}

	obs := []float64{0.1, -0.2}
	single := runForward(t, net, obs)

	batchInput := make([]float64, 0, 6)
	for i := 0; i < 3; i++ {
		batchInput = append(batchInput, obs...)
	}
	batched := runForward(t, batch, batchInput)

	if len(batched) != 3 {
		t.Fatalf("incorrect number of predictions \n\twant(3) \n\thave(%v)",
			len(batched))
	}
	for i := range batched {
		if math.Abs(batched[i]-single[0]) > 1e-12 {
			t.Errorf("row %v: prediction differs from single input "+
				"\n\twant(%v) \n\thave(%v)", i, single[0], batched[i])
		}
	}
}
