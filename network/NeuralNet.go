// Package network implements neural networks using Gorgonia
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network on a Gorgonia computational
// graph. A NeuralNet records only the graph nodes of its forward pass.
// To run the network, an external G.VM must be created with the
// network's graph and run.
//
// NeuralNets may have multiple output layers, and so the Output() and
// Prediction() methods return slices. For a network with a single
// output layer, these slices have a single element.
type NeuralNet interface {
	// Graph returns the computational graph that the network is
	// embedded in
	Graph() *G.ExprGraph

	// Clone clones the network to a new computational graph
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network to a new computational graph,
	// replacing the input node with one of the given batch size
	CloneWithBatch(int) (NeuralNet, error)

	// cloneWithInputTo clones the network to the graph, replacing
	// the network's input with the given input nodes. If multiple
	// input nodes are given, they are concatenated along axis before
	// being fed to the network.
	cloneWithInputTo(axis int, inputs []*G.Node,
		graph *G.ExprGraph) (NeuralNet, error)

	// BatchSize returns the number of rows in the network's input node
	BatchSize() int

	// Features returns the number of features in a single input
	// observation vector
	Features() int

	// Outputs returns the number of values the network predicts
	Outputs() int

	// SetInput sets the value of the network's input node. The input
	// should be constructed in row major order.
	SetInput([]float64) error

	// Set sets the weights of the network to those of another network
	Set(NeuralNet) error

	// Polyak sets the weights of the network to a Polyak average
	// between its current weights and those of another network
	Polyak(NeuralNet, float64) error

	// Learnables returns the nodes of the network that can be learned
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the values of the network's output layers after
	// the last run of the network
	Output() []G.Value

	// Prediction returns the nodes of the computational graph that
	// store the predictions of the network's output layers
	Prediction() []*G.Node
}

// Set sets the weights of dest to be equal to the weights of source
func Set(dest, source NeuralNet) error {
	return dest.Set(source)
}

// Polyak sets the weights of dest to be a Polyak average between its
// current weights and the weights of source:
//
//		dest <- dest * (1 - tau) + source * tau
func Polyak(dest, source NeuralNet, tau float64) error {
	return dest.Polyak(source, tau)
}

// CloneWithInputTo clones a NeuralNet to the graph, replacing the
// network's input with the given input nodes. If multiple input nodes
// are given, they are concatenated along axis before being fed through
// the network. This is useful for composing networks, e.g. feeding an
// actor's chosen actions into a critic by cloning the critic onto the
// actor's output node.
func CloneWithInputTo(net NeuralNet, axis int, inputs []*G.Node,
	graph *G.ExprGraph) (NeuralNet, error) {
	return net.cloneWithInputTo(axis, inputs, graph)
}
