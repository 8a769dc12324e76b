// Package network implements neural network function approximators
// using Gorgonia
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet implements a neural network function approximator.
//
// A NeuralNet populates a gorgonia.ExprGraph with its forward pass but
// holds no VM of its own. An external VM runs the graph: first call
// SetInput() with a flattened, row-major batch of observations, then
// run the VM, then read the predictions with Output().
type NeuralNet interface {
	// Graph returns the computational graph the network is built in
	Graph() *G.ExprGraph

	// Clone clones the network into a fresh graph, copying its
	// current weights. CloneWithBatch additionally changes the input
	// batch size of the clone.
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of observation vectors the network
	// takes as input at once
	BatchSize() int

	// Features returns the number of features in a single observation
	// vector
	Features() int

	// Outputs returns the number of values the network predicts per
	// observation vector
	Outputs() int

	// SetInput sets the network input before running the forward pass
	SetInput([]float64) error

	// Set copies the weights of another NeuralNet into the receiver
	Set(NeuralNet) error

	// Polyak sets the receiver's weights to an exponential moving
	// average between its own weights and those of another NeuralNet
	Polyak(NeuralNet, float64) error

	// Learnables returns the graph nodes holding trainable weights.
	// Model returns the same nodes as ValueGrads for a solver.
	Learnables() G.Nodes
	Model() []G.ValueGrad

	// Output returns the value of the network predictions from the
	// last run of the graph. Prediction returns the graph node that
	// stores the predictions.
	Output() G.Value
	Prediction() *G.Node
}
