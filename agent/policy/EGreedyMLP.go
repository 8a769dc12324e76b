// Package policy implements action-selection policies using function
// approximation with Gorgonia.
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/godqn/agent"
	env "github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/network"
	"github.com/samuelfneumann/godqn/utils/floatutils"
)

// MultiHeadEGreedyMLP implements an epsilon greedy policy using a
// feedforward neural network/MLP. Given an environment with N
// actions, the neural network will produce N outputs, each predicting
// the value of a distinct action.
//
// MultiHeadEGreedyMLP simply populates a gorgonia.ExprGraph with the
// neural network function approximator and selects actions based on
// the output of this neural network. The struct does not have a VM of
// its own; an external VM should be used to run the computational
// graph of the policy before selecting an action:
//
//	Set up VM with policy's graph:	vm = NewTapeMachine(policy.Graph())
//	Get state observation vector:	obs
//	Set input to policy's network:	policy.SetInput(obs)
//	Predict the action values:	vm.RunAll()
//	Select an action:		action, _, _ = policy.SelectAction()
type MultiHeadEGreedyMLP struct {
	network.NeuralNet
	epsilon float64

	rng  *rand.Rand
	seed int64
}

// NewMultiHeadEGreedyMLP creates and returns a new
// MultiHeadEGreedyMLP. The hiddenSizes parameter defines the number
// of nodes in each hidden layer, the biases parameter outlines which
// layers should include bias units, and the activations parameter
// determines the activation function for each layer. The batch
// parameter determines the number of observations the policy
// evaluates at once.
//
// A final linear layer is always added so that the number of network
// outputs equals the number of actions in the environment, regardless
// of the other constructor arguments.
func NewMultiHeadEGreedyMLP(epsilon float64, e env.Environment, batch int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*network.Activation,
	seed int64) (agent.EGreedyNNPolicy, error) {
	if e.ActionSpec().Cardinality != env.Discrete {
		return nil, fmt.Errorf("new: egreedy policies require discrete " +
			"actions")
	}

	// Calculate the number of actions and state features
	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := e.ObservationSpec().Shape.Len()

	net, err := network.NewMultiHeadMLP(features, batch, numActions, g,
		hiddenSizes, biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("new: could not create policy: %v", err)
	}

	// RNG for sampling actions
	source := rand.NewSource(seed)
	rng := rand.New(source)

	return &MultiHeadEGreedyMLP{
		NeuralNet: net,
		epsilon:   epsilon,
		rng:       rng,
		seed:      seed,
	}, nil
}

// Network returns the neural network function approximator that the
// policy uses.
func (e *MultiHeadEGreedyMLP) Network() network.NeuralNet {
	return e.NeuralNet
}

// ClonePolicy clones a MultiHeadEGreedyMLP
func (e *MultiHeadEGreedyMLP) ClonePolicy() (agent.NNPolicy, error) {
	return e.ClonePolicyWithBatch(e.BatchSize())
}

// ClonePolicyWithBatch clones a MultiHeadEGreedyMLP with a new input
// batch size.
func (e *MultiHeadEGreedyMLP) ClonePolicyWithBatch(
	batchSize int) (agent.NNPolicy, error) {
	net, err := e.NeuralNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("clonepolicywithbatch: could not clone "+
			"policy: %v", err)
	}

	source := rand.NewSource(e.seed)
	rng := rand.New(source)

	return &MultiHeadEGreedyMLP{
		NeuralNet: net,
		epsilon:   e.epsilon,
		rng:       rng,
		seed:      e.seed,
	}, nil
}

// SetEpsilon sets the value for epsilon in the epsilon greedy policy
func (e *MultiHeadEGreedyMLP) SetEpsilon(ε float64) {
	e.epsilon = ε
}

// Epsilon gets the value of epsilon for the policy
func (e *MultiHeadEGreedyMLP) Epsilon() float64 {
	return e.epsilon
}

// SelectAction selects an action according to the action values
// generated from the last run of the computational graph. This
// function returns the action selected as well as the approximated
// value of that action.
func (e *MultiHeadEGreedyMLP) SelectAction() (*mat.VecDense, float64,
	error) {
	if e.Output() == nil {
		return nil, 0, fmt.Errorf("selectaction: vm must be run before " +
			"selecting an action")
	}

	// Action values from the last run of the computational graph
	actionValues := e.Output().Data().([]float64)

	// With probability epsilon select a random action
	if probability := e.rng.Float64(); probability < e.epsilon {
		action := e.rng.Intn(e.numActions())
		return mat.NewVecDense(1, []float64{float64(action)}),
			actionValues[action], nil
	}

	// Get the actions of maximum value
	_, maxIndices := floatutils.MaxSlice(actionValues)

	// If multiple actions have max value, return a random max-valued
	// action
	action := maxIndices[e.rng.Intn(len(maxIndices))]
	return mat.NewVecDense(1, []float64{float64(action)}),
		actionValues[action], nil
}

// numActions returns the number of actions that the policy chooses
// between.
func (e *MultiHeadEGreedyMLP) numActions() int {
	return e.Outputs()
}

// GobEncode implements the gob.GobEncoder interface
func (e *MultiHeadEGreedyMLP) GobEncode() ([]byte, error) {
	serializableNet, ok := e.NeuralNet.(gob.GobEncoder)
	if !ok {
		return nil, fmt.Errorf("gobencode: neural network not serializable")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(serializableNet); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v", err)
	}
	if err := enc.Encode(e.epsilon); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode epsilon: %v", err)
	}
	if err := enc.Encode(e.seed); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode seed: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *MultiHeadEGreedyMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	if err := dec.Decode(&e.NeuralNet); err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}
	if err := dec.Decode(&e.epsilon); err != nil {
		return fmt.Errorf("gobdecode: could not decode epsilon: %v", err)
	}
	if err := dec.Decode(&e.seed); err != nil {
		return fmt.Errorf("gobdecode: could not decode seed: %v", err)
	}

	// The rng is reconstructed, not serialized
	e.rng = rand.New(rand.NewSource(e.seed))

	return nil
}
