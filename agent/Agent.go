// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/network"
	"github.com/samuelfneumann/godqn/timestep"
)

// Agent determines the implementation details of an agent or
// algorithm.
//
// An Agent is composed of a Learner, which learns weights, and a
// Policy which chooses actions in each state. The Policy chooses
// which actions are taken, and the Learner uses these actions to
// update the Policy.
type Agent interface {
	Learner
	Policy
}

// A Closer is an agent that must be closed after it is done learning
type Closer interface {
	Agent
	Close() error
}

// Learner implements a learning algorithm that defines how weights
// are updated.
type Learner interface {
	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// Observe records that an action led to some timestep
	Observe(action mat.Vector, nextStep timestep.TimeStep) error

	// Step performs a single update to the learner
	Step() error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. Agents usually have a
// behaviour and a target policy. For a given agent, the Policy and
// Learner should share weights so that any changes the Learner makes
// are reflected in the actions the Policy chooses.
type Policy interface {
	SelectAction(t timestep.TimeStep) (*mat.VecDense, error)
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// NNPolicy represents a policy implemented by a neural network.
//
// NNPolicies satisfy a different action-selection interface from
// Policy because an external VM is needed to run the policy's
// computational graph. To select an action with an NNPolicy, first
// call SetInput() with an observation, then run a VM over the
// policy's Graph(), then call SelectAction().
type NNPolicy interface {
	Network() network.NeuralNet

	// SelectAction returns an action and its estimated value based on
	// the last run of the policy's computational graph
	SelectAction() (*mat.VecDense, float64, error)

	ClonePolicy() (NNPolicy, error)
	ClonePolicyWithBatch(int) (NNPolicy, error)
}

// EGreedyNNPolicy implements an epsilon greedy policy using neural
// network function approximation. Any neural network can be used to
// approximate the policy as long as the epsilon value for the epsilon
// greedy policy can be set and retrieved.
type EGreedyNNPolicy interface {
	NNPolicy
	SetEpsilon(float64)
	Epsilon() float64
}
