// Package deepq implements the Deep Q-Network (DQN) learning
// algorithm.
package deepq

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/godqn/agent"
	"github.com/samuelfneumann/godqn/agent/policy"
	"github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/expreplay"
	ts "github.com/samuelfneumann/godqn/timestep"
)

// DeepQ implements the Deep Q-Network algorithm. An online network is
// trained by gradient descent on the mean squared error between its
// action-value predictions and one-step bootstrapped targets
//
//	backup = r + discount * max[Q'(s', a')]
//
// where Q' is a separate target network that is never updated by
// gradient descent. After each update call, the target network's
// weights are moved toward the online network's weights by Polyak
// averaging; this lagged copy decouples the bootstrap target from the
// rapidly changing online estimate. The stored per-transition
// discount is exactly 0 for transitions into true terminal states, so
// no value is ever bootstrapped past the end of an episode.
type DeepQ struct {
	// Action selection policies. The behaviour policy is epsilon
	// greedy with an annealed epsilon; the target policy is greedy
	// and used in evaluation mode.
	behaviourPolicy   agent.EGreedyNNPolicy
	behaviourPolicyVM G.VM
	targetPolicy      agent.EGreedyNNPolicy
	targetPolicyVM    G.VM

	// Network whose weights are adapted by gradient descent, taking
	// batches of observations as input
	trainNet   agent.EGreedyNNPolicy
	trainNetVM G.VM
	solver     G.Solver

	// Target network providing the update targets for batches of
	// next-state observations. Its weights are excluded from the
	// solver and only ever change through Polyak averaging.
	targetNet   agent.EGreedyNNPolicy
	targetNetVM G.VM

	tau       float64 // Polyak averaging constant
	gradSteps int     // Gradient steps per update call

	// Input nodes of the training graph
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node
	selectedActions       *G.Node

	// Values read out of the training graph on each run. These are
	// the targets registered with G.Read, so the VM writes through
	// these exact pointers.
	lossVal *G.Value
	qVal    *G.Value

	replay   *expreplay.Buffer
	annealer *Annealer

	numActions int
	batchSize  int

	curStep ts.TimeStep
	eval    bool
}

// New creates and returns a new DeepQ agent
func New(env environment.Environment, config Config,
	seed int64) (*DeepQ, error) {
	// Ensure environment has discrete, 1-dimensional actions
	// enumerated from 0
	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, fmt.Errorf("deepq: cannot use non-discrete actions")
	}
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("deepq: actions must be 1-dimensional")
	}
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("deepq: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("deepq: %v", err)
	}

	batchSize := config.BatchSize()
	numActions := int(env.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := env.ObservationSpec().Shape.Len()

	annealer, err := NewAnnealer(config.ExplorationStart,
		config.ExplorationDecay, config.ExplorationEnd)
	if err != nil {
		return nil, fmt.Errorf("deepq: %v", err)
	}

	// Behaviour network for selecting actions, one observation at a
	// time
	g := G.NewGraph()
	behaviourPolicy, err := policy.NewMultiHeadEGreedyMLP(
		annealer.Rate(),
		env,
		1,
		g,
		config.PolicyLayers,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create behaviour "+
			"policy: %v", err)
	}
	behaviourPolicyVM := G.NewTapeMachine(behaviourPolicy.Network().Graph())

	// Greedy policy for action selection in evaluation mode
	targetPolicyClone, err := behaviourPolicy.ClonePolicy()
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create greedy policy: %v",
			err)
	}
	targetPolicy := targetPolicyClone.(agent.EGreedyNNPolicy)
	targetPolicy.SetEpsilon(0.0)
	targetPolicyVM := G.NewTapeMachine(targetPolicy.Network().Graph())

	// Training network, which learns the weights
	trainNetClone, err := behaviourPolicy.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create learning "+
			"network: %v", err)
	}
	trainNet := trainNetClone.(agent.EGreedyNNPolicy)
	gTrain := trainNet.Network().Graph()

	// Target network, which provides the update target. Created as an
	// exact structural and weight copy of the online network; its
	// learnables are never given to the solver.
	targetNetClone, err := behaviourPolicy.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create target "+
			"network: %v", err)
	}
	targetNet := targetNetClone.(agent.EGreedyNNPolicy)
	targetNet.SetEpsilon(0.0)
	targetNetVM := G.NewTapeMachine(targetNet.Network().Graph())

	// Nodes to compute the update target: r + discount*max[Q'(s', a')].
	// The next-state action values are computed externally by the
	// target network and fed in, so no gradient flows through the
	// backup.
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64,
		G.WithShape(batchSize), G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// One-hot encoding of the actions taken in the sampled states.
	// The network outputs one value per action, so the value of the
	// taken action is gathered by masking and summing along the
	// action dimension.
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
	)
	selectedActionsValue := G.Must(G.HadamardProd(
		trainNet.Network().Prediction(), selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Mean squared Bellman error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	lossVal := new(G.Value)
	G.Read(cost, lossVal)
	qVal := new(G.Value)
	G.Read(selectedActionsValue, qVal)

	if _, err := G.Grad(cost, trainNet.Network().Learnables()...); err != nil {
		return nil, fmt.Errorf("deepq: could not compute gradient: %v", err)
	}

	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Network().Learnables()...),
	)

	replay, err := config.ExpReplay.Create(numFeatures, numActions, seed)
	if err != nil {
		return nil, fmt.Errorf("deepq: could not create experience "+
			"replay buffer: %v", err)
	}

	return &DeepQ{
		behaviourPolicy:   behaviourPolicy,
		behaviourPolicyVM: behaviourPolicyVM,
		targetPolicy:      targetPolicy,
		targetPolicyVM:    targetPolicyVM,
		trainNet:          trainNet,
		trainNetVM:        trainNetVM,
		solver:            config.Solver,
		targetNet:         targetNet,
		targetNetVM:       targetNetVM,

		tau:       config.Polyak,
		gradSteps: config.GradSteps,

		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,

		lossVal: lossVal,
		qVal:    qVal,

		replay:   replay,
		annealer: annealer,

		numActions: numActions,
		batchSize:  batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep "+
			"%v is not the first in an episode", t.Number)
	}
	d.curStep = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep. The transition from the last observed timestep under
// action to nextStep is stored in the replay buffer, and the
// exploration rate is annealed by one step.
func (d *DeepQ) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods cannot have "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	// The replay buffer stores actions as one-hot vectors
	oneHotAction := mat.NewVecDense(d.numActions, nil)
	oneHotAction.SetVec(int(action.AtVec(0)), 1.0)

	transition := ts.NewTransition(d.curStep, oneHotAction, nextStep)
	if err := d.replay.Add(transition); err != nil {
		return fmt.Errorf("observe: could not store transition: %v", err)
	}

	d.curStep = nextStep

	// Anneal the exploration rate once per environment step, after
	// the action for the step has been chosen
	d.behaviourPolicy.SetEpsilon(d.annealer.Advance())

	return nil
}

// Step samples a minibatch from the replay buffer and performs one
// update call on the agent: a configured number of gradient steps on
// the sampled minibatch followed by exactly one Polyak synchronization
// of the target network. If the buffer does not yet hold enough
// samples, Step is a no-op.
func (d *DeepQ) Step() error {
	S, A, R, discount, NextS, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample from replay buffer: %v",
			err)
	}

	for i := 0; i < d.gradSteps; i++ {
		if err := d.gradStep(S, A, R, discount, NextS); err != nil {
			return fmt.Errorf("step: %v", err)
		}
	}

	// Exactly one target network synchronization per update call,
	// regardless of the number of gradient steps taken above
	err = d.targetNet.Network().Polyak(d.trainNet.Network(), d.tau)
	if err != nil {
		return fmt.Errorf("step: could not synchronize target "+
			"network: %v", err)
	}

	// The action-selection policies share weights with the training
	// network
	if err := d.behaviourPolicy.Network().Set(d.trainNet.Network()); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v", err)
	}
	if err := d.targetPolicy.Network().Set(d.trainNet.Network()); err != nil {
		return fmt.Errorf("step: could not update greedy policy: %v", err)
	}

	return nil
}

// gradStep performs a single gradient descent step on the argument
// minibatch.
func (d *DeepQ) gradStep(S, A, R, discount, NextS []float64) error {
	// Predict the action values of the next states with the target
	// network
	if err := d.targetNet.Network().SetInput(NextS); err != nil {
		return fmt.Errorf("could not set target network input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("could not run target network: %v", err)
	}
	err := G.Let(d.nextStateActionValues, d.targetNet.Network().Output())
	if err != nil {
		return fmt.Errorf("could not set next state-action values: %v", err)
	}
	d.targetNetVM.Reset()

	// Predict the action values of the sampled states with the
	// training network
	if err := d.trainNet.Network().SetInput(S); err != nil {
		return fmt.Errorf("could not set training network input: %v", err)
	}

	prevActions := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(d.selectedActions, prevActions); err != nil {
		return fmt.Errorf("could not set selected actions: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithShape(d.batchSize),
		tensor.WithBacking(R))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("could not set rewards: %v", err)
	}

	discountTensor := tensor.New(tensor.WithShape(d.batchSize),
		tensor.WithBacking(discount))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("could not set discounts: %v", err)
	}

	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("could not run training network: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Network().Model()); err != nil {
		return fmt.Errorf("could not step solver: %v", err)
	}
	d.trainNetVM.Reset()

	// Persistent divergence corrupts the weights; abort rather than
	// keep training on them
	if loss := d.Loss(); math.IsNaN(loss) || math.IsInf(loss, 0) {
		return fmt.Errorf("loss diverged (loss = %v); run aborted", loss)
	}

	return nil
}

// SelectAction runs the necessary VMs and then returns an action
// selected by the behaviour policy, or by the greedy policy when in
// evaluation mode.
func (d *DeepQ) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	var p agent.EGreedyNNPolicy
	var vm G.VM

	if d.eval {
		p = d.targetPolicy
		vm = d.targetPolicyVM
	} else {
		p = d.behaviourPolicy
		vm = d.behaviourPolicyVM
	}

	obs := t.Observation.(*mat.VecDense).RawVector().Data
	if err := p.Network().SetInput(obs); err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("selectaction: could not run policy: %v", err)
	}

	action, _, err := p.SelectAction()
	if err != nil {
		return nil, fmt.Errorf("selectaction: %v", err)
	}

	vm.Reset()
	return action, nil
}

// Loss returns the loss computed on the last gradient step. Before
// any gradient step has run, Loss returns NaN.
func (d *DeepQ) Loss() float64 {
	if *d.lossVal == nil {
		return math.NaN()
	}
	return (*d.lossVal).Data().(float64)
}

// QVals returns the online network's value estimates for the actions
// of the minibatch used on the last gradient step.
func (d *DeepQ) QVals() []float64 {
	if *d.qVal == nil {
		return nil
	}

	data := (*d.qVal).Data().([]float64)
	qVals := make([]float64, len(data))
	copy(qVals, data)
	return qVals
}

// ExplorationRate returns the current exploration rate of the
// behaviour policy.
func (d *DeepQ) ExplorationRate() float64 {
	return d.annealer.Rate()
}

// BufferSize returns the number of transitions currently stored in
// the replay buffer.
func (d *DeepQ) BufferSize() int {
	return d.replay.Size()
}

// BatchSize returns the number of transitions sampled from the replay
// buffer on each gradient step.
func (d *DeepQ) BatchSize() int {
	return d.batchSize
}

// MinSamples returns the number of stored transitions required before
// the agent can perform an update, which is never below the batch
// size.
func (d *DeepQ) MinSamples() int {
	if d.replay.MinCapacity() > d.batchSize {
		return d.replay.MinCapacity()
	}
	return d.batchSize
}

// Policy returns the greedy policy of the agent, which is the policy
// that should be deployed or checkpointed.
func (d *DeepQ) Policy() agent.EGreedyNNPolicy {
	return d.targetPolicy
}

// Eval sets the agent into evaluation mode
func (d *DeepQ) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DeepQ) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

// EndEpisode performs cleanup at the end of an episode
func (d *DeepQ) EndEpisode() {}

// Close closes the VMs of the agent's computational graphs
func (d *DeepQ) Close() error {
	vms := []G.VM{
		d.behaviourPolicyVM,
		d.targetPolicyVM,
		d.trainNetVM,
		d.targetNetVM,
	}

	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return nil
}
