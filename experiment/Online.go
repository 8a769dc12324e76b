package experiment

import (
	"fmt"
	"time"

	"github.com/samuelfneumann/godqn/agent"
	env "github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/experiment/checkpointer"
	"github.com/samuelfneumann/godqn/experiment/tracker"
	ts "github.com/samuelfneumann/godqn/timestep"
)

// metricReporter describes agents that report diagnostics about their
// last update. Agents satisfying this interface have their update
// diagnostics logged per epoch.
type metricReporter interface {
	Loss() float64
	QVals() []float64
	ExplorationRate() float64
}

// replayReporter describes agents that learn from a replay buffer of
// stored transitions. Update calls on such agents are gated until the
// buffer holds the agent's required number of samples, so that
// sampling preconditions are enforced by the experiment rather than
// deep inside an update.
type replayReporter interface {
	BufferSize() int
	MinSamples() int
}

// Online is an Experiment running a single agent online on a single
// training environment. Training is divided into epochs; at the end of
// each epoch the agent is evaluated with greedy action selection on a
// separate evaluation environment and periodically checkpointed.
//
// The experiment runs as a single sequential loop: environment
// interaction, replay storage, and gradient computation are strictly
// interleaved on one goroutine, and the two environment instances are
// never stepped concurrently.
type Online struct {
	trainEnv env.Environment
	evalEnv  env.Environment
	agent    agent.Agent

	config        Config
	logger        *Logger
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
}

// NewOnline creates and returns a new online experiment running agent
// a on environment trainEnv for config.TotalSteps() environment
// steps. Epoch-boundary evaluation episodes are run on evalEnv, which
// must be a separate instance of the same environment so that
// evaluation never perturbs training state.
func NewOnline(trainEnv, evalEnv env.Environment, a agent.Agent,
	config Config, logger *Logger, trackers []tracker.Tracker,
	checkpointers []checkpointer.Checkpointer) (*Online, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newonline: %v", err)
	}
	if logger == nil {
		return nil, fmt.Errorf("newonline: no logger given")
	}

	return &Online{
		trainEnv:      trainEnv,
		evalEnv:       evalEnv,
		agent:         a,
		config:        config,
		logger:        logger,
		trackers:      trackers,
		checkpointers: checkpointers,
	}, nil
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	start := time.Now()

	step := o.trainEnv.Reset()
	if err := o.agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("run: %v", err)
	}
	o.track(step)

	episodeReturn := 0.0

	for i := 1; i <= o.config.TotalSteps(); i++ {
		action, err := o.agent.SelectAction(step)
		if err != nil {
			return fmt.Errorf("run: could not select action: %v", err)
		}

		step, _, err = o.trainEnv.Step(action)
		if err != nil {
			return fmt.Errorf("run: could not step environment: %v", err)
		}

		if err := o.agent.Observe(action, step); err != nil {
			return fmt.Errorf("run: %v", err)
		}
		o.track(step)
		episodeReturn += step.Reward

		if step.Last() {
			o.logger.Store("EpisodeReturn", episodeReturn)
			o.logger.Store("EpisodeLength", float64(step.Number))
			episodeReturn = 0.0

			o.agent.EndEpisode()

			step = o.trainEnv.Reset()
			if err := o.agent.ObserveFirst(step); err != nil {
				return fmt.Errorf("run: %v", err)
			}
			o.track(step)
		}

		// Batched catch-up updates: one update per environment step in
		// aggregate, performed UpdateInterval at a time
		if i%o.config.UpdateInterval == 0 && o.readyToUpdate() {
			for j := 0; j < o.config.UpdateInterval; j++ {
				if err := o.agent.Step(); err != nil {
					return fmt.Errorf("run: could not update agent: %v", err)
				}
				o.storeUpdateMetrics()
			}
		}

		if i%o.config.StepsPerEpoch == 0 {
			epoch := i / o.config.StepsPerEpoch

			if err := o.evaluate(); err != nil {
				return fmt.Errorf("run: %v", err)
			}

			o.logger.Store("TotalEnvSteps", float64(i))
			o.logger.Store("Time", time.Since(start).Seconds())
			o.logger.Dump(epoch)

			if err := o.checkpoint(epoch); err != nil {
				return fmt.Errorf("run: %v", err)
			}
		}
	}

	return nil
}

// evaluate runs the configured number of evaluation episodes with
// greedy action selection on the evaluation environment. Evaluation
// generates no training data: the agent never observes the evaluation
// timesteps and no updates are performed.
func (o *Online) evaluate() error {
	o.agent.Eval()
	defer o.agent.Train()

	for ep := 0; ep < o.config.NumTestEpisodes; ep++ {
		step := o.evalEnv.Reset()
		testReturn := 0.0

		for !step.Last() {
			action, err := o.agent.SelectAction(step)
			if err != nil {
				return fmt.Errorf("evaluate: could not select action: %v",
					err)
			}

			step, _, err = o.evalEnv.Step(action)
			if err != nil {
				return fmt.Errorf("evaluate: could not step "+
					"environment: %v", err)
			}
			testReturn += step.Reward
		}

		o.logger.Store("TestEpisodeReturn", testReturn)
		o.logger.Store("TestEpisodeLength", float64(step.Number))
	}

	return nil
}

// Save saves all the data cached by the Trackers and the Logger to
// disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return o.logger.Save()
}

// track tracks the current timestep by caching its data in each
// Tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tracker := range o.trackers {
		tracker.Track(t)
	}
}

// checkpoint saves the current state of the agent with each registered
// Checkpointer
func (o *Online) checkpoint(epoch int) error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(epoch); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}

// readyToUpdate returns whether the agent's update preconditions are
// satisfied. For agents learning from a replay buffer, updates are
// held off until the buffer holds enough samples for the agent to
// draw a minibatch.
func (o *Online) readyToUpdate() bool {
	r, ok := o.agent.(replayReporter)
	if !ok {
		return true
	}
	return r.BufferSize() >= r.MinSamples()
}

// storeUpdateMetrics logs the diagnostics of the agent's last update,
// if the agent reports any
func (o *Online) storeUpdateMetrics() {
	m, ok := o.agent.(metricReporter)
	if !ok {
		return
	}

	o.logger.Store("Loss", m.Loss())
	o.logger.Store("QVals", m.QVals()...)
	o.logger.Store("Epsilon", m.ExplorationRate())
}
