// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"fmt"

	"github.com/samuelfneumann/godqn/experiment/tracker"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments interleave environment interaction and agent updates,
// sending each training TimeStep to their registered
// tracker.Trackers, which cache data in RAM to be saved to disk by
// Save() once the experiment has finished. New Trackers can be
// registered with an Experiment through the constructor or through the
// Register() method.
type Experiment interface {
	Run() error

	// Save all tracked data to disk
	Save() error

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment. Useful if data should be tracked only after
	// a specified event.
	Register(t tracker.Tracker)
}

// Config represents a configuration of an experiment. Training is
// divided into Epochs epochs of StepsPerEpoch environment steps each.
type Config struct {
	StepsPerEpoch int // Environment steps per epoch
	Epochs        int // Total epochs to train for

	// UpdateInterval is the period, in environment steps, of agent
	// updates. Every UpdateInterval steps the experiment performs
	// UpdateInterval consecutive update calls, keeping the aggregate
	// ratio of gradient updates to environment steps at 1:1 while
	// amortizing the overhead of batched updates.
	UpdateInterval int

	// NumTestEpisodes is the number of evaluation episodes run at each
	// epoch boundary. Evaluation episodes use greedy action selection
	// on a separate environment instance and generate no training
	// data.
	NumTestEpisodes int

	// SaveFreq is the period, in epochs, of agent checkpointing. The
	// agent is also checkpointed after the final epoch.
	SaveFreq int
}

// Validate checks whether the Config is a valid experiment
// configuration
func (c Config) Validate() error {
	if c.StepsPerEpoch < 1 {
		return fmt.Errorf("validate: steps per epoch must be positive "+
			"\n\thave(%v)", c.StepsPerEpoch)
	}
	if c.Epochs < 1 {
		return fmt.Errorf("validate: epochs must be positive \n\thave(%v)",
			c.Epochs)
	}
	if c.UpdateInterval < 1 {
		return fmt.Errorf("validate: update interval must be positive "+
			"\n\thave(%v)", c.UpdateInterval)
	}
	if c.NumTestEpisodes < 0 {
		return fmt.Errorf("validate: number of test episodes cannot be "+
			"negative \n\thave(%v)", c.NumTestEpisodes)
	}
	if c.SaveFreq < 1 {
		return fmt.Errorf("validate: save frequency must be positive "+
			"\n\thave(%v)", c.SaveFreq)
	}
	return nil
}

// TotalSteps returns the total number of environment steps the
// experiment runs for
func (c Config) TotalSteps() int {
	return c.StepsPerEpoch * c.Epochs
}
