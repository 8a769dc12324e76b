package environment

import "github.com/samuelfneumann/godqn/timestep"

// StepLimit implements the Ender interface to end episodes at a
// specific timestep limit. Episodes ended by a StepLimit are cutoffs,
// not terminations: the ending timestep keeps its discount so that
// learners may still bootstrap past it.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended, End modifies the timestep so that it is marked as
// the last in the episode with a Cutoff end type.
func (s StepLimit) End(t *timestep.TimeStep) bool {
	if t.Number >= s.episodeSteps {
		t.SetEnd(timestep.Cutoff)
		return true
	}
	return false
}
