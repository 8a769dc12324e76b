// Package environment outlines the interfaces and structs needed to
// implement concrete environments
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines whether an episode should end on the current
// timestep for reasons other than the environment dynamics themselves,
// e.g. a step limit. If the episode should end, the Ender modifies the
// TimeStep in place to mark it as the last in the episode.
type Ender interface {
	End(*timestep.TimeStep) bool
}

// Task implements the reward scheme for taking actions in some
// environment
type Task interface {
	GetReward(t timestep.TimeStep, a mat.Vector) float64
	AtGoal(state mat.Matrix) bool

	// Min and Max return the minimum and maximum attainable rewards
	Min() float64
	Max() float64
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	Starter

	// Reset resets the environment between episodes, returning the
	// first timestep of the new episode
	Reset() timestep.TimeStep

	// Step takes one environmental step given some action, returning
	// the next timestep and whether that timestep is the last in the
	// episode
	Step(action mat.Vector) (timestep.TimeStep, bool, error)

	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}
