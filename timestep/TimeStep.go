// Package timestep implements timesteps of the agent-environment
// interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be: the first
// step in an episode, a middle step, or the last step.
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType denotes why an episode ended. A Terminal end means the
// environment reached a true terminal state, and the discount on the
// ending TimeStep is 0 so that no value is bootstrapped past it. A
// Cutoff end means the episode was truncated at a step limit; the
// episode ends, but the ending TimeStep keeps the environmental
// discount since the underlying state was not terminal.
type EndType int

const (
	Nil EndType = iota
	Terminal
	Cutoff
)

func (e EndType) String() string {
	switch e {
	case Terminal:
		return "Terminal"
	case Cutoff:
		return "Cutoff"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType    StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
	EndType     EndType
}

// New returns a new TimeStep with a Nil EndType
func New(t StepType, reward, discount float64, obs mat.Vector,
	number int) TimeStep {
	return TimeStep{t, reward, discount, obs, number, Nil}
}

// First returns whether a TimeStep is the first in an episode
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an episode
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an episode
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// TerminatesEpisode returns whether the TimeStep ends an episode due
// to a true environmental terminal state, as opposed to a step-limit
// cutoff.
func (t *TimeStep) TerminatesEpisode() bool {
	return t.Last() && t.EndType == Terminal
}

// SetEnd marks a TimeStep as the last in its episode with end type e
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.EndType = e
	if e == Terminal {
		t.Discount = 0.0
	}
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.Discount, t.Number)
}

// Transition packages together a single transition of the
// agent-environment interaction: (S, A, R, discount, S'). The Discount
// field is the discount applied to bootstrapped values of NextState
// and is exactly 0 when NextState is a true terminal state.
type Transition struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	Discount  float64
	NextState mat.Vector
}

// NewTransition packages a step, the action taken on it, and the
// resulting next step into a Transition.
func NewTransition(step TimeStep, action mat.Vector,
	nextStep TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    nextStep.Reward,
		Discount:  nextStep.Discount,
		NextState: nextStep.Observation,
	}
}
