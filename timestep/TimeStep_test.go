package timestep_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/godqn/timestep"
)

func TestSetEnd(t *testing.T) {
	obs := mat.NewVecDense(2, nil)

	terminal := ts.New(ts.Mid, -1, 0.99, obs, 3)
	terminal.SetEnd(ts.Terminal)
	if !terminal.Last() || !terminal.TerminatesEpisode() {
		t.Error("terminal steps should be Last and terminate the episode")
	}
	if terminal.Discount != 0 {
		t.Errorf("terminal discount: want(0) have(%v)", terminal.Discount)
	}

	cutoff := ts.New(ts.Mid, -1, 0.99, obs, 3)
	cutoff.SetEnd(ts.Cutoff)
	if !cutoff.Last() {
		t.Error("cutoff steps should be Last")
	}
	if cutoff.TerminatesEpisode() {
		t.Error("cutoffs should not count as terminations")
	}
	if cutoff.Discount != 0.99 {
		t.Errorf("cutoff discount: want(0.99) have(%v)", cutoff.Discount)
	}
}

func TestNewTransition(t *testing.T) {
	state := mat.NewVecDense(2, []float64{1, 0})
	nextState := mat.NewVecDense(2, []float64{0, 1})
	action := mat.NewVecDense(1, []float64{2})

	step := ts.New(ts.Mid, -1, 0.99, state, 4)
	nextStep := ts.New(ts.Mid, -2, 0.99, nextState, 5)

	transition := ts.NewTransition(step, action, nextStep)

	if transition.Reward != nextStep.Reward {
		t.Errorf("reward: want(%v) have(%v)", nextStep.Reward,
			transition.Reward)
	}
	if transition.Discount != nextStep.Discount {
		t.Errorf("discount: want(%v) have(%v)", nextStep.Discount,
			transition.Discount)
	}
	if !mat.Equal(transition.State, state) {
		t.Error("transition state should be the first step's observation")
	}
	if !mat.Equal(transition.NextState, nextState) {
		t.Error("transition next state should be the next step's " +
			"observation")
	}
}
