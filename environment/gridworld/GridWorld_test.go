package gridworld_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/environment/gridworld"
	"github.com/samuelfneumann/godqn/timestep"
)

const discount = 0.99

// newGridWorld returns an r x c gridworld with the agent starting at
// (0, 0), a single goal at (goalX, goalY), a reward of -1 per step and
// 0 at the goal, and a step limit of maxSteps.
func newGridWorld(t *testing.T, r, c, goalX, goalY,
	maxSteps int) *gridworld.GridWorld {
	task, err := gridworld.NewGoal([]int{goalX}, []int{goalY}, r, c, -1.0,
		0.0)
	if err != nil {
		t.Fatalf("could not create task: %v", err)
	}

	start, err := gridworld.NewSingleStart(0, 0, r, c)
	if err != nil {
		t.Fatalf("could not create starter: %v", err)
	}

	g, _, err := gridworld.New(r, c, task, start,
		environment.NewStepLimit(maxSteps), discount)
	if err != nil {
		t.Fatalf("could not create gridworld: %v", err)
	}
	return g
}

func action(direction int) *mat.VecDense {
	return mat.NewVecDense(1, []float64{float64(direction)})
}

func TestReset(t *testing.T) {
	g := newGridWorld(t, 3, 4, 3, 2, 100)

	step := g.Reset()
	if !step.First() {
		t.Errorf("reset should return a First timestep, got %v",
			step.StepType)
	}
	if step.Number != 0 {
		t.Errorf("first timestep number: want(0) have(%v)", step.Number)
	}
	if step.Discount != discount {
		t.Errorf("first timestep discount: want(%v) have(%v)", discount,
			step.Discount)
	}

	// The observation is one-hot over the 12 cells with the agent at
	// (0, 0)
	obs := step.Observation
	if obs.Len() != 12 {
		t.Fatalf("observation length: want(12) have(%v)", obs.Len())
	}
	for i := 0; i < obs.Len(); i++ {
		want := 0.0
		if i == 0 {
			want = 1.0
		}
		if obs.AtVec(i) != want {
			t.Errorf("observation[%v]: want(%v) have(%v)", i, want,
				obs.AtVec(i))
		}
	}
}

func TestMovement(t *testing.T) {
	g := newGridWorld(t, 3, 3, 2, 2, 100)
	g.Reset()

	// Moving off the grid leaves the position unchanged
	step, last, err := g.Step(action(gridworld.MoveLeft))
	if err != nil {
		t.Fatalf("could not step: %v", err)
	}
	if last {
		t.Fatal("episode should not have ended")
	}
	if step.Observation.AtVec(0) != 1.0 {
		t.Error("moving off the grid should leave the position unchanged")
	}

	// One step right moves the agent from cell 0 to cell 1
	step, _, err = g.Step(action(gridworld.MoveRight))
	if err != nil {
		t.Fatalf("could not step: %v", err)
	}
	if step.Observation.AtVec(1) != 1.0 {
		t.Errorf("agent should be at cell 1 after moving right")
	}
	if step.Reward != -1.0 {
		t.Errorf("step reward: want(-1) have(%v)", step.Reward)
	}
	if step.Number != 2 {
		t.Errorf("step number: want(2) have(%v)", step.Number)
	}
}

// TestRandomStart checks that random starts always produce a valid
// one-hot observation over the grid cells.
func TestRandomStart(t *testing.T) {
	r, c := 3, 4
	task, err := gridworld.NewGoal([]int{3}, []int{2}, r, c, -1.0, 0.0)
	if err != nil {
		t.Fatalf("could not create task: %v", err)
	}

	start, err := gridworld.NewRandomStart(r, c, 14)
	if err != nil {
		t.Fatalf("could not create starter: %v", err)
	}

	g, _, err := gridworld.New(r, c, task, start,
		environment.NewStepLimit(100), discount)
	if err != nil {
		t.Fatalf("could not create gridworld: %v", err)
	}

	for i := 0; i < 50; i++ {
		step := g.Reset()

		ones := 0
		for j := 0; j < step.Observation.Len(); j++ {
			switch step.Observation.AtVec(j) {
			case 1.0:
				ones++
			case 0.0:
			default:
				t.Fatalf("observation is not one-hot: %v", step.Observation)
			}
		}
		if ones != 1 {
			t.Fatalf("observation should have exactly one occupied cell, "+
				"have %v", ones)
		}
	}
}

func TestInvalidAction(t *testing.T) {
	g := newGridWorld(t, 3, 3, 2, 2, 100)
	g.Reset()

	if _, _, err := g.Step(action(-1)); err == nil {
		t.Error("negative actions should be rejected")
	}
	if _, _, err := g.Step(action(4)); err == nil {
		t.Error("out-of-range actions should be rejected")
	}
	if _, _, err := g.Step(mat.NewVecDense(2, nil)); err == nil {
		t.Error("multi-dimensional actions should be rejected")
	}
}

// TestGoalTerminatesEpisode checks that entering a goal cell truly
// terminates the episode: the ending timestep has a Terminal end type
// and a discount of exactly 0.
func TestGoalTerminatesEpisode(t *testing.T) {
	g := newGridWorld(t, 2, 2, 1, 0, 100)
	g.Reset()

	step, last, err := g.Step(action(gridworld.MoveRight))
	if err != nil {
		t.Fatalf("could not step: %v", err)
	}

	if !last || !step.Last() {
		t.Fatal("episode should have ended at the goal")
	}
	if !step.TerminatesEpisode() {
		t.Errorf("goal entry should terminate, got end type %v",
			step.EndType)
	}
	if step.Discount != 0.0 {
		t.Errorf("terminal discount: want(0) have(%v)", step.Discount)
	}
	if step.Reward != 0.0 {
		t.Errorf("goal reward: want(0) have(%v)", step.Reward)
	}
}

// TestStepLimitCutsOff checks that the step limit ends episodes with a
// Cutoff end type, keeping the discount so that learners may still
// bootstrap past the cutoff.
func TestStepLimitCutsOff(t *testing.T) {
	limit := 5
	g := newGridWorld(t, 3, 3, 2, 2, limit)
	g.Reset()

	var step timestep.TimeStep
	var last bool
	var err error
	for i := 0; i < limit; i++ {
		step, last, err = g.Step(action(gridworld.MoveLeft))
		if err != nil {
			t.Fatalf("could not step: %v", err)
		}
		if i < limit-1 && last {
			t.Fatalf("episode ended early on step %v", i+1)
		}
	}

	if !last || !step.Last() {
		t.Fatal("episode should have been cut off at the step limit")
	}
	if step.TerminatesEpisode() {
		t.Error("cutoffs should not count as terminations")
	}
	if step.EndType != timestep.Cutoff {
		t.Errorf("end type: want(Cutoff) have(%v)", step.EndType)
	}
	if step.Discount != discount {
		t.Errorf("cutoff should keep the discount: want(%v) have(%v)",
			discount, step.Discount)
	}
}
