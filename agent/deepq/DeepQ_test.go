package deepq_test

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/agent/deepq"
	"github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/environment/gridworld"
	"github.com/samuelfneumann/godqn/expreplay"
	"github.com/samuelfneumann/godqn/initwfn"
	"github.com/samuelfneumann/godqn/network"
	"github.com/samuelfneumann/godqn/solver"
	ts "github.com/samuelfneumann/godqn/timestep"
)

// newGridWorld returns a small gridworld with a fixed start in one
// corner and the goal in the opposite corner
func newGridWorld(t *testing.T, rows, cols, maxSteps int,
	discount float64) environment.Environment {
	task, err := gridworld.NewGoal([]int{cols - 1}, []int{rows - 1}, rows,
		cols, -1.0, 0.0)
	if err != nil {
		t.Fatalf("could not create task: %v", err)
	}

	start, err := gridworld.NewSingleStart(0, 0, rows, cols)
	if err != nil {
		t.Fatalf("could not create starter: %v", err)
	}

	g, _, err := gridworld.New(rows, cols, task, start,
		environment.NewStepLimit(maxSteps), discount)
	if err != nil {
		t.Fatalf("could not create gridworld: %v", err)
	}
	return g
}

func newConfig(t *testing.T, hidden, batch, bufSize int,
	lr float64) deepq.Config {
	adam, err := solver.NewDefaultAdam(lr, batch)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	return deepq.Config{
		PolicyLayers: []int{hidden},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.TanH()},
		Solver:       adam,
		InitWFn:      init,
		ExpReplay: expreplay.Config{
			MinCapacity: batch,
			MaxCapacity: bufSize,
			BatchSize:   batch,
		},

		ExplorationStart: 1.0,
		ExplorationDecay: 0.999,
		ExplorationEnd:   0.1,

		Polyak:    0.9,
		GradSteps: 1,
	}
}

// TestTerminalBackup checks that the update target for a transition
// into a true terminal state is exactly the reward, with no
// contribution from the target network's next-state values: with a
// single-transition batch, the loss must equal the squared difference
// between the reward and the online estimate of the taken action.
func TestTerminalBackup(t *testing.T) {
	env := newGridWorld(t, 3, 3, 100, 0.99)
	config := newConfig(t, 10, 1, 1, 0.001)

	agent, err := deepq.New(env, config, 42)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	defer agent.Close()

	first := env.Reset()
	if err := agent.ObserveFirst(first); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	reward := -1.0
	next := ts.New(ts.Mid, reward, 0.99, first.Observation, 1)
	next.SetEnd(ts.Terminal)
	if next.Discount != 0.0 {
		t.Fatalf("terminal timestep should have 0 discount, got %v",
			next.Discount)
	}

	action := mat.NewVecDense(1, []float64{float64(gridworld.MoveRight)})
	if err := agent.Observe(action, next); err != nil {
		t.Fatalf("could not observe transition: %v", err)
	}

	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}

	// Loss and Q values are read out of the same graph run, before the
	// solver adjusts any weights
	q := agent.QVals()[0]
	expected := math.Pow(reward-q, 2)
	if math.Abs(agent.Loss()-expected) > 1e-8 {
		t.Errorf("terminal backup should equal the reward: want loss %v, "+
			"have %v", expected, agent.Loss())
	}
}

// TestUpdateReadouts checks that the loss and minibatch Q values
// computed on a gradient step are visible through Loss and QVals:
// NaN and nil before any update, finite and batch-sized after one.
func TestUpdateReadouts(t *testing.T) {
	env := newGridWorld(t, 3, 3, 100, 0.99)
	config := newConfig(t, 10, 4, 100, 0.001)

	agent, err := deepq.New(env, config, 42)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	defer agent.Close()

	if !math.IsNaN(agent.Loss()) {
		t.Errorf("loss before any update: want(NaN) have(%v)", agent.Loss())
	}
	if agent.QVals() != nil {
		t.Errorf("q values before any update: want(nil) have(%v)",
			agent.QVals())
	}

	step := env.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}
	for i := 0; i < config.BatchSize(); i++ {
		action, err := agent.SelectAction(step)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		step, _, err = env.Step(action)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		if err := agent.Observe(action, step); err != nil {
			t.Fatalf("could not observe transition: %v", err)
		}
	}

	if err := agent.Step(); err != nil {
		t.Fatalf("could not update agent: %v", err)
	}

	if loss := agent.Loss(); math.IsNaN(loss) || math.IsInf(loss, 0) {
		t.Errorf("loss after an update should be finite, have %v", loss)
	}
	if len(agent.QVals()) != config.BatchSize() {
		t.Errorf("q values after an update: want(%v) have(%v)",
			config.BatchSize(), len(agent.QVals()))
	}
}

// TestLearnsGridWorld trains on a 2x2 gridworld and checks that the
// learned greedy policy takes the shortest path to the goal.
func TestLearnsGridWorld(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training test in short mode")
	}

	env := newGridWorld(t, 2, 2, 20, 0.9)
	config := newConfig(t, 32, 16, 1000, 0.01)

	agent, err := deepq.New(env, config, 42)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	defer agent.Close()

	step := env.Reset()
	if err := agent.ObserveFirst(step); err != nil {
		t.Fatalf("could not observe first step: %v", err)
	}

	for i := 0; i < 8000; i++ {
		action, err := agent.SelectAction(step)
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}

		step, _, err = env.Step(action)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
		if err := agent.Observe(action, step); err != nil {
			t.Fatalf("could not observe transition: %v", err)
		}

		if err := agent.Step(); err != nil {
			t.Fatalf("could not update agent: %v", err)
		}

		if step.Last() {
			agent.EndEpisode()
			step = env.Reset()
			if err := agent.ObserveFirst(step); err != nil {
				t.Fatalf("could not observe first step: %v", err)
			}
		}
	}

	// The greedy policy should reach the goal on the shortest path:
	// two steps from one corner to the opposite corner
	agent.Eval()
	step = env.Reset()
	for !step.Last() {
		action, err := agent.SelectAction(step)
		if err != nil {
			t.Fatalf("could not select greedy action: %v", err)
		}
		step, _, err = env.Step(action)
		if err != nil {
			t.Fatalf("could not step environment: %v", err)
		}
	}

	if !step.TerminatesEpisode() {
		t.Fatalf("greedy policy did not reach the goal (episode cut off "+
			"after %v steps)", step.Number)
	}
	if step.Number != 2 {
		t.Errorf("greedy policy is not optimal: reached the goal in %v "+
			"steps, want 2", step.Number)
	}
}
