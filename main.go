package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/godqn/agent/deepq"
	"github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/environment/gridworld"
	"github.com/samuelfneumann/godqn/experiment"
	"github.com/samuelfneumann/godqn/experiment/checkpointer"
	"github.com/samuelfneumann/godqn/experiment/tracker"
	"github.com/samuelfneumann/godqn/expreplay"
	"github.com/samuelfneumann/godqn/initwfn"
	"github.com/samuelfneumann/godqn/network"
	"github.com/samuelfneumann/godqn/solver"
)

func main() {
	var (
		envName = flag.String("env", "gridworld", "environment to train on")
		rows    = flag.Int("rows", 5, "gridworld rows")
		cols    = flag.Int("cols", 5, "gridworld columns")
		maxStep = flag.Int("max_episode_steps", 500, "episode step limit")

		hid   = flag.Int("hid", 64, "hidden units per layer")
		l     = flag.Int("l", 2, "number of hidden layers")
		gamma = flag.Float64("gamma", 0.99, "discount factor")
		lr    = flag.Float64("lr", 0.001, "learning rate")
		clip  = flag.Float64("clip", 10.0, "gradient clipping threshold "+
			"(0 disables clipping)")

		bufSize = flag.Int("replay_size", 100000, "replay buffer capacity")
		batch   = flag.Int("batch_size", 32, "minibatch size")

		epsStart = flag.Float64("eps_start", 1.0, "initial exploration rate")
		epsDecay = flag.Float64("eps_decay", 0.995, "exploration decay rate")
		epsEnd   = flag.Float64("eps_end", 0.05, "final exploration rate")
		polyak   = flag.Float64("polyak", 0.995, "target network averaging "+
			"constant")

		stepsPerEpoch = flag.Int("steps_per_epoch", 4000, "environment "+
			"steps per epoch")
		epochs         = flag.Int("epochs", 50, "number of epochs")
		updateInterval = flag.Int("update_interval", 50, "environment steps "+
			"between update batches")
		testEpisodes = flag.Int("num_test_episodes", 10, "evaluation "+
			"episodes per epoch")
		saveFreq = flag.Int("save_freq", 1, "epochs between checkpoints")

		seed    = flag.Int64("seed", 192382, "random seed")
		expName = flag.String("exp_name", "deepq", "experiment name, used "+
			"as the output directory name")
	)
	flag.Parse()

	if *envName != "gridworld" {
		log.Fatalf("no such environment: %v", *envName)
	}

	trainEnv, err := newGridWorld(*rows, *cols, *maxStep, *gamma)
	if err != nil {
		log.Fatalf("could not create training environment: %v", err)
	}
	evalEnv, err := newGridWorld(*rows, *cols, *maxStep, *gamma)
	if err != nil {
		log.Fatalf("could not create evaluation environment: %v", err)
	}

	// Agent configuration: an MLP with l hidden layers of hid ReLU
	// units each, trained with Adam
	hidden := make([]int, *l)
	biases := make([]bool, *l)
	activations := make([]*network.Activation, *l)
	for i := range hidden {
		hidden[i] = *hid
		biases[i] = true
		activations[i] = network.ReLU()
	}

	adam, err := solver.NewAdam(*lr, 1e-8, 0.9, 0.999, *batch, *clip)
	if err != nil {
		log.Fatalf("could not create solver: %v", err)
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		log.Fatalf("could not create weight initializer: %v", err)
	}

	agentConfig := deepq.Config{
		PolicyLayers: hidden,
		Biases:       biases,
		Activations:  activations,
		Solver:       adam,
		InitWFn:      init,
		ExpReplay: expreplay.Config{
			MinCapacity: *batch,
			MaxCapacity: *bufSize,
			BatchSize:   *batch,
		},

		ExplorationStart: *epsStart,
		ExplorationDecay: *epsDecay,
		ExplorationEnd:   *epsEnd,

		Polyak:    *polyak,
		GradSteps: 1,
	}

	a, err := deepq.New(trainEnv, agentConfig, *seed)
	if err != nil {
		log.Fatalf("could not create agent: %v", err)
	}
	defer a.Close()

	expConfig := experiment.Config{
		StepsPerEpoch:   *stepsPerEpoch,
		Epochs:          *epochs,
		UpdateInterval:  *updateInterval,
		NumTestEpisodes: *testEpisodes,
		SaveFreq:        *saveFreq,
	}

	dir := filepath.Join("data", *expName)
	logger, err := experiment.NewLogger(dir, os.Stdout)
	if err != nil {
		log.Fatalf("could not create logger: %v", err)
	}

	// Snapshot the full configuration so the run can be reconstructed
	err = logger.SaveConfig(struct {
		Env        string
		Rows, Cols int
		MaxSteps   int
		Gamma      float64
		Seed       int64
		Agent      deepq.Config
		Experiment experiment.Config
	}{*envName, *rows, *cols, *maxStep, *gamma, *seed, agentConfig,
		expConfig})
	if err != nil {
		log.Fatalf("could not save config: %v", err)
	}

	trackers := []tracker.Tracker{
		tracker.NewReturn(filepath.Join(dir, "returns.bin")),
		tracker.NewEpisodeLength(filepath.Join(dir, "episodes.bin")),
	}

	policy, ok := a.Policy().(checkpointer.Serializable)
	if !ok {
		log.Fatalf("policy cannot be checkpointed")
	}
	checkpointers := []checkpointer.Checkpointer{
		checkpointer.NewEveryN(*saveFreq, *epochs, policy,
			checkpointer.FilenameEnumerator(0, filepath.Join(dir, "policy"),
				"bin")),
	}

	e, err := experiment.NewOnline(trainEnv, evalEnv, a, expConfig, logger,
		trackers, checkpointers)
	if err != nil {
		log.Fatalf("could not create experiment: %v", err)
	}

	if err := e.Run(); err != nil {
		log.Fatalf("experiment failed: %v", err)
	}
	if err := e.Save(); err != nil {
		log.Fatalf("could not save experiment data: %v", err)
	}

	returns, err := tracker.LoadData(filepath.Join(dir, "returns.bin"))
	if err != nil {
		log.Fatalf("could not load return data: %v", err)
	}
	if len(returns) > 10 {
		returns = returns[len(returns)-10:]
	}
	fmt.Println(returns)
}

// newGridWorld returns an r x c gridworld with a fixed start in one
// corner and the goal in the opposite corner, a reward of -1 per step
// and 0 at the goal, and episodes cut off at maxSteps steps.
func newGridWorld(r, c, maxSteps int, discount float64) (
	environment.Environment, error) {
	goalX, goalY := []int{c - 1}, []int{r - 1}
	task, err := gridworld.NewGoal(goalX, goalY, r, c, -1.0, 0.0)
	if err != nil {
		return nil, fmt.Errorf("could not create task: %v", err)
	}

	start, err := gridworld.NewSingleStart(0, 0, r, c)
	if err != nil {
		return nil, fmt.Errorf("could not create starter: %v", err)
	}

	ender := environment.NewStepLimit(maxSteps)

	g, _, err := gridworld.New(r, c, task, start, ender, discount)
	if err != nil {
		return nil, fmt.Errorf("could not create gridworld: %v", err)
	}
	return g, nil
}
