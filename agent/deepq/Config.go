package deepq

import (
	"fmt"

	"github.com/samuelfneumann/godqn/agent"
	env "github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/expreplay"
	"github.com/samuelfneumann/godqn/initwfn"
	"github.com/samuelfneumann/godqn/network"
	"github.com/samuelfneumann/godqn/solver"
)

// Config implements a configuration for a DeepQ agent. Configs are
// JSON serializable so that experiments can be reconstructed from
// configuration files.
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in neural net
	Biases       []bool                // Whether each layer has a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Experience replay parameters
	ExpReplay expreplay.Config

	// Exploration schedule: the probability of acting randomly starts
	// at ExplorationStart and decays geometrically by
	// ExplorationDecay once per environment step until reaching
	// ExplorationEnd.
	ExplorationStart float64
	ExplorationDecay float64
	ExplorationEnd   float64

	// Polyak is the interpolation factor for target network
	// averaging: on each synchronization, target weights become
	// Polyak*target + (1-Polyak)*online. Always in (0, 1), usually
	// close to 1.
	Polyak float64

	// GradSteps is the number of gradient steps taken on each update
	// call. The target network is synchronized once per update call,
	// not once per gradient step.
	GradSteps int
}

// BatchSize returns the batch size of the agent constructed using
// this Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent, failing fast rather than producing silently wrong
// numerics.
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}
	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}

	if err := c.ExpReplay.Validate(); err != nil {
		return fmt.Errorf("validate: invalid experience replay "+
			"configuration: %v", err)
	}

	if c.ExplorationStart < 0 || c.ExplorationStart > 1 {
		return fmt.Errorf("validate: exploration start must be in [0, 1] "+
			"\n\thave(%v)", c.ExplorationStart)
	}
	if c.ExplorationDecay <= 0 || c.ExplorationDecay >= 1 {
		return fmt.Errorf("validate: exploration decay must be in (0, 1) "+
			"\n\thave(%v)", c.ExplorationDecay)
	}
	if c.ExplorationEnd < 0 || c.ExplorationEnd > c.ExplorationStart {
		return fmt.Errorf("validate: exploration end must be in "+
			"[0, start] \n\thave(end %v, start %v)", c.ExplorationEnd,
			c.ExplorationStart)
	}

	if c.Polyak <= 0 || c.Polyak >= 1 {
		return fmt.Errorf("validate: polyak must be in (0, 1) "+
			"\n\thave(%v)", c.Polyak)
	}
	if c.GradSteps < 1 {
		return fmt.Errorf("validate: gradient steps per update must be "+
			"positive \n\twant(>0) \n\thave(%v)", c.GradSteps)
	}

	return nil
}

// ValidAgent returns whether the agent is valid for the
// configuration. That is, whether Agent a can be constructed with
// Config c.
func (c Config) ValidAgent(a agent.Agent) bool {
	_, ok := a.(*DeepQ)
	return ok
}

// CreateAgent creates a new DeepQ agent based on the configuration
func (c Config) CreateAgent(e env.Environment, seed int64) (agent.Agent,
	error) {
	return New(e, c, seed)
}
