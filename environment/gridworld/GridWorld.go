// Package gridworld implements 2D gridworld environments
package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/environment"
	"github.com/samuelfneumann/godqn/timestep"
)

// Actions available in a GridWorld
const (
	MoveLeft int = iota
	MoveRight
	MoveUp
	MoveDown
	numActions
)

// GridWorld implements a gridworld environment. A gridworld is a
// rectangular grid of cells. The agent occupies a single cell at a
// time, observes its position as a one-hot vector over cells, and
// moves between adjacent cells with four deterministic actions. Moves
// off the edge of the grid leave the position unchanged.
//
// Episodes end in one of two ways. If the agent enters a goal cell
// of the Task, the episode terminates: the ending timestep has a
// discount of 0 so that no value is bootstrapped past it. If the
// Ender cuts the episode off first (e.g. at a step limit), the
// episode ends but the discount is kept.
type GridWorld struct {
	environment.Task
	environment.Starter
	ender environment.Ender

	r, c     int
	position int

	discount    float64
	currentStep timestep.TimeStep
}

// New creates a new GridWorld with r rows and c columns, task t,
// starting-state distribution s, episode ender e, and discount factor
// discount. The returned GridWorld is reset and ready to use.
func New(r, c int, t environment.Task, s environment.Starter,
	e environment.Ender, discount float64) (*GridWorld, timestep.TimeStep,
	error) {
	if r <= 0 || c <= 0 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: non-positive "+
			"grid dimensions (%v, %v)", r, c)
	}
	if discount < 0 || discount > 1 {
		return nil, timestep.TimeStep{}, fmt.Errorf("new: discount must be "+
			"in [0, 1] \n\twant(∈ [0, 1]) \n\thave(%v)", discount)
	}

	g := &GridWorld{
		Task:     t,
		Starter:  s,
		ender:    e,
		r:        r,
		c:        c,
		discount: discount,
	}
	first := g.Reset()

	return g, first, nil
}

// Dims gets the rows and columns of the GridWorld
func (g *GridWorld) Dims() (r, c int) {
	return g.r, g.c
}

// At checks the value at position (i, j) in the gridworld. A value of
// 1.0 indicates that the agent is at position (i, j).
func (g *GridWorld) At(i, j int) float64 {
	if (i*g.c)+j == g.position {
		return 1.0
	}
	return 0.0
}

// Reset resets the GridWorld to a starting state sampled from its
// Starter and returns the first timestep of the new episode.
func (g *GridWorld) Reset() timestep.TimeStep {
	startVec := g.Start()
	g.position = vToInd(startVec, g.r, g.c)

	startStep := timestep.New(timestep.First, 0, g.discount,
		g.observation(), 0)
	g.currentStep = startStep

	return startStep
}

// Step takes one environmental step given action, returning the next
// timestep and whether that timestep is the last in the episode.
func (g *GridWorld) Step(action mat.Vector) (timestep.TimeStep, bool,
	error) {
	if action.Len() != 1 {
		return timestep.TimeStep{}, true, fmt.Errorf("step: actions must "+
			"be 1-dimensional \n\twant(1) \n\thave(%v)", action.Len())
	}

	direction := int(action.AtVec(0))
	if direction < 0 || direction >= numActions {
		return timestep.TimeStep{}, true, fmt.Errorf("step: no such "+
			"action %v", direction)
	}

	reward := g.GetReward(g.currentStep, action)

	x, y := vToC(g.observation(), g.r, g.c)
	x, y = move(x, y, direction, g.r, g.c)
	g.position = cToInd(x, y, g.c)

	obs := g.observation()
	number := g.currentStep.Number + 1
	step := timestep.New(timestep.Mid, reward, g.discount, obs, number)

	// Entering a goal cell truly terminates the episode; the step
	// limit only cuts it off
	if g.AtGoal(obs) {
		step.SetEnd(timestep.Terminal)
	} else if g.ender != nil {
		g.ender.End(&step)
	}

	g.currentStep = step

	return step, step.Last(), nil
}

// observation returns the one-hot observation vector of the current
// agent position
func (g *GridWorld) observation() *mat.VecDense {
	obs := mat.NewVecDense(g.r*g.c, nil)
	obs.SetVec(g.position, 1.0)
	return obs
}

// ObservationSpec returns the observation specification of the
// GridWorld
func (g *GridWorld) ObservationSpec() environment.Spec {
	length := g.r * g.c
	shape := mat.NewVecDense(length, nil)
	lowerBound := mat.NewVecDense(length, nil)

	ones := make([]float64, length)
	for i := range ones {
		ones[i] = 1.0
	}
	upperBound := mat.NewVecDense(length, ones)

	return environment.NewSpec(shape, environment.Observation, lowerBound,
		upperBound, environment.Discrete)
}

// ActionSpec returns the action specification of the GridWorld
func (g *GridWorld) ActionSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MoveLeft)})
	upperBound := mat.NewVecDense(1, []float64{float64(numActions - 1)})

	return environment.NewSpec(shape, environment.Action, lowerBound,
		upperBound, environment.Discrete)
}

// RewardSpec returns the reward specification of the GridWorld
func (g *GridWorld) RewardSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{g.Min()})
	upperBound := mat.NewVecDense(1, []float64{g.Max()})

	return environment.NewSpec(shape, environment.Reward, lowerBound,
		upperBound, environment.Continuous)
}

// DiscountSpec returns the discount specification of the GridWorld
func (g *GridWorld) DiscountSpec() environment.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, nil)
	upperBound := mat.NewVecDense(1, []float64{g.discount})

	return environment.NewSpec(shape, environment.Discount, lowerBound,
		upperBound, environment.Continuous)
}

// String returns the GridWorld as a string, with the agent's position
// marked by "X"
func (g *GridWorld) String() string {
	str := ""
	for i := g.r - 1; i >= 0; i-- {
		for j := 0; j < g.c; j++ {
			if g.At(i, j) != 0.0 {
				str += "X "
			} else {
				str += "- "
			}
		}
		str += "\n"
	}
	return str
}

// move computes the (x, y) coordinates resulting from moving in
// direction from (x, y) on an (r, c) grid. Moves off the grid leave
// the coordinates unchanged.
func move(x, y, direction, r, c int) (int, int) {
	switch direction {
	case MoveLeft:
		if x-1 >= 0 {
			x--
		}

	case MoveRight:
		if x+1 < c {
			x++
		}

	case MoveUp:
		if y+1 < r {
			y++
		}

	case MoveDown:
		if y-1 >= 0 {
			y--
		}
	}
	return x, y
}

// cToV converts coordinates (x, y) on an (r, c) grid to a one-hot
// vector
func cToV(x, y, r, c int) *mat.VecDense {
	vec := mat.NewVecDense(r*c, nil)
	vec.SetVec(cToInd(x, y, c), 1.0)
	return vec
}

// vToC converts a one-hot vector representation of an (r, c) grid
// into the (x, y) coordinates of the single 1.0 value
func vToC(v mat.Vector, r, c int) (int, int) {
	for i := 0; i < v.Len(); i++ {
		if v.AtVec(i) != 0.0 {
			y := i / c
			x := i - (y * c)
			return x, y
		}
	}
	return -1, -1
}

// cToInd converts coordinates (x, y) on a grid with c columns to the
// index of the flattened grid
func cToInd(x, y, c int) int {
	return y*c + x
}

// vToInd converts a one-hot vector representation of an (r, c) grid
// to the index of the single 1.0 value
func vToInd(v mat.Vector, r, c int) int {
	x, y := vToC(v, r, c)
	return cToInd(x, y, c)
}
