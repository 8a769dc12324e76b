package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/timestep"
)

// Goal represents the task of reaching goal states in a GridWorld.
// Each environmental step gives timeStepReward, and transitions into
// a goal cell give goalReward.
type Goal struct {
	goals          *mat.Dense // (x, y) coordinates of goal cells
	r, c           int        // total rows and columns in environment
	timeStepReward float64
	goalReward     float64
}

// NewGoal creates and returns a new Goal task with goal cells at
// positions (x[i], y[i]), given that the gridworld has r rows and c
// columns. The tr and gr parameters are the per-timestep and goal
// rewards respectively.
func NewGoal(x, y []int, r, c int, tr, gr float64) (*Goal, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("newgoal: x length (%d) != y length (%d)",
			len(x), len(y))
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("newgoal: no goal states given")
	}

	coords := make([]float64, 0, 2*len(x))
	for i := range x {
		if x[i] < 0 || x[i] >= c {
			return nil, fmt.Errorf("newgoal: x[%d] = %d not in grid with "+
				"%d cols", i, x[i], c)
		}
		if y[i] < 0 || y[i] >= r {
			return nil, fmt.Errorf("newgoal: y[%d] = %d not in grid with "+
				"%d rows", i, y[i], r)
		}
		coords = append(coords, float64(x[i]), float64(y[i]))
	}
	goals := mat.NewDense(len(x), 2, coords)

	return &Goal{goals, r, c, tr, gr}, nil
}

// GetReward returns the reward for taking action a on timestep t
func (g *Goal) GetReward(t timestep.TimeStep, a mat.Vector) float64 {
	x, y := vToC(t.Observation, g.r, g.c)
	x, y = move(x, y, int(a.AtVec(0)), g.r, g.c)

	if g.atGoalCoords(x, y) {
		return g.goalReward
	}
	return g.timeStepReward
}

// AtGoal returns whether state is a goal state
func (g *Goal) AtGoal(state mat.Matrix) bool {
	obs, ok := state.(mat.Vector)
	if !ok {
		return false
	}

	x, y := vToC(obs, g.r, g.c)
	return g.atGoalCoords(x, y)
}

// atGoalCoords returns whether cell (x, y) is a goal cell
func (g *Goal) atGoalCoords(x, y int) bool {
	numGoals, _ := g.goals.Dims()
	for i := 0; i < numGoals; i++ {
		goal := g.goals.RowView(i)
		if x == int(goal.AtVec(0)) && y == int(goal.AtVec(1)) {
			return true
		}
	}
	return false
}

// Min returns the minimum reward attainable in the Task
func (g *Goal) Min() float64 {
	return floats.Min([]float64{g.timeStepReward, g.goalReward})
}

// Max returns the maximum reward attainable in the Task
func (g *Goal) Max() float64 {
	return floats.Max([]float64{g.timeStepReward, g.goalReward})
}
