package gridworld

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/environment"
)

// SingleStart starts every episode at the same fixed cell
type SingleStart struct {
	state *mat.VecDense
}

// NewSingleStart returns a Starter that always starts episodes at cell
// (x, y) on an (r, c) grid
func NewSingleStart(x, y, r, c int) (environment.Starter, error) {
	if x < 0 || x >= c {
		return nil, fmt.Errorf("newsinglestart: x = %d not in grid with "+
			"%d cols", x, c)
	}
	if y < 0 || y >= r {
		return nil, fmt.Errorf("newsinglestart: y = %d not in grid with "+
			"%d rows", y, r)
	}

	return &SingleStart{cToV(x, y, r, c)}, nil
}

// Start returns the starting state vector
func (s *SingleStart) Start() *mat.VecDense {
	start := mat.NewVecDense(s.state.Len(), nil)
	start.CopyVec(s.state)
	return start
}

// RandomStart starts episodes at a cell sampled uniformly at random
// from the grid
type RandomStart struct {
	sampler environment.CategoricalStarter
	r, c    int
}

// NewRandomStart returns a Starter that starts episodes at a uniformly
// random cell on an (r, c) grid
func NewRandomStart(r, c int, seed uint64) (environment.Starter, error) {
	if r <= 0 || c <= 0 {
		return nil, fmt.Errorf("newrandomstart: non-positive grid "+
			"dimensions (%v, %v)", r, c)
	}

	sampler := environment.NewCategoricalStarter([]int{c, r}, seed)
	return &RandomStart{sampler, r, c}, nil
}

// Start returns the starting state vector
func (s *RandomStart) Start() *mat.VecDense {
	coords := s.sampler.Start()
	return cToV(int(coords.AtVec(0)), int(coords.AtVec(1)), s.r, s.c)
}
