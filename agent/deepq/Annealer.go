package deepq

import "fmt"

// Annealer anneals the exploration rate of an epsilon greedy policy.
// The rate starts at a configured value and decays geometrically
// toward a floor: on each advance,
//
//	rate ← max(rate*decay, floor)
//
// so the rate sequence is non-increasing and never drops below the
// floor. The rate is advanced exactly once per environment step,
// after the action for that step has been chosen, whether or not a
// gradient update happens on that step.
type Annealer struct {
	rate  float64
	decay float64
	floor float64
}

// NewAnnealer returns a new Annealer starting at rate start and
// decaying by decay each advance until reaching floor.
func NewAnnealer(start, decay, floor float64) (*Annealer, error) {
	if start < 0 || start > 1 {
		return nil, fmt.Errorf("newannealer: start must be in [0, 1] "+
			"\n\thave(%v)", start)
	}
	if decay <= 0 || decay >= 1 {
		return nil, fmt.Errorf("newannealer: decay must be in (0, 1) "+
			"\n\thave(%v)", decay)
	}
	if floor < 0 || floor > start {
		return nil, fmt.Errorf("newannealer: floor must be in [0, start] "+
			"\n\thave(floor %v, start %v)", floor, start)
	}

	return &Annealer{
		rate:  start,
		decay: decay,
		floor: floor,
	}, nil
}

// Advance decays the exploration rate by one step and returns the new
// rate.
func (a *Annealer) Advance() float64 {
	if a.rate > a.floor {
		a.rate *= a.decay
		if a.rate < a.floor {
			a.rate = a.floor
		}
	}
	return a.rate
}

// Rate returns the current exploration rate
func (a *Annealer) Rate() float64 {
	return a.rate
}

// Floor returns the floor that the exploration rate decays toward
func (a *Annealer) Floor() float64 {
	return a.floor
}
