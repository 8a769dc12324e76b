package deepq_test

import (
	"testing"

	"github.com/samuelfneumann/godqn/agent/deepq"
)

func TestAnnealerDecaysToFloor(t *testing.T) {
	start, decay, floor := 1.0, 0.9, 0.05

	annealer, err := deepq.NewAnnealer(start, decay, floor)
	if err != nil {
		t.Fatalf("could not create annealer: %v", err)
	}

	prev := annealer.Rate()
	if prev != start {
		t.Errorf("initial rate: want(%v) have(%v)", start, prev)
	}

	for i := 0; i < 200; i++ {
		rate := annealer.Advance()

		if rate > prev {
			t.Fatalf("rate increased on advance %v: %v --> %v", i, prev, rate)
		}
		if rate < floor {
			t.Fatalf("rate fell below floor on advance %v: %v < %v", i, rate,
				floor)
		}
		prev = rate
	}

	// 0.9^200 is far below 0.05, so the rate must have converged
	if annealer.Rate() != floor {
		t.Errorf("rate did not converge to floor: want(%v) have(%v)", floor,
			annealer.Rate())
	}
}

func TestAnnealerExactDecay(t *testing.T) {
	annealer, err := deepq.NewAnnealer(1.0, 0.5, 0.0)
	if err != nil {
		t.Fatalf("could not create annealer: %v", err)
	}

	expected := 1.0
	for i := 0; i < 10; i++ {
		expected *= 0.5
		if rate := annealer.Advance(); rate != expected {
			t.Errorf("advance %v: want(%v) have(%v)", i, expected, rate)
		}
	}
}

func TestNewAnnealerInvalidArguments(t *testing.T) {
	invalid := []struct {
		start, decay, floor float64
	}{
		{-0.1, 0.9, 0.0}, // negative start
		{1.1, 0.9, 0.0},  // start above 1
		{1.0, 0.0, 0.0},  // no decay
		{1.0, 1.0, 0.0},  // no decay
		{1.0, 0.9, -0.1}, // negative floor
		{0.5, 0.9, 0.6},  // floor above start
	}

	for i, args := range invalid {
		_, err := deepq.NewAnnealer(args.start, args.decay, args.floor)
		if err == nil {
			t.Errorf("arguments %v should be invalid: %+v", i, args)
		}
	}
}
