package tracker_test

import (
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/experiment/tracker"
	ts "github.com/samuelfneumann/godqn/timestep"
)

// episode sends an episode of length steps with reward r per step to
// each Tracker
func episode(steps int, r float64, trackers ...tracker.Tracker) {
	obs := mat.NewVecDense(1, nil)

	first := ts.New(ts.First, 0, 1, obs, 0)
	for _, t := range trackers {
		t.Track(first)
	}

	for i := 1; i <= steps; i++ {
		step := ts.New(ts.Mid, r, 1, obs, i)
		if i == steps {
			step.SetEnd(ts.Terminal)
		}
		for _, t := range trackers {
			t.Track(step)
		}
	}
}

func TestReturnTracker(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	returns := tracker.NewReturn(filename)

	episode(3, -1.0, returns)
	episode(5, 2.0, returns)

	if err := returns.Save(); err != nil {
		t.Fatalf("could not save data: %v", err)
	}

	data, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatalf("could not load data: %v", err)
	}

	expected := []float64{-3.0, 10.0}
	if len(data) != len(expected) {
		t.Fatalf("episodes saved: want(%v) have(%v)", len(expected),
			len(data))
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("episode %v return: want(%v) have(%v)", i, expected[i],
				data[i])
		}
	}
}

func TestEpisodeLengthTracker(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "episodes.bin")
	lengths := tracker.NewEpisodeLength(filename)

	episode(3, -1.0, lengths)
	episode(7, -1.0, lengths)

	if err := lengths.Save(); err != nil {
		t.Fatalf("could not save data: %v", err)
	}

	data, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatalf("could not load data: %v", err)
	}

	expected := []float64{3, 7}
	if len(data) != len(expected) {
		t.Fatalf("episodes saved: want(%v) have(%v)", len(expected),
			len(data))
	}
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("episode %v length: want(%v) have(%v)", i, expected[i],
				data[i])
		}
	}
}
