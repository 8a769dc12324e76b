package expreplay_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/godqn/expreplay"
	"github.com/samuelfneumann/godqn/timestep"
)

const seed int64 = 14

// transition returns a transition whose every stored field is derived
// from id, so that sampled batches can be traced back to the insertion
// that produced them.
func transition(id int) timestep.Transition {
	v := float64(id)
	return timestep.Transition{
		State:     mat.NewVecDense(2, []float64{v, v + 0.5}),
		Action:    mat.NewVecDense(1, []float64{v}),
		Reward:    v,
		Discount:  1.0,
		NextState: mat.NewVecDense(2, []float64{v + 1, v + 1.5}),
	}
}

func TestSizeBelowCapacity(t *testing.T) {
	buffer, err := expreplay.New(1, 10, 1, 2, 1, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	for i := 0; i < 10; i++ {
		if buffer.Size() != i {
			t.Errorf("size: want(%v) have(%v)", i, buffer.Size())
		}
		if err := buffer.Add(transition(i)); err != nil {
			t.Fatalf("could not add transition %v: %v", i, err)
		}
	}

	if buffer.Size() != 10 {
		t.Errorf("size at capacity: want(10) have(%v)", buffer.Size())
	}
}

func TestOverwriteOldest(t *testing.T) {
	capacity := 4
	buffer, err := expreplay.New(1, capacity, 1, 2, 1, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	// Fill the buffer twice over
	inserts := 2 * capacity
	for i := 0; i < inserts; i++ {
		if err := buffer.Add(transition(i)); err != nil {
			t.Fatalf("could not add transition %v: %v", i, err)
		}
	}

	if buffer.Size() != capacity {
		t.Errorf("size should stay capped at capacity: want(%v) have(%v)",
			capacity, buffer.Size())
	}
	if buffer.Inserts() != inserts {
		t.Errorf("inserts: want(%v) have(%v)", inserts, buffer.Inserts())
	}

	// Only the most recent capacity transitions should ever be
	// sampled; rewards identify transitions
	oldest := float64(inserts - capacity)
	for i := 0; i < 100; i++ {
		_, _, r, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatalf("could not sample: %v", err)
		}
		if r[0] < oldest {
			t.Errorf("sampled transition %v, which should have been "+
				"overwritten (oldest live transition is %v)", r[0], oldest)
		}
	}
}

func TestSampleBatchShapes(t *testing.T) {
	featureSize, actionSize, batchSize := 3, 2, 5
	buffer, err := expreplay.New(batchSize, 20, batchSize, featureSize,
		actionSize, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	for i := 0; i < batchSize; i++ {
		tr := timestep.Transition{
			State:     mat.NewVecDense(featureSize, nil),
			Action:    mat.NewVecDense(actionSize, nil),
			Reward:    float64(i),
			Discount:  1.0,
			NextState: mat.NewVecDense(featureSize, nil),
		}
		if err := buffer.Add(tr); err != nil {
			t.Fatalf("could not add transition %v: %v", i, err)
		}
	}

	s, a, r, discount, nextS, err := buffer.Sample()
	if err != nil {
		t.Fatalf("could not sample: %v", err)
	}

	if len(s) != batchSize*featureSize {
		t.Errorf("state batch: want(%v) have(%v)", batchSize*featureSize,
			len(s))
	}
	if len(nextS) != batchSize*featureSize {
		t.Errorf("next state batch: want(%v) have(%v)",
			batchSize*featureSize, len(nextS))
	}
	if len(a) != batchSize*actionSize {
		t.Errorf("action batch: want(%v) have(%v)", batchSize*actionSize,
			len(a))
	}
	if len(r) != batchSize {
		t.Errorf("reward batch: want(%v) have(%v)", batchSize, len(r))
	}
	if len(discount) != batchSize {
		t.Errorf("discount batch: want(%v) have(%v)", batchSize,
			len(discount))
	}
}

// TestSampleValidIndices ensures that sampling a partially filled
// buffer only ever returns occupied slots.
func TestSampleValidIndices(t *testing.T) {
	buffer, err := expreplay.New(3, 100, 3, 2, 1, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	// Occupy only 3 of the 100 slots
	for i := 0; i < 3; i++ {
		if err := buffer.Add(transition(i + 1)); err != nil {
			t.Fatalf("could not add transition %v: %v", i, err)
		}
	}

	for i := 0; i < 100; i++ {
		_, _, r, _, _, err := buffer.Sample()
		if err != nil {
			t.Fatalf("could not sample: %v", err)
		}
		for _, reward := range r {
			if reward < 1 || reward > 3 {
				t.Fatalf("sampled uninitialized slot (reward %v)", reward)
			}
		}
	}
}

func TestSampleEmptyBuffer(t *testing.T) {
	buffer, err := expreplay.New(1, 10, 1, 2, 1, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !expreplay.IsEmptyBuffer(err) {
		t.Errorf("expected empty buffer error, got %v", err)
	}
}

func TestSampleInsufficientSamples(t *testing.T) {
	buffer, err := expreplay.New(5, 10, 5, 2, 1, seed)
	if err != nil {
		t.Fatalf("could not create buffer: %v", err)
	}

	if err := buffer.Add(transition(0)); err != nil {
		t.Fatalf("could not add transition: %v", err)
	}

	_, _, _, _, _, err = buffer.Sample()
	if !expreplay.IsInsufficientSamples(err) {
		t.Errorf("expected insufficient samples error, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	invalid := []expreplay.Config{
		{MinCapacity: 0, MaxCapacity: 10, BatchSize: 1},
		{MinCapacity: 1, MaxCapacity: 0, BatchSize: 1},
		{MinCapacity: 1, MaxCapacity: 10, BatchSize: 0},
		{MinCapacity: 1, MaxCapacity: 10, BatchSize: 11},
		{MinCapacity: 1, MaxCapacity: 10, BatchSize: 2},
	}

	for i, config := range invalid {
		if err := config.Validate(); err == nil {
			t.Errorf("config %v should be invalid: %+v", i, config)
		}
	}

	valid := expreplay.Config{MinCapacity: 2, MaxCapacity: 10, BatchSize: 2}
	if err := valid.Validate(); err != nil {
		t.Errorf("config should be valid: %v", err)
	}
}
