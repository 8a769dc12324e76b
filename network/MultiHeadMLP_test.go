package network_test

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/godqn/initwfn"
	"github.com/samuelfneumann/godqn/network"
)

// newNet returns a network whose every non-bias weight equals value.
// Bias weights are always initialized to 0.
func newNet(t *testing.T, value float64) network.NeuralNet {
	init, err := initwfn.NewConstant(value)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	g := G.NewGraph()
	net, err := network.NewMultiHeadMLP(3, 1, 2, g, []int{5}, []bool{true},
		init.InitWFn(), []*network.Activation{network.ReLU()})
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

// weights returns the flattened values of every learnable weight in
// the network, in Learnables() order
func weights(net network.NeuralNet) [][]float64 {
	var w [][]float64
	for _, learnable := range net.Learnables() {
		data := learnable.Value().Data().([]float64)
		values := make([]float64, len(data))
		copy(values, data)
		w = append(w, values)
	}
	return w
}

// TestPolyakConvergence checks that repeated Polyak updates against a
// fixed source shrink the weight error geometrically by a factor of
// tau per update.
func TestPolyakConvergence(t *testing.T) {
	tau := 0.9
	dest := newNet(t, 0.0)
	source := newNet(t, 1.0)

	dest0 := weights(dest)
	source0 := weights(source)

	for i := 1; i <= 20; i++ {
		if err := dest.Polyak(source, tau); err != nil {
			t.Fatalf("could not Polyak average: %v", err)
		}

		// After i updates each weight is
		// tau^i * dest0 + (1 - tau^i) * source0
		decay := math.Pow(tau, float64(i))
		for j, layer := range weights(dest) {
			for k, w := range layer {
				expected := decay*dest0[j][k] + (1-decay)*source0[j][k]
				if math.Abs(w-expected) > 1e-10 {
					t.Fatalf("update %v, learnable %v, weight %v: "+
						"want(%v) have(%v)", i, j, k, expected, w)
				}
			}
		}
	}
}

func TestSetCopiesWeights(t *testing.T) {
	dest := newNet(t, 0.0)
	source := newNet(t, 2.5)

	if err := dest.Set(source); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}

	expected := weights(source)
	for i, layer := range weights(dest) {
		for j, w := range layer {
			if w != expected[i][j] {
				t.Errorf("learnable %v, weight %v: want(%v) have(%v)", i, j,
					expected[i][j], w)
			}
		}
	}
}

// TestCloneIndependence checks that mutating a clone's weights does
// not affect the original network.
func TestCloneIndependence(t *testing.T) {
	original := newNet(t, 1.0)
	original0 := weights(original)

	clone, err := original.CloneWithBatch(4)
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}
	if clone.BatchSize() != 4 {
		t.Errorf("clone batch size: want(4) have(%v)", clone.BatchSize())
	}

	// Clones start as exact weight copies
	for i, layer := range weights(clone) {
		for j, w := range layer {
			if w != original0[i][j] {
				t.Errorf("learnable %v, weight %v: want(%v) have(%v)", i, j,
					original0[i][j], w)
			}
		}
	}

	// Overwrite the clone's weights and check the original is
	// untouched
	if err := clone.Set(newNet(t, 0.0)); err != nil {
		t.Fatalf("could not set clone weights: %v", err)
	}

	for i, layer := range weights(original) {
		for j, w := range layer {
			if w != original0[i][j] {
				t.Errorf("learnable %v, weight %v changed with the "+
					"clone: want(%v) have(%v)", i, j, original0[i][j], w)
			}
		}
	}
}
