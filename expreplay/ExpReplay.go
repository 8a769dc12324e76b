// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"
	"math/rand"

	"github.com/samuelfneumann/godqn/timestep"
)

// Config implements a specific configuration of a replay Buffer
type Config struct {
	// MinCapacity is the number of samples required in the buffer
	// before sampling is allowed
	MinCapacity int

	// MaxCapacity is the fixed capacity of the buffer
	MaxCapacity int

	// BatchSize is the number of samples returned by Sample()
	BatchSize int
}

// Validate returns an error describing why c is not a valid Buffer
// configuration, or nil if it is valid.
func (c Config) Validate() error {
	if c.MinCapacity <= 0 {
		return fmt.Errorf("validate: minCapacity must be > 0 \n\thave(%v)",
			c.MinCapacity)
	}
	if c.MaxCapacity < 1 {
		return fmt.Errorf("validate: maxCapacity must be >= 1 \n\thave(%v)",
			c.MaxCapacity)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batchSize must be >= 1 \n\thave(%v)",
			c.BatchSize)
	}
	if c.BatchSize > c.MaxCapacity {
		return fmt.Errorf("validate: cannot have batch size (%v) > max "+
			"buffer capacity (%v)", c.BatchSize, c.MaxCapacity)
	}
	if c.MinCapacity < c.BatchSize {
		return fmt.Errorf("validate: cannot have min capacity (%v) < batch "+
			"size (%v)", c.MinCapacity, c.BatchSize)
	}
	return nil
}

// Create creates and returns the Buffer with the specified Config.
// The featureSize and actionSize parameters define the sizes of the
// stored feature and action vectors.
func (c Config) Create(featureSize, actionSize int, seed int64) (*Buffer,
	error) {
	return New(c.MinCapacity, c.MaxCapacity, c.BatchSize, featureSize,
		actionSize, seed)
}

// Buffer implements a fixed-capacity experience replay buffer backed
// by circular arrays. Insertion is O(1): once the buffer is full, each
// new transition overwrites the oldest one. Sampling draws indices
// independently and uniformly with replacement from the occupied
// portion of the buffer and never mutates it, so the buffer always
// holds exactly the most recent MaxCapacity() transitions.
//
// A Buffer is owned and mutated by a single goroutine; it performs no
// internal locking.
type Buffer struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	discountCache  []float64
	nextStateCache []float64

	// ptr is the write cursor: the index at which the next transition
	// is stored. size is the current number of valid transitions,
	// capped at maxCapacity. inserts counts lifetime Add calls and is
	// not capped.
	ptr     int
	size    int
	inserts int

	minCapacity int
	maxCapacity int
	batchSize   int
	featureSize int
	actionSize  int

	rng *rand.Rand
}

// New creates and returns a new Buffer. The minCapacity parameter
// determines how many samples must be in the buffer before sampling
// is allowed. The maxCapacity parameter is the fixed capacity of the
// buffer. The featureSize and actionSize parameters define the sizes
// of the stored feature and action vectors.
func New(minCapacity, maxCapacity, batchSize, featureSize,
	actionSize int, seed int64) (*Buffer, error) {
	config := Config{
		MinCapacity: minCapacity,
		MaxCapacity: maxCapacity,
		BatchSize:   batchSize,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if featureSize < 1 {
		return nil, fmt.Errorf("new: featureSize must be >= 1 \n\thave(%v)",
			featureSize)
	}
	if actionSize < 1 {
		return nil, fmt.Errorf("new: actionSize must be >= 1 \n\thave(%v)",
			actionSize)
	}

	source := rand.NewSource(seed)

	return &Buffer{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		discountCache:  make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		batchSize:   batchSize,
		featureSize: featureSize,
		actionSize:  actionSize,

		rng: rand.New(source),
	}, nil
}

// Add adds a transition to the buffer, overwriting the oldest stored
// transition if the buffer is full. Add never fails on a full buffer.
func (b *Buffer) Add(t timestep.Transition) error {
	if t.State.Len() != b.featureSize || t.NextState.Len() != b.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", b.featureSize, t.State.Len())
	}
	if t.Action.Len() != b.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", b.actionSize, t.Action.Len())
	}

	stateInd := b.ptr * b.featureSize
	for i := 0; i < b.featureSize; i++ {
		b.stateCache[stateInd+i] = t.State.AtVec(i)
		b.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	actionInd := b.ptr * b.actionSize
	for i := 0; i < b.actionSize; i++ {
		b.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	b.rewardCache[b.ptr] = t.Reward
	b.discountCache[b.ptr] = t.Discount

	b.ptr = (b.ptr + 1) % b.maxCapacity
	if b.size < b.maxCapacity {
		b.size++
	}
	b.inserts++

	return nil
}

// Sample samples and returns a batch of transitions from the buffer
// as flat, row-major batches of states, actions, rewards, discounts,
// and next states. Indices are drawn independently and uniformly with
// replacement from the occupied portion of the buffer; the same
// transition may appear more than once in a batch. Sampling does not
// mutate the buffer.
func (b *Buffer) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if b.size == 0 {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errEmptyBuffer,
		}
		return nil, nil, nil, nil, nil, err
	}
	if b.size < b.minCapacity {
		err := &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
		return nil, nil, nil, nil, nil, err
	}

	stateBatch := make([]float64, b.batchSize*b.featureSize)
	actionBatch := make([]float64, b.batchSize*b.actionSize)
	rewardBatch := make([]float64, b.batchSize)
	discountBatch := make([]float64, b.batchSize)
	nextStateBatch := make([]float64, b.batchSize*b.featureSize)

	for i := 0; i < b.batchSize; i++ {
		index := b.rng.Intn(b.size)

		batchStartInd := i * b.featureSize
		expStartInd := index * b.featureSize
		copy(stateBatch[batchStartInd:batchStartInd+b.featureSize],
			b.stateCache[expStartInd:expStartInd+b.featureSize])
		copy(nextStateBatch[batchStartInd:batchStartInd+b.featureSize],
			b.nextStateCache[expStartInd:expStartInd+b.featureSize])

		batchStartInd = i * b.actionSize
		expStartInd = index * b.actionSize
		copy(actionBatch[batchStartInd:batchStartInd+b.actionSize],
			b.actionCache[expStartInd:expStartInd+b.actionSize])

		rewardBatch[i] = b.rewardCache[index]
		discountBatch[i] = b.discountCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, discountBatch,
		nextStateBatch, nil
}

// Size returns the current number of valid, sampleable transitions in
// the buffer. Size never exceeds MaxCapacity.
func (b *Buffer) Size() int {
	return b.size
}

// Inserts returns the lifetime number of Add calls on the buffer,
// which exceeds Size once the buffer has wrapped around.
func (b *Buffer) Inserts() int {
	return b.inserts
}

// MaxCapacity returns the fixed capacity of the buffer
func (b *Buffer) MaxCapacity() int {
	return b.maxCapacity
}

// MinCapacity returns the number of samples required to be in the
// buffer before the buffer can be sampled
func (b *Buffer) MinCapacity() int {
	return b.minCapacity
}

// BatchSize returns the number of samples returned by Sample()
func (b *Buffer) BatchSize() int {
	return b.batchSize
}

// String returns the string representation of the Buffer
func (b *Buffer) String() string {
	baseStr := "Size: %v \nWrite Cursor: %v \nStates: %v \nActions: %v " +
		"\nRewards: %v \nDiscounts: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, b.size, b.ptr, b.stateCache, b.actionCache,
		b.rewardCache, b.discountCache, b.nextStateCache)
}
