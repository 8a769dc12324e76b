// Package checkpointer implements periodic saving of serializable
// objects during an experiment
package checkpointer

import "encoding/gob"

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on epoch
// indices. Experiments call Checkpoint once at the end of each epoch;
// the Checkpointer decides whether that epoch warrants a save.
type Checkpointer interface {
	Checkpoint(epoch int) error
}
