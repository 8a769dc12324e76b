package checkpointer

import (
	"fmt"
	"os"
)

// everyN implements checkpointing every N epochs
type everyN struct {
	interval  int
	lastEpoch int
	object    Serializable // Object to save

	// filename returns the string filename of the file to save the
	// object in.
	//
	// If each serialized object should be saved in a separate file
	// with each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), use the static function
	// FilenameEnumerator, which returns a function that enumerates
	// filenames.
	filename func() string
}

// NewEveryN returns a checkpointer that checkpoints every n epochs.
// The object is also checkpointed on epoch lastEpoch regardless of the
// interval, so a finished experiment always ends with a saved model.
func NewEveryN(n, lastEpoch int, object Serializable,
	filename func() string) Checkpointer {
	return &everyN{
		interval:  n,
		lastEpoch: lastEpoch,
		object:    object,
		filename:  filename,
	}
}

// Checkpoint gob-encodes the tracked object to the next filename if
// the epoch satisfies the save condition
func (e *everyN) Checkpoint(epoch int) error {
	if epoch%e.interval != 0 && epoch != e.lastEpoch {
		return nil
	}

	data, err := e.object.GobEncode()
	if err != nil {
		return fmt.Errorf("checkpoint: could not encode object: %v", err)
	}

	if err := os.WriteFile(e.filename(), data, 0644); err != nil {
		return fmt.Errorf("checkpoint: could not write save file: %v", err)
	}
	return nil
}
