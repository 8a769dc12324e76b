package checkpointer_test

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/godqn/experiment/checkpointer"
)

// counter is a Serializable that records how often it was encoded
type counter struct {
	encodes int
}

func (c *counter) GobEncode() ([]byte, error) {
	c.encodes++

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(c.encodes)
	return buf.Bytes(), err
}

func (c *counter) GobDecode(in []byte) error {
	return gob.NewDecoder(bytes.NewReader(in)).Decode(&c.encodes)
}

func TestEveryNSaveCondition(t *testing.T) {
	dir := t.TempDir()
	object := &counter{}

	epochs := 10
	c := checkpointer.NewEveryN(3, epochs, object,
		checkpointer.FilenameEnumerator(0, filepath.Join(dir, "object"),
			"bin"))

	for epoch := 1; epoch <= epochs; epoch++ {
		if err := c.Checkpoint(epoch); err != nil {
			t.Fatalf("could not checkpoint on epoch %v: %v", epoch, err)
		}
	}

	// Epochs 3, 6, and 9 satisfy the interval; epoch 10 is the final
	// epoch and is saved regardless
	if object.encodes != 4 {
		t.Errorf("saves: want(4) have(%v)", object.encodes)
	}

	for i := 1; i <= 4; i++ {
		filename := filepath.Join(dir, fmt.Sprintf("object%d.bin", i))
		if _, err := os.Stat(filename); err != nil {
			t.Errorf("checkpoint file %v was not written: %v", filename, err)
		}
	}
}

func TestFilenameEnumerator(t *testing.T) {
	next := checkpointer.FilenameEnumerator(5, "policy", "bin")

	for i := 6; i <= 8; i++ {
		want := fmt.Sprintf("policy%d.bin", i)
		if have := next(); have != want {
			t.Errorf("filename: want(%v) have(%v)", want, have)
		}
	}
}
