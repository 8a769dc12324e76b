package experiment

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Logger aggregates named scalar series over an epoch and dumps a
// tabular summary of each series at epoch boundaries. Values are
// accumulated with Store throughout an epoch; Dump then prints the
// minimum, mean, and maximum of each series seen during the epoch and
// starts accumulation for the next epoch. The per-epoch means of every
// series are kept and can be saved to disk with Save.
type Logger struct {
	dir string
	out io.Writer

	keys      []string // Series names in first-Store order
	epochVals map[string][]float64
	history   map[string][]float64
}

// NewLogger returns a new Logger which writes its data files to
// directory dir, creating the directory if it does not exist, and its
// tabular summaries to out.
func NewLogger(dir string, out io.Writer) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("newlogger: could not create output "+
			"directory: %v", err)
	}

	return &Logger{
		dir:       dir,
		out:       out,
		epochVals: make(map[string][]float64),
		history:   make(map[string][]float64),
	}, nil
}

// SaveConfig snapshots an experiment configuration as JSON in the
// Logger's output directory so that the experiment can be
// reconstructed later.
func (l *Logger) SaveConfig(config interface{}) error {
	data, err := json.MarshalIndent(config, "", "\t")
	if err != nil {
		return fmt.Errorf("saveconfig: could not marshal config: %v", err)
	}

	filename := filepath.Join(l.dir, "config.json")
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("saveconfig: could not write config: %v", err)
	}
	return nil
}

// Store records values under key for the current epoch
func (l *Logger) Store(key string, values ...float64) {
	if _, ok := l.epochVals[key]; !ok {
		if _, seen := l.history[key]; !seen {
			l.keys = append(l.keys, key)
		}
	}
	l.epochVals[key] = append(l.epochVals[key], values...)
}

// Dump prints a tabular summary of all series stored during the
// current epoch and resets accumulation for the next epoch
func (l *Logger) Dump(epoch int) {
	fmt.Fprintf(l.out, "Epoch %d\n", epoch)
	fmt.Fprintf(l.out, "  %-24v %12v %12v %12v\n", "", "Min", "Mean", "Max")

	for _, key := range l.keys {
		vals := l.epochVals[key]
		if len(vals) == 0 {
			continue
		}

		mean := stat.Mean(vals, nil)
		fmt.Fprintf(l.out, "  %-24v %12.4g %12.4g %12.4g\n", key,
			floats.Min(vals), mean, floats.Max(vals))

		l.history[key] = append(l.history[key], mean)
	}
	fmt.Fprintln(l.out)

	l.epochVals = make(map[string][]float64)
}

// Save saves the per-epoch means of every series to disk
func (l *Logger) Save() error {
	filename := filepath.Join(l.dir, "progress.bin")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(l.history); err != nil {
		return fmt.Errorf("save: could not encode logged data: %v", err)
	}
	return nil
}
