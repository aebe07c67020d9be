package policy

import (
	"encoding/gob"
	"fmt"
	"os"
)

// SaveCheckpoint persists the network's current weights to path via
// gob encoding, in the same encode-to-file style as other_examples'
// dqagent.go SaveState.
func SaveCheckpoint(n *Network, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(n.ptr.Load()); err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint restores a network from a gob-encoded weights file.
func LoadCheckpoint(path string) (*Network, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint file: %w", err)
	}
	defer file.Close()

	var w Weights
	if err := gob.NewDecoder(file).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return LoadWeights(&w), nil
}
