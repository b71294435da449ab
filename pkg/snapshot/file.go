package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/jgwall/proj-livia/internal/constants"
	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/evolve"
	"github.com/jgwall/proj-livia/pkg/imaging"
)

// FileSink writes the average image and a resumable checkpoint for every
// snapshot generation
type FileSink struct {
	prefix string
	config types.EvolutionConfig
	logger *logrus.Logger
}

// NewFileSink creates a sink writing files named <prefix>.<generation>.
// cfg is stored in each checkpoint so a resumed run can reuse it.
func NewFileSink(prefix string, cfg types.EvolutionConfig) *FileSink {
	return &FileSink{
		prefix: prefix,
		config: cfg,
		logger: logrus.New(),
	}
}

// SetLogger replaces the sink's logger
func (s *FileSink) SetLogger(logger *logrus.Logger) {
	s.logger = logger
}

// FileStem returns the path stem for a snapshot: the generation is zero
// padded to the number of digits in generations, so every stem of a run,
// the last one included, sorts in generation order.
func FileStem(prefix string, generation, generations int) string {
	digits := len(strconv.Itoa(generations))
	return fmt.Sprintf("%s.%0*d", prefix, digits, generation)
}

// Emit saves <stem>.png and <stem>.json and refreshes latest.json next to them
func (s *FileSink) Emit(_ context.Context, ev evolve.Event) error {
	stem := FileStem(s.prefix, ev.Generation, ev.Generations)

	if err := imaging.SaveDisplay(stem+".png", ev.AverageImage); err != nil {
		return fmt.Errorf("failed to save snapshot image: %w", err)
	}

	cp := ev.State.ToCheckpoint(ev.RunID, s.config)
	checkpointFile := stem + ".json"
	if err := SaveCheckpoint(checkpointFile, cp); err != nil {
		return err
	}

	// Also write latest checkpoint
	latestFile := filepath.Join(filepath.Dir(s.prefix), constants.LatestCheckpoint)
	if err := SaveCheckpoint(latestFile, cp); err != nil {
		return fmt.Errorf("failed to write latest checkpoint: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"generation": ev.Generation,
		"file":       checkpointFile,
	}).Debug("Saved snapshot")

	return nil
}

// SaveCheckpoint writes cp to path as indented JSON
func SaveCheckpoint(path string, cp types.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write checkpoint file: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint file and rebuilds the saved state
func LoadCheckpoint(path string) (*evolve.State, types.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.Checkpoint{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp types.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, types.Checkpoint{}, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	if cp.Version != constants.CheckpointVersion {
		return nil, types.Checkpoint{}, fmt.Errorf("unsupported checkpoint version %q", cp.Version)
	}

	state, err := evolve.StateFromCheckpoint(cp)
	if err != nil {
		return nil, types.Checkpoint{}, fmt.Errorf("failed to restore checkpoint %s: %w", path, err)
	}
	return state, cp, nil
}
