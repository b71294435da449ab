package evolve

import (
	"fmt"
	"math"
	"runtime"

	"github.com/jgwall/proj-livia/internal/types"
)

// maxReplicateSize bounds the number of offspring drawn per generation
const maxReplicateSize = 1 << 24

// MutationParams controls the per-pixel Gaussian mutation
type MutationParams struct {
	Rate   float64
	Mean   float64
	Stddev float64
}

// StepConfig holds everything a single generation step needs
type StepConfig struct {
	PopSize           int
	SelectionFraction float64
	Mutation          MutationParams
	Workers           int
}

// NewStepConfig extracts the step parameters from an evolution config
func NewStepConfig(cfg types.EvolutionConfig) StepConfig {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return StepConfig{
		PopSize:           cfg.PopSize,
		SelectionFraction: cfg.SelectionFraction,
		Mutation: MutationParams{
			Rate:   cfg.MutationRate,
			Mean:   cfg.MutationMean,
			Stddev: cfg.MutationStddev,
		},
		Workers: workers,
	}
}

// ReplicateSize returns floor(popsize / selectionFraction), the number of
// offspring drawn each generation. It fails when that pool would be smaller
// than the population it has to refill.
func ReplicateSize(popsize int, selectionFraction float64) (int, error) {
	if popsize <= 0 {
		return 0, fmt.Errorf("%w: popsize must be positive, got %d", ErrInvalidConfiguration, popsize)
	}
	if math.IsNaN(selectionFraction) || selectionFraction <= 0 {
		return 0, fmt.Errorf("%w: selection fraction must be positive, got %v", ErrInvalidConfiguration, selectionFraction)
	}

	ratio := math.Floor(float64(popsize) / selectionFraction)
	if ratio > maxReplicateSize {
		return 0, fmt.Errorf("%w: replicate size %.0f exceeds limit %d", ErrInvalidConfiguration, ratio, maxReplicateSize)
	}

	size := int(ratio)
	if size < popsize {
		return 0, fmt.Errorf("%w: replicate size %d (popsize %d / selection %v) is smaller than popsize",
			ErrInvalidConfiguration, size, popsize, selectionFraction)
	}
	return size, nil
}

// ValidateConfig checks an evolution config before any work starts
func ValidateConfig(cfg types.EvolutionConfig) error {
	if cfg.PopSize <= 0 {
		return fmt.Errorf("%w: popsize must be positive, got %d", ErrInvalidConfiguration, cfg.PopSize)
	}
	if cfg.Generations <= 0 {
		return fmt.Errorf("%w: generations must be positive, got %d", ErrInvalidConfiguration, cfg.Generations)
	}
	if math.IsNaN(cfg.SelectionFraction) || cfg.SelectionFraction <= 0 || cfg.SelectionFraction > 1 {
		return fmt.Errorf("%w: selection fraction must be in (0, 1], got %v", ErrInvalidConfiguration, cfg.SelectionFraction)
	}
	if _, err := ReplicateSize(cfg.PopSize, cfg.SelectionFraction); err != nil {
		return err
	}
	if err := validateMutation(MutationParams{
		Rate:   cfg.MutationRate,
		Mean:   cfg.MutationMean,
		Stddev: cfg.MutationStddev,
	}); err != nil {
		return err
	}
	if cfg.SnapshotInterval < 0 {
		return fmt.Errorf("%w: snapshot interval must not be negative, got %d", ErrInvalidConfiguration, cfg.SnapshotInterval)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfiguration, cfg.Workers)
	}
	return nil
}

func validateMutation(p MutationParams) error {
	if math.IsNaN(p.Rate) || p.Rate < 0 || p.Rate > 1 {
		return fmt.Errorf("%w: mutation rate must be in [0, 1], got %v", ErrInvalidConfiguration, p.Rate)
	}
	if math.IsNaN(p.Mean) || math.IsInf(p.Mean, 0) {
		return fmt.Errorf("%w: mutation mean must be finite, got %v", ErrInvalidConfiguration, p.Mean)
	}
	if math.IsNaN(p.Stddev) || math.IsInf(p.Stddev, 0) || p.Stddev < 0 {
		return fmt.Errorf("%w: mutation stddev must be finite and non-negative, got %v", ErrInvalidConfiguration, p.Stddev)
	}
	return nil
}

// validate checks a step config built outside NewStepConfig
func (c StepConfig) validate() (int, error) {
	size, err := ReplicateSize(c.PopSize, c.SelectionFraction)
	if err != nil {
		return 0, err
	}
	if err := validateMutation(c.Mutation); err != nil {
		return 0, err
	}
	return size, nil
}
