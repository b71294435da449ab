package evolve

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/rng"
)

// Event is emitted to a Sink at snapshot generations
type Event struct {
	RunID       string
	Generation  int
	Generations int
	// AverageImage is State.AverageImage in display representation
	AverageImage imaging.DisplayImage
	// State is shared with the driver and must be treated as read-only
	State *State
}

// Sink receives snapshot events during a run
type Sink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, ev Event) error

// Emit calls f
func (f SinkFunc) Emit(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Result is the outcome of a run in display representation
type Result struct {
	RunID          string
	Seed           int64
	Population     []imaging.DisplayImage
	FitnessHistory []float64
	AverageImage   imaging.DisplayImage
	// Final is the last state in the normalized working representation
	Final *State
	Stats types.RunStats
}

// Driver runs the generation loop for one evolution config
type Driver struct {
	config        types.EvolutionConfig
	step          StepConfig
	replicateSize int
	seed          int64
	rng           *rng.Stream
	runID         string
	logger        *logrus.Logger
}

// NewDriver validates cfg and prepares a driver. When cfg.Seed is nil the
// seed is taken from the clock; Seed reports the value used.
func NewDriver(cfg types.EvolutionConfig) (*Driver, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	replicateSize, err := ReplicateSize(cfg.PopSize, cfg.SelectionFraction)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	seed := time.Now().UnixNano()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}

	d := &Driver{
		config:        cfg,
		step:          NewStepConfig(cfg),
		replicateSize: replicateSize,
		seed:          seed,
		rng:           rng.New(uint64(seed)),
		runID:         uuid.New().String(),
		logger:        logger,
	}

	logger.WithFields(logrus.Fields{
		"run":         d.runID,
		"popsize":     cfg.PopSize,
		"selection":   cfg.SelectionFraction,
		"replicate":   replicateSize,
		"generations": cfg.Generations,
		"workers":     d.step.Workers,
		"seed":        seed,
	}).Debug("Initialized evolution driver")

	return d, nil
}

// SetLogger replaces the driver's logger
func (d *Driver) SetLogger(logger *logrus.Logger) {
	d.logger = logger
}

// SetRunID overrides the generated run id, used when resuming a stored run
func (d *Driver) SetRunID(id string) {
	if id != "" {
		d.runID = id
	}
}

// RunID returns the id attached to events and results
func (d *Driver) RunID() string {
	return d.runID
}

// Seed returns the seed of the driver's random stream
func (d *Driver) Seed() int64 {
	return d.seed
}

// Config returns the evolution config the driver was built with
func (d *Driver) Config() types.EvolutionConfig {
	return d.config
}

// Run evolves a fresh random population toward target for the configured
// number of generations
func (d *Driver) Run(ctx context.Context, target imaging.Image, sink Sink) (*Result, error) {
	state, err := InitialState(target, d.config.PopSize, d.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize population: %w", err)
	}
	return d.evolve(ctx, state, target, sink, true)
}

// Resume continues from a previously saved state for the configured number
// of additional generations. The state must hold exactly PopSize members.
func (d *Driver) Resume(ctx context.Context, state *State, target imaging.Image, sink Sink) (*Result, error) {
	if state == nil || len(state.Population) == 0 {
		return nil, fmt.Errorf("%w: cannot resume from an empty state", ErrEmptyInput)
	}
	if !state.AverageImage.SameShape(target) {
		return nil, fmt.Errorf("%w: checkpoint %v vs target %v", ErrShapeMismatch, state.AverageImage.Shape, target.Shape)
	}
	if len(state.Population) != d.config.PopSize {
		return nil, fmt.Errorf("%w: checkpoint holds %d members but popsize is %d",
			ErrInvalidConfiguration, len(state.Population), d.config.PopSize)
	}

	// stored fitness values are not trusted; the target decides
	state, err := state.rescored(target)
	if err != nil {
		return nil, err
	}
	return d.evolve(ctx, state, target, sink, false)
}

func (d *Driver) evolve(ctx context.Context, state *State, target imaging.Image, sink Sink, emitInitial bool) (*Result, error) {
	start := time.Now()
	first := state.Generation()
	last := first + d.config.Generations
	evaluations := int64(0)
	if emitInitial {
		evaluations = int64(len(state.Population))
	}

	d.logger.WithFields(logrus.Fields{
		"run":         d.runID,
		"generation":  first,
		"avg_fitness": state.MeanFitness(),
	}).Debug("Starting evolution")

	if emitInitial {
		if err := d.emit(ctx, sink, state, last); err != nil {
			return nil, err
		}
	}

	for gen := first + 1; gen <= last; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evolution stopped before generation %d: %w", gen, err)
		}

		next, err := Step(ctx, state, target, d.step, d.rng)
		if err != nil {
			return nil, fmt.Errorf("generation %d failed: %w", gen, err)
		}
		state = next
		evaluations += int64(d.replicateSize)

		d.logger.WithFields(logrus.Fields{
			"run":         d.runID,
			"generation":  gen,
			"avg_fitness": state.MeanFitness(),
		}).Debug("Generation completed")

		if err := d.emit(ctx, sink, state, last); err != nil {
			return nil, err
		}
	}

	result := d.result(state)
	result.Stats = types.RunStats{
		Generations:  d.config.Generations,
		Evaluations:  evaluations,
		StartFitness: state.FitnessHistory[first],
		FinalFitness: state.MeanFitness(),
		Duration:     time.Since(start),
		StartTime:    start,
	}
	return result, nil
}

// emit sends the state to sink when its generation falls on the interval
func (d *Driver) emit(ctx context.Context, sink Sink, state *State, total int) error {
	interval := d.config.SnapshotInterval
	gen := state.Generation()
	if sink == nil || interval <= 0 || gen%interval != 0 {
		return nil
	}

	ev := Event{
		RunID:        d.runID,
		Generation:   gen,
		Generations:  total,
		AverageImage: imaging.ToDisplay(state.AverageImage),
		State:        state,
	}
	if err := sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("snapshot at generation %d failed: %w", gen, err)
	}
	return nil
}

// result converts the final state to display representation once
func (d *Driver) result(state *State) *Result {
	population := make([]imaging.DisplayImage, len(state.Population))
	for i, member := range state.Population {
		population[i] = imaging.ToDisplay(member)
	}

	return &Result{
		RunID:          d.runID,
		Seed:           d.seed,
		Population:     population,
		FitnessHistory: append([]float64(nil), state.FitnessHistory...),
		AverageImage:   imaging.ToDisplay(state.AverageImage),
		Final:          state,
	}
}
