package evolve

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/jgwall/proj-livia/internal/constants"
	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/rng"
)

// State is the population record passed from one generation to the next.
// A State is never modified after it is returned; each step builds a new one.
type State struct {
	// Population members in ascending fitness order after a step
	Population []imaging.Image
	// Fitness of each member, aligned with Population
	Fitness []float64
	// FitnessHistory holds one mean fitness per generation, starting with
	// the initial random population
	FitnessHistory []float64
	// AverageImage is the element-wise mean of Population
	AverageImage imaging.Image
}

// Generation returns the number of completed generation steps
func (s *State) Generation() int {
	return len(s.FitnessHistory) - 1
}

// MeanFitness returns the mean fitness of the current population
func (s *State) MeanFitness() float64 {
	if len(s.FitnessHistory) == 0 {
		return 0
	}
	return s.FitnessHistory[len(s.FitnessHistory)-1]
}

// InitialState builds generation 0: popsize random images scored against
// target, with the history seeded by their mean fitness.
func InitialState(target imaging.Image, popsize int, src rng.Source) (*State, error) {
	if popsize <= 0 {
		return nil, fmt.Errorf("%w: popsize must be positive, got %d", ErrInvalidConfiguration, popsize)
	}
	if err := imaging.ValidateShape(target.Shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}

	population := make([]imaging.Image, popsize)
	fitness := make([]float64, popsize)
	for i := range population {
		population[i] = InitializeRandom(target.Shape, src)
		f, err := Fitness(population[i], target)
		if err != nil {
			return nil, err
		}
		fitness[i] = f
	}

	return newState(population, fitness, nil)
}

// newState aggregates a scored population and extends history with its mean
func newState(population []imaging.Image, fitness []float64, history []float64) (*State, error) {
	avg, err := Average(population)
	if err != nil {
		return nil, err
	}

	next := make([]float64, len(history), len(history)+1)
	copy(next, history)
	next = append(next, stat.Mean(fitness, nil))

	return &State{
		Population:     population,
		Fitness:        fitness,
		FitnessHistory: next,
		AverageImage:   avg,
	}, nil
}

// ToCheckpoint captures the state as a serializable checkpoint record
func (s *State) ToCheckpoint(runID string, cfg types.EvolutionConfig) types.Checkpoint {
	population := make([][]float64, len(s.Population))
	for i, member := range s.Population {
		population[i] = append([]float64(nil), member.Pix...)
	}

	return types.Checkpoint{
		Version:        constants.CheckpointVersion,
		RunID:          runID,
		CreatedAt:      time.Now(),
		Generation:     s.Generation(),
		Shape:          append([]int(nil), s.AverageImage.Shape...),
		Population:     population,
		Fitness:        append([]float64(nil), s.Fitness...),
		FitnessHistory: append([]float64(nil), s.FitnessHistory...),
		AverageImage:   append([]float64(nil), s.AverageImage.Pix...),
		Config:         cfg,
	}
}

// StateFromCheckpoint rebuilds a state from a checkpoint record
func StateFromCheckpoint(cp types.Checkpoint) (*State, error) {
	if len(cp.Population) == 0 {
		return nil, fmt.Errorf("%w: checkpoint has no population", ErrEmptyInput)
	}
	if len(cp.FitnessHistory) == 0 {
		return nil, fmt.Errorf("%w: checkpoint has no fitness history", ErrEmptyInput)
	}
	if len(cp.Fitness) != len(cp.Population) {
		return nil, fmt.Errorf("%w: checkpoint has %d fitness values for %d members",
			ErrShapeMismatch, len(cp.Fitness), len(cp.Population))
	}

	population := make([]imaging.Image, len(cp.Population))
	for i, pix := range cp.Population {
		for j, v := range pix {
			// written this way so NaN is rejected too
			if !(v >= 0 && v <= 1) {
				return nil, fmt.Errorf("%w: member %d pixel %d is %v", ErrOutOfRange, i, j, v)
			}
		}
		img, err := imaging.FromPix(cp.Shape, append([]float64(nil), pix...))
		if err != nil {
			return nil, fmt.Errorf("%w: member %d: %v", ErrShapeMismatch, i, err)
		}
		population[i] = img
	}

	avg, err := Average(population)
	if err != nil {
		return nil, err
	}

	return &State{
		Population:     population,
		Fitness:        append([]float64(nil), cp.Fitness...),
		FitnessHistory: append([]float64(nil), cp.FitnessHistory...),
		AverageImage:   avg,
	}, nil
}

// rescored returns a copy of s with every member scored against target.
// History is kept as recorded.
func (s *State) rescored(target imaging.Image) (*State, error) {
	fitness := make([]float64, len(s.Population))
	for i, member := range s.Population {
		f, err := Fitness(member, target)
		if err != nil {
			return nil, err
		}
		fitness[i] = f
	}

	return &State{
		Population:     s.Population,
		Fitness:        fitness,
		FitnessHistory: append([]float64(nil), s.FitnessHistory...),
		AverageImage:   s.AverageImage,
	}, nil
}
