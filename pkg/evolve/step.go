package evolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/rng"
)

// Step runs one generation: replicate with replacement, mutate, score,
// keep the fittest PopSize members and aggregate them into a new State.
//
// All draws from src happen here, before any work is dispatched: first the
// parent indices, then one seed per offspring. Each offspring is mutated with
// its own stream, so the result does not depend on cfg.Workers.
func Step(ctx context.Context, state *State, target imaging.Image, cfg StepConfig, src rng.Source) (*State, error) {
	replicateSize, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if state == nil || len(state.Population) == 0 {
		return nil, fmt.Errorf("%w: step needs a populated state", ErrEmptyInput)
	}

	parents := make([]int, replicateSize)
	for i := range parents {
		parents[i] = src.IntN(len(state.Population))
	}
	seeds := make([]uint64, replicateSize)
	for i := range seeds {
		seeds[i] = src.Seed()
	}

	offspring, fitness, err := evaluateBatch(ctx, state.Population, parents, seeds, target, cfg)
	if err != nil {
		return nil, err
	}

	keep := selectFittest(fitness, cfg.PopSize)
	population := make([]imaging.Image, len(keep))
	kept := make([]float64, len(keep))
	for i, idx := range keep {
		population[i] = offspring[idx]
		kept[i] = fitness[idx]
	}

	return newState(population, kept, state.FitnessHistory)
}

// evaluateBatch mutates and scores every drawn parent on a bounded pool
func evaluateBatch(
	ctx context.Context,
	population []imaging.Image,
	parents []int,
	seeds []uint64,
	target imaging.Image,
	cfg StepConfig,
) ([]imaging.Image, []float64, error) {
	offspring := make([]imaging.Image, len(parents))
	fitness := make([]float64, len(parents))

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for i := range parents {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			child := Mutate(population[parents[i]], cfg.Mutation, rng.New(seeds[i]))
			f, err := Fitness(child, target)
			if err != nil {
				return err
			}
			offspring[i] = child
			fitness[i] = f
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate offspring: %w", err)
	}

	return offspring, fitness, nil
}

// selectFittest returns the indices of the n highest fitness values in
// ascending fitness order. Equal values keep their draw order.
func selectFittest(fitness []float64, n int) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fitness[order[a]] < fitness[order[b]]
	})
	if n > len(order) {
		n = len(order)
	}
	return order[len(order)-n:]
}
