package evolve

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgwall/proj-livia/internal/types"
	"github.com/jgwall/proj-livia/pkg/imaging"
	"github.com/jgwall/proj-livia/pkg/rng"
)

func quietDriver(t *testing.T, cfg types.EvolutionConfig) *Driver {
	d, err := NewDriver(cfg)
	require.NoError(t, err)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	d.SetLogger(logger)
	return d
}

func TestNewDriverFailsFast(t *testing.T) {
	cfg := validConfig()
	cfg.SelectionFraction = 2.0

	d, err := NewDriver(cfg)
	assert.Nil(t, d)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestNewDriverSeed(t *testing.T) {
	d := quietDriver(t, validConfig())
	assert.Equal(t, int64(1), d.Seed())
	assert.NotEmpty(t, d.RunID())

	cfg := validConfig()
	cfg.Seed = nil
	d = quietDriver(t, cfg)
	assert.NotZero(t, d.Seed())
}

func TestRunWhiteTargetWithoutMutation(t *testing.T) {
	seed := int64(3)
	cfg := types.EvolutionConfig{
		PopSize:           4,
		SelectionFraction: 1.0,
		MutationRate:      0,
		Generations:       3,
		Seed:              &seed,
	}
	target := whiteTarget(t)

	result, err := quietDriver(t, cfg).Run(context.Background(), target, nil)
	require.NoError(t, err)

	assert.Len(t, result.FitnessHistory, 4)
	assert.Len(t, result.Population, 4)
	assert.Equal(t, []int{2, 2}, result.AverageImage.Shape)

	initial, err := InitialState(target, 4, rng.New(uint64(seed)))
	require.NoError(t, err)
	assert.Equal(t, initial.FitnessHistory[0], result.FitnessHistory[0])
	for _, member := range result.Final.Population {
		assert.True(t, containsPix(initial.Population, member.Pix))
	}
}

func TestRunIsReproducible(t *testing.T) {
	cfg := validConfig()
	cfg.Generations = 8
	target := InitializeRandom([]int{6, 5}, rng.New(99))

	first, err := quietDriver(t, cfg).Run(context.Background(), target, nil)
	require.NoError(t, err)

	cfg.Workers = 7
	second, err := quietDriver(t, cfg).Run(context.Background(), target, nil)
	require.NoError(t, err)

	assert.Equal(t, first.FitnessHistory, second.FitnessHistory)
	assert.Equal(t, first.AverageImage.Pix, second.AverageImage.Pix)
	assert.Equal(t, first.Final.AverageImage.Pix, second.Final.AverageImage.Pix)
}

func TestRunImprovesFitness(t *testing.T) {
	seed := int64(5)
	cfg := types.EvolutionConfig{
		PopSize:           10,
		SelectionFraction: 0.1,
		MutationRate:      0.2,
		MutationStddev:    0.1,
		Generations:       40,
		Seed:              &seed,
		Workers:           4,
	}
	target := InitializeRandom([]int{4, 4}, rng.New(6))

	result, err := quietDriver(t, cfg).Run(context.Background(), target, nil)
	require.NoError(t, err)

	history := result.FitnessHistory
	require.Len(t, history, 41)
	assert.Greater(t, history[40], history[0]+0.05)
	assert.Equal(t, int64(10+40*100), result.Stats.Evaluations)
	assert.Equal(t, history[0], result.Stats.StartFitness)
	assert.Equal(t, history[40], result.Stats.FinalFitness)
}

func TestRunEmitsSnapshotsOnInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Generations = 5
	cfg.SnapshotInterval = 2
	target := InitializeRandom([]int{3, 3}, rng.New(7))

	d := quietDriver(t, cfg)
	var generations []int
	sink := SinkFunc(func(_ context.Context, ev Event) error {
		generations = append(generations, ev.Generation)
		assert.Equal(t, d.RunID(), ev.RunID)
		assert.Equal(t, 5, ev.Generations)
		assert.Equal(t, ev.Generation, ev.State.Generation())
		assert.Equal(t, imaging.ToDisplay(ev.State.AverageImage).Pix, ev.AverageImage.Pix)
		return nil
	})

	_, err := d.Run(context.Background(), target, sink)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2, 4}, generations)
}

func TestRunWithoutIntervalEmitsNothing(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotInterval = 0
	called := false
	sink := SinkFunc(func(context.Context, Event) error {
		called = true
		return nil
	})

	_, err := quietDriver(t, cfg).Run(context.Background(), InitializeRandom([]int{2, 2}, rng.New(1)), sink)
	require.NoError(t, err)
	assert.False(t, called)
}

func TestRunSinkErrorAborts(t *testing.T) {
	cfg := validConfig()
	cfg.SnapshotInterval = 1
	boom := errors.New("disk full")
	sink := SinkFunc(func(_ context.Context, ev Event) error {
		if ev.Generation == 2 {
			return boom
		}
		return nil
	})

	_, err := quietDriver(t, cfg).Run(context.Background(), InitializeRandom([]int{2, 2}, rng.New(1)), sink)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "generation 2")
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietDriver(t, validConfig()).Run(ctx, InitializeRandom([]int{2, 2}, rng.New(1)), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunRejectsInvalidTarget(t *testing.T) {
	_, err := quietDriver(t, validConfig()).Run(context.Background(), imaging.Image{}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

func TestResumeContinuesHistory(t *testing.T) {
	cfg := validConfig()
	cfg.Generations = 3
	cfg.SnapshotInterval = 1
	target := InitializeRandom([]int{3, 4}, rng.New(8))

	first, err := quietDriver(t, cfg).Run(context.Background(), target, nil)
	require.NoError(t, err)

	var generations []int
	sink := SinkFunc(func(_ context.Context, ev Event) error {
		generations = append(generations, ev.Generation)
		assert.Equal(t, 6, ev.Generations)
		return nil
	})

	second, err := quietDriver(t, cfg).Resume(context.Background(), first.Final, target, sink)
	require.NoError(t, err)
	assert.Len(t, second.FitnessHistory, 7)
	assert.Equal(t, first.FitnessHistory, second.FitnessHistory[:4])
	assert.Equal(t, []int{4, 5, 6}, generations)
}

func TestResumeErrors(t *testing.T) {
	d := quietDriver(t, validConfig())
	target := InitializeRandom([]int{3, 3}, rng.New(1))

	_, err := d.Resume(context.Background(), nil, target, nil)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	state, err := InitialState(InitializeRandom([]int{2, 2}, rng.New(2)), 3, rng.New(3))
	require.NoError(t, err)
	_, err = d.Resume(context.Background(), state, target, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	// a checkpoint from a smaller population cannot be grown to popsize
	small, err := InitialState(target, 3, rng.New(4))
	require.NoError(t, err)
	var emitted int
	sink := SinkFunc(func(context.Context, Event) error {
		emitted++
		return nil
	})
	_, err = d.Resume(context.Background(), small, target, sink)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
	assert.Contains(t, err.Error(), "checkpoint holds 3 members but popsize is 10")
	assert.Zero(t, emitted)
}

func TestResumeKeepsPopulationSize(t *testing.T) {
	cfg := validConfig()
	cfg.PopSize = 4
	cfg.SelectionFraction = 0.5
	cfg.SnapshotInterval = 1
	target := InitializeRandom([]int{3, 3}, rng.New(9))

	state, err := InitialState(target, cfg.PopSize, rng.New(10))
	require.NoError(t, err)

	sizes := map[int]bool{}
	result, err := quietDriver(t, cfg).Resume(context.Background(), state, target, SinkFunc(func(_ context.Context, ev Event) error {
		sizes[len(ev.State.Population)] = true
		return nil
	}))
	require.NoError(t, err)
	assert.Len(t, result.Population, cfg.PopSize)
	assert.Equal(t, map[int]bool{cfg.PopSize: true}, sizes)
}

func TestResumeRescoresStoredFitness(t *testing.T) {
	cfg := validConfig()
	cfg.PopSize = 3
	cfg.SelectionFraction = 0.5
	cfg.Generations = 1
	target := InitializeRandom([]int{2, 3}, rng.New(11))

	state, err := InitialState(target, cfg.PopSize, rng.New(12))
	require.NoError(t, err)
	cp := state.ToCheckpoint("run-1", cfg)
	for i := range cp.Fitness {
		cp.Fitness[i] = 42
	}
	restored, err := StateFromCheckpoint(cp)
	require.NoError(t, err)

	rescored, err := restored.rescored(target)
	require.NoError(t, err)
	assert.Equal(t, state.Fitness, rescored.Fitness)
	assert.Equal(t, state.FitnessHistory, rescored.FitnessHistory)
	assert.Equal(t, []float64{42, 42, 42}, restored.Fitness)

	_, err = quietDriver(t, cfg).Resume(context.Background(), restored, target, nil)
	require.NoError(t, err)
}

func TestCheckpointRoundTrip(t *testing.T) {
	target := InitializeRandom([]int{3, 3, 3}, rng.New(4))
	state, err := InitialState(target, 3, rng.New(5))
	require.NoError(t, err)

	cp := state.ToCheckpoint("run-1", validConfig())
	assert.Equal(t, "run-1", cp.RunID)
	assert.Equal(t, 0, cp.Generation)
	assert.Equal(t, []int{3, 3, 3}, cp.Shape)

	restored, err := StateFromCheckpoint(cp)
	require.NoError(t, err)
	assert.Equal(t, state.FitnessHistory, restored.FitnessHistory)
	assert.Equal(t, state.Fitness, restored.Fitness)
	assert.Equal(t, state.AverageImage.Pix, restored.AverageImage.Pix)
	for i := range state.Population {
		assert.Equal(t, state.Population[i].Pix, restored.Population[i].Pix)
	}

	cp.Population[0] = cp.Population[0][:5]
	_, err = StateFromCheckpoint(cp)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = StateFromCheckpoint(types.Checkpoint{})
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestStateFromCheckpointRejectsOutOfRangePixels(t *testing.T) {
	target := InitializeRandom([]int{2, 2}, rng.New(6))
	state, err := InitialState(target, 2, rng.New(7))
	require.NoError(t, err)

	tests := []struct {
		name  string
		value float64
	}{
		{name: "negative", value: -0.01},
		{name: "above one", value: 1.5},
		{name: "not a number", value: math.NaN()},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cp := state.ToCheckpoint("run-1", validConfig())
			cp.Population[1][2] = test.value
			_, err := StateFromCheckpoint(cp)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrOutOfRange))
			assert.Contains(t, err.Error(), "member 1 pixel 2")
		})
	}

	cp := state.ToCheckpoint("run-1", validConfig())
	cp.Population[0][0], cp.Population[0][1] = 0, 1
	_, err = StateFromCheckpoint(cp)
	assert.NoError(t, err)
}
